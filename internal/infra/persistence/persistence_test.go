package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/technotes/app/internal/config"
	domuser "example.com/technotes/app/internal/domain/user"
)

func memoryConfig(name string) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:" + name + "?mode=memory&cache=shared",
	}
}

func TestOpen_SQLiteWiresRepositories(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, memoryConfig("persistence_open"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.Equal(t, config.DriverSQLite, s.Driver())
	require.NoError(t, s.Ping(ctx))

	u, err := s.Users.Create(ctx, &domuser.User{
		Username:     "alice",
		PasswordHash: "x",
		Roles:        []domuser.Role{domuser.RoleEmployee},
		Active:       true,
	})
	require.NoError(t, err)

	has, err := s.Notes.ExistsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestStore_RollbackThenMigrate(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, memoryConfig("persistence_rollback"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	n, err := s.Migrate(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	version, err := s.Rollback(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, version)

	_, err = s.Users.List(ctx)
	require.Error(t, err)

	n, err = s.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	require.ErrorContains(t, err, `unsupported driver "oracle"`)
}

func TestConnect_DoesNotMigrate(t *testing.T) {
	ctx := context.Background()
	s, err := Connect(ctx, memoryConfig("persistence_connect"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Users.List(ctx)
	require.Error(t, err)
}
