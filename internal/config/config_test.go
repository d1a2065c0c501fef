package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "3500", cfg.App.Port)
	require.Equal(t, ":3500", cfg.Addr())
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "technotes.db", cfg.Database.SQLitePath)
	require.Equal(t, 10, cfg.Security.BcryptCost)
	require.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "user.events", cfg.AMQP.Queue)
	require.Equal(t, 2*time.Second, cfg.AMQP.DialTimeout)
	require.Zero(t, cfg.RateLimit.RPS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/technotes")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.App.Port)
	require.Equal(t, DriverMySQL, cfg.Database.Driver)
	require.Equal(t, 12, cfg.Security.BcryptCost)
	require.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
	require.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
	require.NotContains(t, cfg.String(), "pass")
}

func TestLoad_RequiresDSNForServerDrivers(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load()
	require.ErrorContains(t, err, "PG_DSN")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DRIVER", "mongo")

	_, err := Load()
	require.ErrorContains(t, err, "unsupported DB_DRIVER")
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
