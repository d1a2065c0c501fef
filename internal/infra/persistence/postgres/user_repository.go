package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	dom "example.com/technotes/app/internal/domain/user"
)

const uniqueViolation = "23505"

// UserRepository keeps roles in a native text[] column.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, password_hash, roles, active`

func (r *UserRepository) List(ctx context.Context) ([]*dom.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*dom.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*dom.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*dom.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) Create(ctx context.Context, u *dom.User) (*dom.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, roles, active)
        VALUES ($1, $2, $3, $4, $5)
    `, id, u.Username, u.PasswordHash, dom.RoleStrings(u.Roles), u.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, dom.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *dom.User) (*dom.User, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET username = $1, password_hash = $2, roles = $3, active = $4
        WHERE id = $5
    `, u.Username, u.PasswordHash, dom.RoleStrings(u.Roles), u.Active, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, dom.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, dom.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*dom.User, error) {
	var (
		u     dom.User
		roles []string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dom.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Roles = make([]dom.Role, 0, len(roles))
	for _, s := range roles {
		u.Roles = append(u.Roles, dom.Role(s))
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
