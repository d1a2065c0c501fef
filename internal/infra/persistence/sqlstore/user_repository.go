package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	dom "example.com/technotes/app/internal/domain/user"
)

// UserRepository stores users through database/sql. The queries only use
// '?' placeholders and portable SQL so the same code serves MySQL and SQLite.
// Roles are kept as a JSON array in a single column.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, roles, active`

func (r *UserRepository) List(ctx context.Context) ([]*dom.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*dom.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*dom.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*dom.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, u *dom.User) (*dom.User, error) {
	roles, err := json.Marshal(dom.RoleStrings(u.Roles))
	if err != nil {
		return nil, err
	}
	u.ID = uuid.NewString()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, roles, active)
         VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, string(roles), u.Active,
	)
	if err != nil {
		u.ID = ""
		if isUniqueViolation(err) {
			return nil, dom.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *dom.User) (*dom.User, error) {
	roles, err := json.Marshal(dom.RoleStrings(u.Roles))
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET username = ?, password_hash = ?, roles = ?, active = ?
        WHERE id = ?
    `, u.Username, u.PasswordHash, string(roles), u.Active, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, dom.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	// MySQL reports zero affected rows when nothing changed, so confirm
	// existence before calling it a miss.
	if rows, _ := res.RowsAffected(); rows == 0 {
		if _, err := r.GetByID(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dom.ErrUserNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*dom.User, error) {
	var (
		u     dom.User
		roles string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dom.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var raw []string
	if err := json.Unmarshal([]byte(roles), &raw); err != nil {
		return nil, fmt.Errorf("decode roles of user %s: %w", u.ID, err)
	}
	u.Roles = make([]dom.Role, 0, len(raw))
	for _, s := range raw {
		u.Roles = append(u.Roles, dom.Role(s))
	}
	return &u, nil
}
