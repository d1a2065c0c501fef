package user

import "context"

// Repository is implemented by every backing store.
// Lookups return ErrUserNotFound when nothing matches; writes return
// ErrDuplicateUsername when the username index rejects them.
type Repository interface {
	List(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id string) error
}
