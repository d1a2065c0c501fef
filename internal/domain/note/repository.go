package note

import "context"

type Repository interface {
	Create(ctx context.Context, n *Note) (*Note, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
}
