package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	domnote "example.com/technotes/app/internal/domain/note"
)

type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func (r *NoteRepository) Create(ctx context.Context, n *domnote.Note) (*domnote.Note, error) {
	if n.UserID == "" {
		return nil, domnote.ErrMissingUser
	}
	now := time.Now().UTC()
	n.ID = uuid.NewString()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
        INSERT INTO notes (id, user_id, title, text, completed, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, n.ID, n.UserID, n.Title, n.Text, n.Completed, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notes WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("find note for user %s: %w", userID, err)
	}
	return exists, nil
}
