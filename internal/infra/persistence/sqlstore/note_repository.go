package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	domnote "example.com/technotes/app/internal/domain/note"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *domnote.Note) (*domnote.Note, error) {
	if n.UserID == "" {
		return nil, domnote.ErrMissingUser
	}
	now := time.Now().UTC()
	n.ID = uuid.NewString()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO notes (id, user_id, title, text, completed, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, n.ID, n.UserID, n.Title, n.Text, n.Completed, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM notes WHERE user_id = ? LIMIT 1`, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find note for user %s: %w", userID, err)
	}
	return true, nil
}
