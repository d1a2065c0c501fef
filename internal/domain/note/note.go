package note

import "time"

// Note references the user it is assigned to by id. The user does not own
// the note, deleting a user is refused while any note points at it.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Text      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
