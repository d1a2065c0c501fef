package user

import "time"

type EventType string

const (
	EventCreated EventType = "user.created"
	EventUpdated EventType = "user.updated"
	EventDeleted EventType = "user.deleted"
)

// Event describes a completed change to a user account.
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, u *User) Event {
	return Event{
		Type:       t,
		UserID:     u.ID,
		Username:   u.Username,
		OccurredAt: time.Now().UTC(),
	}
}
