package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	domnote "example.com/technotes/app/internal/domain/note"
	dom "example.com/technotes/app/internal/domain/user"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

// EventPublisher receives user lifecycle events once a change is stored.
type EventPublisher interface {
	Publish(ctx context.Context, evt dom.Event) error
}

type Dependencies struct {
	Users     dom.Repository
	Notes     domnote.Repository
	Hasher    PasswordHasher
	Publisher EventPublisher
	Logger    logrus.FieldLogger
}

type Service struct {
	users     dom.Repository
	notes     domnote.Repository
	hasher    PasswordHasher
	publisher EventPublisher
	log       logrus.FieldLogger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		users:     deps.Users,
		notes:     deps.Notes,
		hasher:    deps.Hasher,
		publisher: deps.Publisher,
		log:       log,
	}
}

type CreateUserInput struct {
	Username string
	Password string
	Roles    []string
}

type UpdateUserInput struct {
	ID       string
	Username string
	Roles    []string
	Active   *bool
	Password *string
}

func (s *Service) ListUsers(ctx context.Context) ([]*dom.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, dom.ErrNoUsersFound
	}
	return users, nil
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*dom.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, dom.ErrMissingFields
	}
	roles, err := dom.ParseRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUsernameFree(ctx, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &dom.User{
		Username:     in.Username,
		PasswordHash: hash,
		Roles:        roles,
		Active:       true,
	})
	if err != nil {
		// The lookup above is advisory, a concurrent create can still win
		// the race and trip the unique index.
		if errors.Is(err, dom.ErrDuplicateUsername) {
			return nil, fmt.Errorf("%w: %v", dom.ErrInvalidUserData, err)
		}
		return nil, err
	}

	s.publish(ctx, dom.NewEvent(dom.EventCreated, u))
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, in UpdateUserInput) (*dom.User, error) {
	if in.ID == "" || in.Username == "" || in.Active == nil {
		return nil, dom.ErrMissingFields
	}
	roles, err := dom.ParseRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUsernameFree(ctx, in.Username, in.ID); err != nil {
		return nil, err
	}

	u.Username = in.Username
	u.Roles = roles
	u.Active = *in.Active

	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		if errors.Is(err, dom.ErrDuplicateUsername) {
			return nil, dom.ErrUsernameConflict
		}
		return nil, err
	}

	s.publish(ctx, dom.NewEvent(dom.EventUpdated, updated))
	return updated, nil
}

// DeleteUser removes the user and returns the record as it was before
// deletion so callers can echo its username and id.
func (s *Service) DeleteUser(ctx context.Context, id string) (*dom.User, error) {
	if id == "" {
		return nil, dom.ErrMissingID
	}

	hasNotes, err := s.notes.ExistsForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if hasNotes {
		return nil, dom.ErrUserHasNotes
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.publish(ctx, dom.NewEvent(dom.EventDeleted, u))
	return u, nil
}

// ensureUsernameFree fails when a user other than selfID holds username.
// selfID is empty on create.
func (s *Service) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, dom.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case selfID == "":
		return dom.ErrDuplicateUsername
	case existing.ID != selfID:
		return dom.ErrUsernameConflict
	}
	return nil
}

func (s *Service) publish(ctx context.Context, evt dom.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WithError(err).
			WithField("event", evt.Type).
			WithField("user_id", evt.UserID).
			Warn("publish user event failed")
	}
}
