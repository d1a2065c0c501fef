package http

import (
	"context"
	"fmt"
	"sync"

	domnote "example.com/technotes/app/internal/domain/note"
	domuser "example.com/technotes/app/internal/domain/user"
)

type memoryUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domuser.User
	order   []string
	nextID  int
	listErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*domuser.User)}
}

func copyUser(u *domuser.User) *domuser.User {
	c := *u
	c.Roles = append([]domuser.Role(nil), u.Roles...)
	return &c
}

func (m *memoryUserRepo) List(ctx context.Context) ([]*domuser.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domuser.User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, copyUser(m.users[id]))
	}
	return out, nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id string) (*domuser.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domuser.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (m *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*domuser.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.users[id].Username == username {
			return copyUser(m.users[id]), nil
		}
	}
	return nil, domuser.ErrUserNotFound
}

func (m *memoryUserRepo) Create(ctx context.Context, u *domuser.User) (*domuser.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[u.ID] = copyUser(u)
	m.order = append(m.order, u.ID)
	return copyUser(u), nil
}

func (m *memoryUserRepo) Update(ctx context.Context, u *domuser.User) (*domuser.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return nil, domuser.ErrUserNotFound
	}
	m.users[u.ID] = copyUser(u)
	return copyUser(u), nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domuser.ErrUserNotFound
	}
	delete(m.users, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type memoryNoteRepo struct {
	mu     sync.Mutex
	owners map[string]int
}

func newMemoryNoteRepo() *memoryNoteRepo {
	return &memoryNoteRepo{owners: make(map[string]int)}
}

func (m *memoryNoteRepo) Create(ctx context.Context, n *domnote.Note) (*domnote.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.UserID == "" {
		return nil, domnote.ErrMissingUser
	}
	m.owners[n.UserID]++
	return n, nil
}

func (m *memoryNoteRepo) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[userID] > 0, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hash:" + password, nil
}
