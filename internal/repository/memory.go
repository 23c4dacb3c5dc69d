package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/model"
)

// In-memory store implementations. They satisfy the same service interfaces as
// the pgx repositories and back the tests, so no flow needs a running database.

type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: map[int64]model.User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.users {
		if strings.ToLower(existing.Email) == email {
			return model.User{}, model.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	u.ID = r.nextID
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	r.nextID++
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}

	email := strings.ToLower(strings.TrimSpace(u.Email))
	for id, other := range r.users {
		if id != u.ID && strings.ToLower(other.Email) == email {
			return model.ErrDuplicateEmail
		}
	}

	u.Email = email
	u.PasswordHash = existing.PasswordHash
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[string]model.Session{}}
}

func (r *MemorySessionRepository) Create(_ context.Context, userID int64, expiresAt time.Time) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *MemorySessionRepository) Find(_ context.Context, id string) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return model.Session{}, model.ErrSessionNotFound
	}
	return s, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

type MemoryTenantRepository struct {
	mu      sync.RWMutex
	nextID  int64
	tenants map[int64]model.Tenant
}

func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{nextID: 1, tenants: map[int64]model.Tenant{}}
}

func (r *MemoryTenantRepository) Create(_ context.Context, t model.Tenant) (model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.nextID++
	r.tenants[t.ID] = t
	return t, nil
}

func (r *MemoryTenantRepository) FindByID(_ context.Context, id int64) (model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return model.Tenant{}, model.ErrTenantNotFound
	}
	return t, nil
}

func (r *MemoryTenantRepository) Update(_ context.Context, t model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tenants[t.ID]
	if !ok {
		return model.ErrTenantNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	r.tenants[t.ID] = t
	return nil
}

func (r *MemoryTenantRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[id]; !ok {
		return model.ErrTenantNotFound
	}
	delete(r.tenants, id)
	return nil
}

func (r *MemoryTenantRepository) List(_ context.Context) ([]model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]model.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		tenants = append(tenants, t)
	}
	return tenants, nil
}
