package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type UserRepository struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64
	byID   map[int64]models.User
}

func NewUserRepository(now func() time.Time) *UserRepository {
	return &UserRepository{now: now, byID: make(map[int64]models.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Login == user.Login {
			return nil, fmt.Errorf("login %q: %w", user.Login, common.ErrConflict)
		}
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.now()
	r.byID[user.ID] = *user
	id := user.ID
	remember(ctx, func() { r.Delete(id) })
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Login == login {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	prev := u.Role
	u.Role = role
	r.byID[id] = u
	remember(ctx, func() { r.setRole(id, prev) })
	return nil
}

func (r *UserRepository) setRole(id int64, role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		u.Role = role
		r.byID[id] = u
	}
}

// Delete removes an account. Only tests and tooling use it.
func (r *UserRepository) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}
