package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type FileRepository struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64
	byID   map[int64]models.StoredFile
}

func NewFileRepository(now func() time.Time) *FileRepository {
	return &FileRepository{now: now, byID: make(map[int64]models.StoredFile)}
}

func clone(f models.StoredFile) *models.StoredFile {
	if f.Owner != nil {
		o := *f.Owner
		f.Owner = &o
	}
	return &f
}

func (r *FileRepository) Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.byID {
		if f.Address == file.Address {
			return nil, fmt.Errorf("file %s: %w", file.Address, common.ErrConflict)
		}
	}

	r.nextID++
	now := r.now()
	stored := *clone(*file)
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.byID[stored.ID] = stored
	remember(ctx, func() { r.restore(stored.ID, nil) })
	return clone(stored), nil
}

func (r *FileRepository) GetByID(_ context.Context, id int64) (*models.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(f), nil
}

func (r *FileRepository) GetByOwner(_ context.Context, table string, ownerID int64) (*models.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.StoredFile
	for _, f := range r.byID {
		if f.Owner == nil || f.Owner.Table != table || f.Owner.ID != ownerID {
			continue
		}
		if best == nil || f.ID > best.ID {
			best = clone(f)
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

func (r *FileRepository) List(_ context.Context) ([]*models.StoredFile, error) {
	return r.filter(func(models.StoredFile) bool { return true }), nil
}

func (r *FileRepository) ListOrphans(_ context.Context, cutoff time.Time) ([]*models.StoredFile, error) {
	return r.filter(func(f models.StoredFile) bool {
		return f.Owner == nil && !f.CreatedAt.After(cutoff)
	}), nil
}

func (r *FileRepository) filter(keep func(models.StoredFile) bool) []*models.StoredFile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.StoredFile
	for _, f := range r.byID {
		if keep(f) {
			out = append(out, clone(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *FileRepository) UpdateOwner(ctx context.Context, id int64, owner *models.OwnerRef) (*models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	prev := f
	remember(ctx, func() { r.restore(id, &prev) })

	f.Owner = nil
	if owner != nil {
		o := *owner
		f.Owner = &o
	}
	f.UpdatedAt = r.now()
	r.byID[id] = f
	return clone(f), nil
}

func (r *FileRepository) DeleteOrphan(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.byID[id]
	if !ok || f.Owner != nil {
		return false, nil
	}
	delete(r.byID, id)
	remember(ctx, func() { r.restore(id, &f) })
	return true, nil
}

// restore puts back f under id, or drops id when f is nil.
func (r *FileRepository) restore(id int64, f *models.StoredFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f == nil {
		delete(r.byID, id)
		return
	}
	r.byID[id] = *f
}
