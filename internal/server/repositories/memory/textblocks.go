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

type TextBlockRepository struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64
	byID   map[int64]models.TextBlock
}

func NewTextBlockRepository(now func() time.Time) *TextBlockRepository {
	return &TextBlockRepository{now: now, byID: make(map[int64]models.TextBlock)}
}

func (r *TextBlockRepository) nameTaken(name string, except int64) bool {
	for id, b := range r.byID {
		if id != except && b.Name == name {
			return true
		}
	}
	return false
}

func (r *TextBlockRepository) Create(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(block.Name, 0) {
		return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
	}

	r.nextID++
	b := *block
	b.ID = r.nextID
	b.CreatedAt = r.now()
	b.UpdatedAt = b.CreatedAt
	r.byID[b.ID] = b
	remember(ctx, func() { r.restore(b.ID, nil) })
	return &b, nil
}

func (r *TextBlockRepository) GetByID(_ context.Context, id int64) (*models.TextBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r *TextBlockRepository) GetByName(_ context.Context, name string) (*models.TextBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.byID {
		if b.Name == name {
			return &b, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *TextBlockRepository) List(_ context.Context) ([]*models.TextBlock, error) {
	return r.filter(func(models.TextBlock) bool { return true }), nil
}

func (r *TextBlockRepository) ListByGroup(_ context.Context, group string) ([]*models.TextBlock, error) {
	return r.filter(func(b models.TextBlock) bool { return b.Group == group }), nil
}

func (r *TextBlockRepository) filter(keep func(models.TextBlock) bool) []*models.TextBlock {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.TextBlock
	for _, b := range r.byID {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *TextBlockRepository) Update(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[block.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if r.nameTaken(block.Name, block.ID) {
		return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
	}

	b := *block
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = r.now()
	r.byID[b.ID] = b
	remember(ctx, func() { r.restore(cur.ID, &cur) })
	return &b, nil
}

func (r *TextBlockRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	remember(ctx, func() { r.restore(id, &cur) })
	return nil
}

func (r *TextBlockRepository) restore(id int64, b *models.TextBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b == nil {
		delete(r.byID, id)
		return
	}
	r.byID[id] = *b
}
