package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/textblocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockEnv struct {
	now   time.Time
	rm    *memory.InMemoryRepositoryManager
	store *memStore
	reg   *registry.Registry
	svc   *TextBlockService
}

func newBlockEnv(t *testing.T) *blockEnv {
	t.Helper()
	e := &blockEnv{now: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), store: newMemStore()}
	clock := func() time.Time { return e.now }
	e.rm = memory.NewInMemoryRepositoryManager(clock)
	e.reg = registry.New(e.rm.Files(nil), e.store, logging.Nop(), registry.WithClock(clock))
	e.svc = NewTextBlockService(nil, memory.TxRunner{}, e.rm, e.reg, logging.Nop())
	return e
}

func TestTextBlock_CreateWithImage(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "about", Title: "About", Group: "main"}, []byte("jpeg"))
	require.NoError(t, err)
	assert.NotEmpty(t, b.Image)

	f, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Image, f.Address)
	assert.Equal(t, []byte("jpeg"), e.store.objects[f.Address])
}

func TestTextBlock_CreateWithoutImage(t *testing.T) {
	e := newBlockEnv(t)

	b, err := e.svc.Create(context.Background(), &models.TextBlock{Name: "plain"}, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Image)
	assert.Empty(t, e.store.objects)
}

func TestTextBlock_CreateDuplicateNameWritesNothing(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, &models.TextBlock{Name: "about"}, nil)
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("jpeg"))
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Empty(t, e.store.objects)
}

func TestTextBlock_CreateInvalid(t *testing.T) {
	e := newBlockEnv(t)
	_, err := e.svc.Create(context.Background(), &models.TextBlock{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestTextBlock_CreateStorageFailure(t *testing.T) {
	e := newBlockEnv(t)
	e.store.writeErr = fmt.Errorf("%w: disk full", common.ErrStorage)

	_, err := e.svc.Create(context.Background(), &models.TextBlock{Name: "about"}, []byte("jpeg"))
	assert.ErrorIs(t, err, common.ErrStorage)

	list, err := e.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTextBlock_UpdateReplacesImage(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("old"))
	require.NoError(t, err)
	oldFile, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)

	upd, err := e.svc.Update(ctx, &models.TextBlock{ID: b.ID, Name: "about", Title: "New"}, []byte("new"))
	require.NoError(t, err)
	assert.NotEqual(t, b.Image, upd.Image)
	assert.Equal(t, "New", upd.Title)

	cur, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)
	assert.Equal(t, upd.Image, cur.Address)

	old, err := e.reg.GetByID(ctx, oldFile.ID)
	require.NoError(t, err)
	assert.Nil(t, old.Owner, "old image is orphaned, not deleted")
	assert.Contains(t, e.store.objects, old.Address)
}

// failingBlockUpdates rejects block updates as if another request had taken
// the name between the check and the write.
type failingBlockUpdates struct {
	textblocks.Repository
}

func (r *failingBlockUpdates) Update(_ context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
}

// failingBlockCreates rejects every insert the same way.
type failingBlockCreates struct {
	textblocks.Repository
}

func (r *failingBlockCreates) Create(_ context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
}

func TestTextBlock_UpdateFailureAfterReplaceRestoresState(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("old"))
	require.NoError(t, err)
	oldFile, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)

	rm := &repoOverride{
		InMemoryRepositoryManager: e.rm,
		textBlocks:                &failingBlockUpdates{Repository: e.rm.TextBlocks(nil)},
	}
	svc := NewTextBlockService(nil, memory.TxRunner{}, rm, e.reg, logging.Nop())

	_, err = svc.Update(ctx, &models.TextBlock{ID: b.ID, Name: "about"}, []byte("new"))
	require.ErrorIs(t, err, common.ErrConflict)

	cur, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)
	assert.Equal(t, oldFile.ID, cur.ID, "old image is still the owned one")

	files, err := e.reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	assert.Equal(t, map[string][]byte{oldFile.Address: []byte("old")}, e.store.objects)

	got, err := e.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, oldFile.Address, got.Image)
}

func TestTextBlock_CreateFailureAfterImageWriteLeavesNothing(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	rm := &repoOverride{
		InMemoryRepositoryManager: e.rm,
		textBlocks:                &failingBlockCreates{Repository: e.rm.TextBlocks(nil)},
	}
	svc := NewTextBlockService(nil, memory.TxRunner{}, rm, e.reg, logging.Nop())

	_, err := svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("img"))
	require.ErrorIs(t, err, common.ErrConflict)

	files, err := e.reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, e.store.objects)
}

func TestTextBlock_UpdateWithoutImageKeepsImage(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("img"))
	require.NoError(t, err)

	upd, err := e.svc.Update(ctx, &models.TextBlock{ID: b.ID, Name: "about", Text: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, b.Image, upd.Image)
}

func TestTextBlock_UpdateNameConflictAndMissing(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, &models.TextBlock{Name: "a"}, nil)
	require.NoError(t, err)
	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "b"}, nil)
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, &models.TextBlock{ID: b.ID, Name: "a"}, nil)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = e.svc.Update(ctx, &models.TextBlock{ID: 999, Name: "z"}, nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTextBlock_DeleteOrphansImageForSweep(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	b, err := e.svc.Create(ctx, &models.TextBlock{Name: "about"}, []byte("img"))
	require.NoError(t, err)
	f, err := e.reg.GetByOwner(ctx, models.TextBlockTable, b.ID)
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, b.ID))

	_, err = e.svc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	orphan, err := e.reg.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FileOrphaned, orphan.State())

	e.now = e.now.Add(time.Hour)
	res, err := e.reg.SweepOrphans(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, e.store.objects)

	assert.ErrorIs(t, e.svc.Delete(ctx, b.ID), common.ErrorNotFound)
}

func TestTextBlock_ListByGroup(t *testing.T) {
	e := newBlockEnv(t)
	ctx := context.Background()

	for _, n := range []string{"q1", "q2"} {
		_, err := e.svc.Create(ctx, &models.TextBlock{Name: n, Group: "faq"}, nil)
		require.NoError(t, err)
	}
	_, err := e.svc.Create(ctx, &models.TextBlock{Name: "home", Group: "main"}, nil)
	require.NoError(t, err)

	faq, err := e.svc.ListByGroup(ctx, "faq")
	require.NoError(t, err)
	assert.Len(t, faq, 2)

	all, err := e.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
