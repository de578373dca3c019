package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*InMemoryRepositoryManager)(nil)
var _ dbx.TxRunner = TxRunner{}

func TestFileRepository_OrphanLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewFileRepository(func() time.Time { return now })
	ctx := context.Background()

	f, err := repo.Create(ctx, &models.StoredFile{Address: "a"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.StoredFile{Address: "a"})
	assert.ErrorIs(t, err, common.ErrConflict)

	orphans, err := repo.ListOrphans(ctx, now.Add(-time.Second))
	require.NoError(t, err)
	assert.Empty(t, orphans)

	orphans, err = repo.ListOrphans(ctx, now)
	require.NoError(t, err)
	assert.Len(t, orphans, 1, "created exactly at cutoff is eligible")

	owner := &models.OwnerRef{Table: "block", ID: 7}
	_, err = repo.UpdateOwner(ctx, f.ID, owner)
	require.NoError(t, err)

	owner.ID = 99 // caller mutation must not leak into storage
	got, err := repo.GetByOwner(ctx, "block", 7)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	deleted, err := repo.DeleteOrphan(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.UpdateOwner(ctx, f.ID, nil)
	require.NoError(t, err)
	deleted, err = repo.DeleteOrphan(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.UpdateOwner(ctx, f.ID, owner)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(time.Now)
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Login: "alice", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Login: "alice"})
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, repo.UpdateRole(ctx, u.ID, models.RoleAdmin))
	got, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	repo.Delete(u.ID)
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.UpdateRole(ctx, u.ID, models.RoleUser), common.ErrorNotFound)
}

func TestTextBlockRepository(t *testing.T) {
	repo := NewTextBlockRepository(time.Now)
	ctx := context.Background()

	a, err := repo.Create(ctx, &models.TextBlock{Name: "a", Group: "g"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &models.TextBlock{Name: "b", Group: "h"})
	require.NoError(t, err)

	b.Name = "a"
	_, err = repo.Update(ctx, b)
	assert.ErrorIs(t, err, common.ErrConflict)

	list, err := repo.ListByGroup(ctx, "g")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), common.ErrorNotFound)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	m := NewInMemoryRepositoryManager(nil)
	ctx := context.Background()

	kept, err := m.files.Create(ctx, &models.StoredFile{Address: "kept"})
	require.NoError(t, err)
	block, err := m.textBlocks.Create(ctx, &models.TextBlock{Name: "about", Image: "kept"})
	require.NoError(t, err)
	_, err = m.files.UpdateOwner(ctx, kept.ID, &models.OwnerRef{Table: models.TextBlockTable, ID: block.ID})
	require.NoError(t, err)

	err = TxRunner{}.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := m.Files(tx).UpdateOwner(ctx, kept.ID, nil); err != nil {
			return err
		}
		if _, err := m.Files(tx).Create(ctx, &models.StoredFile{Address: "new"}); err != nil {
			return err
		}
		changed := *block
		changed.Image = "new"
		if _, err := m.TextBlocks(tx).Update(ctx, &changed); err != nil {
			return err
		}
		return common.ErrConflict
	})
	require.ErrorIs(t, err, common.ErrConflict)

	all, err := m.files.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].Address)
	assert.Equal(t, models.FileAssociated, all[0].State())

	got, err := m.textBlocks.GetByID(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Image)
}

func TestTxRunner_KeepsWritesOnSuccess(t *testing.T) {
	m := NewInMemoryRepositoryManager(nil)
	ctx := context.Background()

	err := TxRunner{}.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := m.Users(tx).Create(ctx, &models.User{Login: "alice", Role: models.RoleUser})
		return err
	})
	require.NoError(t, err)

	_, err = m.users.GetByLogin(ctx, "alice")
	assert.NoError(t, err)
}

func TestTxRunner_RollsBackOnPanic(t *testing.T) {
	m := NewInMemoryRepositoryManager(nil)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = TxRunner{}.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := m.TextBlocks(tx).Create(ctx, &models.TextBlock{Name: "x"}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	list, err := m.textBlocks.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
