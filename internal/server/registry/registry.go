// Package registry keeps the mapping between stored files and the entity that
// owns each of them, and reclaims files nobody owns any more.
//
// Physical writes and record writes are not transactional together. The
// record is the authority: a file whose record is gone is gone, even if the
// object could not be removed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Registry struct {
	repo   files.Repository
	store  filestore.Store
	logger logging.Logger
	now    func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func New(repo files.Repository, store filestore.Store, logger logging.Logger, opts ...Option) *Registry {
	r := &Registry{
		repo:   repo,
		store:  store,
		logger: logger.With("module", "registry"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// WithRepository returns a copy of r that records through repo, typically
// a repository bound to an open transaction.
func (r *Registry) WithRepository(repo files.Repository) *Registry {
	cp := *r
	cp.repo = repo
	return &cp
}

func validateOwner(o *models.OwnerRef) error {
	if o == nil {
		return nil
	}
	err := validation.ValidateStruct(o,
		validation.Field(&o.Table, validation.Required, validation.Length(1, 63)),
		validation.Field(&o.ID, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidOwner, err)
	}
	return nil
}

// Create writes data to the store and records it with the given owner
// (nil for an unassociated file). No record is created when the write fails.
func (r *Registry) Create(ctx context.Context, owner *models.OwnerRef, data []byte) (*models.StoredFile, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	address, err := r.store.Write(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	f, err := r.repo.Create(ctx, &models.StoredFile{Address: address, Owner: owner})
	if err != nil {
		r.removeObject(ctx, address)
		return nil, fmt.Errorf("record file: %w", err)
	}

	r.logger.Debug(ctx, "file created", "id", f.ID, "address", address, "owner", owner)
	return f, nil
}

func (r *Registry) GetByID(ctx context.Context, id int64) (*models.StoredFile, error) {
	f, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("file %d: %w", id, err)
	}
	return f, nil
}

func (r *Registry) GetByOwner(ctx context.Context, table string, ownerID int64) (*models.StoredFile, error) {
	f, err := r.repo.GetByOwner(ctx, table, ownerID)
	if err != nil {
		return nil, fmt.Errorf("file of %s:%d: %w", table, ownerID, err)
	}
	return f, nil
}

func (r *Registry) List(ctx context.Context) ([]*models.StoredFile, error) {
	return r.repo.List(ctx)
}

// UpdateAssociation points the file at owner, or orphans it when owner is
// nil. Storage is not touched. A record removed by a concurrent sweep yields
// common.ErrorNotFound.
func (r *Registry) UpdateAssociation(ctx context.Context, id int64, owner *models.OwnerRef) (*models.StoredFile, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	f, err := r.repo.UpdateOwner(ctx, id, owner)
	if err != nil {
		return nil, fmt.Errorf("update association of file %d: %w", id, err)
	}
	return f, nil
}

func (r *Registry) Associate(ctx context.Context, id int64, owner models.OwnerRef) (*models.StoredFile, error) {
	return r.UpdateAssociation(ctx, id, &owner)
}

func (r *Registry) Dissociate(ctx context.Context, id int64) (*models.StoredFile, error) {
	return r.UpdateAssociation(ctx, id, nil)
}

// Replace swaps the file owned by owner for a new one built from data.
// The previous file is only orphaned; the sweep reclaims it later. An owner
// without a current file simply gets its first one.
func (r *Registry) Replace(ctx context.Context, owner models.OwnerRef, data []byte) (*models.StoredFile, error) {
	if err := validateOwner(&owner); err != nil {
		return nil, err
	}

	current, err := r.repo.GetByOwner(ctx, owner.Table, owner.ID)
	switch {
	case err == nil:
		if _, err := r.Dissociate(ctx, current.ID); err != nil {
			return nil, err
		}
	case errors.Is(err, common.ErrorNotFound):
		current = nil
	default:
		return nil, fmt.Errorf("lookup current file of %s: %w", owner, err)
	}

	created, err := r.Create(ctx, nil, data)
	if err != nil {
		return nil, err
	}

	associated, err := r.Associate(ctx, created.ID, owner)
	if err != nil {
		r.Discard(ctx, created)
		return nil, err
	}

	if current != nil {
		r.logger.Info(ctx, "file replaced", "owner", owner.String(), "old_id", current.ID, "new_id", associated.ID)
	}
	return associated, nil
}

// Release orphans the file owned by owner, if any. Nothing is deleted
// synchronously.
func (r *Registry) Release(ctx context.Context, owner models.OwnerRef) error {
	if err := validateOwner(&owner); err != nil {
		return err
	}

	current, err := r.repo.GetByOwner(ctx, owner.Table, owner.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("lookup current file of %s: %w", owner, err)
	}

	_, err = r.Dissociate(ctx, current.ID)
	return err
}

// Discard cleans up after an operation that created f and then failed,
// typically once its transaction has been rolled back. The record goes only
// while it is unowned and the object only once no record refers to it.
func (r *Registry) Discard(ctx context.Context, f *models.StoredFile) {
	ctx = context.WithoutCancel(ctx)

	if _, err := r.repo.DeleteOrphan(ctx, f.ID); err != nil {
		r.logger.Error(ctx, "discard: record delete failed, stored object leaked",
			"id", f.ID, "address", f.Address, "error", err)
		return
	}

	_, err := r.repo.GetByID(ctx, f.ID)
	switch {
	case err == nil:
		r.logger.Warn(ctx, "discard: file is owned, keeping it", "id", f.ID, "address", f.Address)
		return
	case !errors.Is(err, common.ErrorNotFound):
		r.logger.Error(ctx, "discard: record lookup failed, stored object leaked",
			"id", f.ID, "address", f.Address, "error", err)
		return
	}

	r.removeObject(ctx, f.Address)
}

// removeObject deletes an object that no record refers to. When that fails
// the object is leaked and only an audit of the storage area reclaims it.
func (r *Registry) removeObject(ctx context.Context, address string) {
	err := r.store.Remove(context.WithoutCancel(ctx), address)
	switch {
	case err == nil:
		r.logger.Debug(ctx, "unreferenced object removed", "address", address)
	case errors.Is(err, common.ErrorNotFound):
	default:
		r.logger.Error(ctx, "stored object leaked", "address", address, "error", err)
	}
}
