// Package files persists stored-file metadata records.
package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error)
	GetByID(ctx context.Context, id int64) (*models.StoredFile, error)
	// GetByOwner returns the most recently created file pointing at the owner.
	GetByOwner(ctx context.Context, table string, ownerID int64) (*models.StoredFile, error)
	List(ctx context.Context) ([]*models.StoredFile, error)
	// UpdateOwner sets or clears the owner reference. A nil owner orphans the file.
	UpdateOwner(ctx context.Context, id int64, owner *models.OwnerRef) (*models.StoredFile, error)
	// ListOrphans returns unowned files created at or before cutoff.
	ListOrphans(ctx context.Context, cutoff time.Time) ([]*models.StoredFile, error)
	// DeleteOrphan removes the record only if it is still unowned and reports
	// whether a row was deleted.
	DeleteOrphan(ctx context.Context, id int64) (bool, error)
}
