package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// SweepResult reports one sweep. StorageFailures lists addresses whose
// records are gone but whose objects could not be removed; an operator has
// to reconcile them.
type SweepResult struct {
	Candidates      int      `json:"candidates"`
	Deleted         int      `json:"deleted"`
	Skipped         int      `json:"skipped"`
	RecordFailures  int      `json:"record_failures"`
	StorageFailures []string `json:"storage_failures,omitempty"`
}

// SweepOrphans purges every orphaned file created at or before
// now - retention. For each candidate the record is deleted first, and only
// if it is still orphaned; the object is removed afterwards. A missing
// object counts as removed. Failures on one file never stop the batch.
func (r *Registry) SweepOrphans(ctx context.Context, retention time.Duration) (*SweepResult, error) {
	if retention < 0 {
		return nil, fmt.Errorf("negative retention %s", retention)
	}

	cutoff := r.now().Add(-retention)
	candidates, err := r.repo.ListOrphans(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list orphans: %w", err)
	}

	res := &SweepResult{Candidates: len(candidates)}

	for _, f := range candidates {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sweep interrupted: %w", common.WrapTimeout(err))
		}
		r.purge(ctx, f, res)
	}

	r.logger.Info(ctx, "orphan sweep finished",
		"retention", retention.String(),
		"candidates", res.Candidates,
		"deleted", res.Deleted,
		"skipped", res.Skipped,
		"record_failures", res.RecordFailures,
		"storage_failures", len(res.StorageFailures),
	)
	return res, nil
}

func (r *Registry) purge(ctx context.Context, f *models.StoredFile, res *SweepResult) {
	if !f.State().CanTransition(models.FilePurged) {
		res.Skipped++
		return
	}

	deleted, err := r.repo.DeleteOrphan(ctx, f.ID)
	if err != nil {
		res.RecordFailures++
		r.logger.Error(ctx, "sweep: record delete failed", "id", f.ID, "error", err)
		return
	}
	if !deleted {
		// re-associated or already removed since it was listed
		res.Skipped++
		return
	}
	res.Deleted++

	err = r.store.Remove(ctx, f.Address)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		r.logger.Debug(ctx, "sweep: object already gone", "id", f.ID, "address", f.Address)
	default:
		res.StorageFailures = append(res.StorageFailures, f.Address)
		r.logger.Warn(ctx, "sweep: object remove failed", "id", f.ID, "address", f.Address, "error", err)
	}
}
