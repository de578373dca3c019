package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TextBlockService manages text blocks and the image each of them owns.
// All record writes of one operation share a transaction; the image bytes
// are written outside of it, so an image stored by a failed operation is
// discarded after the rollback.
type TextBlockService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	registry    *registry.Registry
	logger      logging.Logger
}

func NewTextBlockService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, reg *registry.Registry, logger logging.Logger) *TextBlockService {
	return &TextBlockService{
		db:          db,
		tx:          tx,
		repomanager: m,
		registry:    reg,
		logger:      logger.With("module", "textblocks"),
	}
}

func validateBlock(b *models.TextBlock) error {
	err := validation.ValidateStruct(b,
		validation.Field(&b.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&b.Group, validation.Length(0, 128)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return nil
}

// Create inserts the block and, when image is not nil, stores the image and
// associates it with the new block.
func (s *TextBlockService) Create(ctx context.Context, block *models.TextBlock, image []byte) (*models.TextBlock, error) {
	if err := validateBlock(block); err != nil {
		return nil, err
	}

	var (
		created *models.TextBlock
		file    *models.StoredFile
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		blocks := s.repomanager.TextBlocks(tx)
		reg := s.registry.WithRepository(s.repomanager.Files(tx))

		if _, err := blocks.GetByName(ctx, block.Name); err == nil {
			return fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if image != nil {
			f, err := reg.Create(ctx, nil, image)
			if err != nil {
				return err
			}
			file = f
			block.Image = f.Address
		}

		b, err := blocks.Create(ctx, block)
		if err != nil {
			return err
		}

		if file != nil {
			if _, err := reg.Associate(ctx, file.ID, b.OwnerRef()); err != nil {
				return err
			}
		}

		created = b
		return nil
	})
	if err != nil {
		if file != nil {
			s.registry.Discard(ctx, file)
		}
		return nil, fmt.Errorf("create text block: %w", err)
	}

	s.logger.Info(ctx, "text block created", "id", created.ID, "name", created.Name)
	return created, nil
}

// Update rewrites the block. A non-nil image replaces the current one; the
// old image is orphaned and left to the sweep.
func (s *TextBlockService) Update(ctx context.Context, block *models.TextBlock, image []byte) (*models.TextBlock, error) {
	if err := validateBlock(block); err != nil {
		return nil, err
	}

	var (
		updated *models.TextBlock
		file    *models.StoredFile
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		blocks := s.repomanager.TextBlocks(tx)
		reg := s.registry.WithRepository(s.repomanager.Files(tx))

		current, err := blocks.GetByID(ctx, block.ID)
		if err != nil {
			return err
		}

		if block.Name != current.Name {
			if other, err := blocks.GetByName(ctx, block.Name); err == nil && other.ID != block.ID {
				return fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}

		block.Image = current.Image
		if image != nil {
			f, err := reg.Replace(ctx, current.OwnerRef(), image)
			if err != nil {
				return err
			}
			file = f
			block.Image = f.Address
		}

		updated, err = blocks.Update(ctx, block)
		return err
	})
	if err != nil {
		if file != nil {
			s.registry.Discard(ctx, file)
		}
		return nil, fmt.Errorf("update text block %d: %w", block.ID, err)
	}
	return updated, nil
}

// Delete orphans the block's image and removes the block.
func (s *TextBlockService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		blocks := s.repomanager.TextBlocks(tx)
		reg := s.registry.WithRepository(s.repomanager.Files(tx))

		current, err := blocks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := reg.Release(ctx, current.OwnerRef()); err != nil {
			return err
		}
		return blocks.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete text block %d: %w", id, err)
	}

	s.logger.Info(ctx, "text block deleted", "id", id)
	return nil
}

func (s *TextBlockService) GetByID(ctx context.Context, id int64) (*models.TextBlock, error) {
	return s.repomanager.TextBlocks(s.db).GetByID(ctx, id)
}

func (s *TextBlockService) List(ctx context.Context) ([]*models.TextBlock, error) {
	return s.repomanager.TextBlocks(s.db).List(ctx)
}

func (s *TextBlockService) ListByGroup(ctx context.Context, group string) ([]*models.TextBlock, error) {
	return s.repomanager.TextBlocks(s.db).ListByGroup(ctx, group)
}
