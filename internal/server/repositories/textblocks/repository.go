// Package textblocks persists the text blocks that own images.
package textblocks

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error)
	GetByID(ctx context.Context, id int64) (*models.TextBlock, error)
	GetByName(ctx context.Context, name string) (*models.TextBlock, error)
	List(ctx context.Context) ([]*models.TextBlock, error)
	ListByGroup(ctx context.Context, group string) ([]*models.TextBlock, error)
	Update(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error)
	Delete(ctx context.Context, id int64) error
}
