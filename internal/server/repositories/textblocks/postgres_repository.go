package textblocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

const blockColumns = `id, name, title, image, text, group_name, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(row scanner) (*models.TextBlock, error) {
	var (
		b     models.TextBlock
		image sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &b.Title, &image, &b.Text, &b.Group, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Image = image.String
	return &b, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	query := `INSERT INTO text_blocks (name, title, image, text, group_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + blockColumns

	b, err := scanBlock(r.db.QueryRowContext(ctx, query,
		block.Name, block.Title, nullable(block.Image), block.Text, block.Group))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.TextBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM text_blocks WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.TextBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM text_blocks WHERE name = $1`
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.TextBlock, error) {
	b, err := scanBlock(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.TextBlock, error) {
	return r.selectBlocks(ctx, `SELECT `+blockColumns+` FROM text_blocks ORDER BY id`)
}

func (r *PostgresRepository) ListByGroup(ctx context.Context, group string) ([]*models.TextBlock, error) {
	return r.selectBlocks(ctx, `SELECT `+blockColumns+` FROM text_blocks WHERE group_name = $1 ORDER BY id`, group)
}

func (r *PostgresRepository) selectBlocks(ctx context.Context, query string, args ...any) ([]*models.TextBlock, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select text blocks: %w", common.WrapTimeout(err))
	}
	defer rows.Close()

	var result []*models.TextBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapTimeout(err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, block *models.TextBlock) (*models.TextBlock, error) {
	query := `UPDATE text_blocks
		SET name = $2, title = $3, image = $4, text = $5, group_name = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + blockColumns

	b, err := scanBlock(r.db.QueryRowContext(ctx, query,
		block.ID, block.Name, block.Title, nullable(block.Image), block.Text, block.Group))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrorNotFound
		case dbx.IsUniqueViolation(err):
			return nil, fmt.Errorf("text block %q: %w", block.Name, common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return b, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM text_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete text block: %w", common.WrapTimeout(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
