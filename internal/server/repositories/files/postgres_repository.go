package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

const fileColumns = `id, address, owner_table, owner_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*models.StoredFile, error) {
	var (
		f          models.StoredFile
		ownerTable sql.NullString
		ownerID    sql.NullInt64
	)
	if err := row.Scan(&f.ID, &f.Address, &ownerTable, &ownerID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if ownerTable.Valid && ownerID.Valid {
		f.Owner = &models.OwnerRef{Table: ownerTable.String, ID: ownerID.Int64}
	}
	return &f, nil
}

func ownerArgs(owner *models.OwnerRef) (sql.NullString, sql.NullInt64) {
	if owner == nil {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: owner.Table, Valid: true}, sql.NullInt64{Int64: owner.ID, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {
	query := `INSERT INTO files (address, owner_table, owner_id)
		VALUES ($1, $2, $3)
		RETURNING ` + fileColumns

	table, id := ownerArgs(file.Owner)
	created, err := scanFile(r.db.QueryRowContext(ctx, query, file.Address, table, id))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("file %s: %w", file.Address, common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return f, nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, table string, ownerID int64) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_table = $1 AND owner_id = $2
		ORDER BY id DESC
		LIMIT 1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, table, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY id`
	return r.selectFiles(ctx, query)
}

func (r *PostgresRepository) ListOrphans(ctx context.Context, cutoff time.Time) ([]*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_table IS NULL AND owner_id IS NULL AND created_at <= $1
		ORDER BY id`
	return r.selectFiles(ctx, query, cutoff)
}

func (r *PostgresRepository) selectFiles(ctx context.Context, query string, args ...any) ([]*models.StoredFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", common.WrapTimeout(err))
	}
	defer rows.Close()

	var result []*models.StoredFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, common.WrapTimeout(err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateOwner(ctx context.Context, id int64, owner *models.OwnerRef) (*models.StoredFile, error) {
	query := `UPDATE files SET owner_table = $2, owner_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + fileColumns

	table, ownerID := ownerArgs(owner)
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, table, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.WrapTimeout(err))
	}
	return f, nil
}

func (r *PostgresRepository) DeleteOrphan(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM files
		WHERE id = $1 AND owner_table IS NULL AND owner_id IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", common.WrapTimeout(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}
