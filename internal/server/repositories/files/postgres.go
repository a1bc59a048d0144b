package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/synchub/backend/internal/common"
	"github.com/synchub/backend/internal/dbx"
	"github.com/synchub/backend/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, filename, title, description, folder, size, device_name, user_id, storage_key, created_at`

// Insert writes a new file metadata row. The caller generates the ID.
func (r *PostgresRepository) Insert(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO files (id, filename, title, description, folder, size, device_name, user_id, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.Filename, file.Title, file.Description, file.Folder,
		file.Size, file.DeviceName, file.UserID, file.StorageKey, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByIDAndOwner returns the row matching both the file ID and the owner,
// or common.ErrNotFound.
func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`

	file := &models.FileRecord{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&file.ID, &file.Filename, &file.Title, &file.Description, &file.Folder,
		&file.Size, &file.DeviceName, &file.UserID, &file.StorageKey, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// ListByOwner returns all file rows visible to the owner, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 ORDER BY created_at DESC`
	return r.selectFiles(ctx, query, userID)
}

// ListByOwnerAndFolder returns the owner's rows in one folder, newest first.
// Callers resolve folder aliases and invoke this once per prefix.
func (r *PostgresRepository) ListByOwnerAndFolder(ctx context.Context, userID, folder string) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND folder = $2 ORDER BY created_at DESC`
	return r.selectFiles(ctx, query, userID, folder)
}

// SelectAll returns every file row. Used by the reconciliation sweep.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files`
	return r.selectFiles(ctx, query)
}

func (r *PostgresRepository) selectFiles(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		var item models.FileRecord
		if err := rows.Scan(
			&item.ID, &item.Filename, &item.Title, &item.Description, &item.Folder,
			&item.Size, &item.DeviceName, &item.UserID, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateLocation rewrites the folder and storage key of the owner's row.
// Exactly one row must be affected, otherwise common.ErrNotFound.
func (r *PostgresRepository) UpdateLocation(ctx context.Context, id, userID, folder, storageKey string) error {
	query := `UPDATE files SET folder = $1, storage_key = $2 WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, folder, storageKey, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update file location: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the row by ID. Deleting an absent row is not an error;
// delete is idempotent at this layer.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
