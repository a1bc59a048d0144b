package files

import (
	"context"

	"github.com/synchub/backend/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, file *models.FileRecord) error
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.FileRecord, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.FileRecord, error)
	ListByOwnerAndFolder(ctx context.Context, userID, folder string) ([]*models.FileRecord, error)
	UpdateLocation(ctx context.Context, id, userID, folder, storageKey string) error
	Delete(ctx context.Context, id string) error
	SelectAll(ctx context.Context) ([]*models.FileRecord, error)
}
