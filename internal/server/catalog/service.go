// Package catalog implements the file catalog: the reconciliation layer that
// keeps relational file metadata and object-store bytes consistent across
// upload, list, download, move and delete.
//
// Writes are two-phase: bytes first, metadata second. Reads self-heal; a
// metadata row whose object has vanished is deleted on the failed fetch. The
// leftovers of interrupted writes (objects with no row) are swept by
// Reconcile.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/synchub/backend/internal/common"
	"github.com/synchub/backend/internal/dbx"
	"github.com/synchub/backend/internal/logging"
	"github.com/synchub/backend/internal/server/folders"
	"github.com/synchub/backend/internal/server/models"
	"github.com/synchub/backend/internal/server/objkey"
	"github.com/synchub/backend/internal/server/objstore"
	"github.com/synchub/backend/internal/server/repositories/repomanager"
)

// Object user-metadata keys written at upload time. MetaFileID makes the
// canonical ID recoverable without parsing the object key.
const (
	MetaFileID      = "file-id"
	MetaTitle       = "title"
	MetaDescription = "description"
	MetaFilename    = "original-filename"
	MetaFolder      = "folder"
	MetaDeviceName  = "device-name"
	MetaUploadTime  = "upload-time"
)

// UploadRequest carries the client-supplied parts of an upload.
type UploadRequest struct {
	Data        []byte
	Filename    string
	Title       string
	Description string
	Folder      string
	DeviceName  string
	ContentType string
}

// DownloadResult bundles the bytes and the headers a transport needs.
type DownloadResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ReconcileReport summarizes one reconciliation sweep.
type ReconcileReport struct {
	// StaleRows is the number of metadata rows deleted because their object
	// was gone.
	StaleRows int
	// OrphanObjects is the number of stored objects with no metadata row.
	// They are reported, not deleted; an upload may be mid-flight.
	OrphanObjects int
}

// Service is the canonical file catalog implementation.
type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  objstore.Store
	logger logging.Logger
	now    func() time.Time
}

// NewService constructs a catalog Service.
func NewService(db *sql.DB, repos repomanager.RepositoryManager, store objstore.Store, logger logging.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		store:  store,
		logger: logger.With("module", "catalog"),
		now:    time.Now,
	}
}

// Upload stores the file bytes and then the metadata row. If the object write
// fails no row is created and the call fails with ErrUploadFailed. If the
// row write fails the orphaned object is left in place for Reconcile.
func (s *Service) Upload(ctx context.Context, userID string, req *UploadRequest) (*models.FileRecord, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("%w: empty filename", common.ErrValidation)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrValidation)
	}

	folder := folders.Normalize(req.Folder)
	title := req.Title
	if title == "" {
		title = req.Filename
	}

	id := uuid.NewString()
	key := objkey.DeriveKey(id, folder, req.Filename)
	now := s.now().UTC()

	metadata := map[string]string{
		MetaFileID:      id,
		MetaTitle:       title,
		MetaDescription: req.Description,
		MetaFilename:    req.Filename,
		MetaFolder:      folder,
		MetaDeviceName:  req.DeviceName,
		MetaUploadTime:  now.Format(time.RFC3339),
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = objstore.InferContentType(req.Filename)
	}

	if err := s.store.Put(ctx, key, req.Data, contentType, metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	record := &models.FileRecord{
		ID:          id,
		Filename:    req.Filename,
		Title:       title,
		Description: req.Description,
		Folder:      folder,
		Size:        int64(len(req.Data)),
		DeviceName:  req.DeviceName,
		UserID:      userID,
		StorageKey:  key,
		CreatedAt:   now,
	}

	if err := s.repos.Files(s.db).Insert(ctx, record); err != nil {
		// The object is already stored; leave it for the reconcile sweep.
		s.logger.Warn(ctx, "metadata write failed after object write", "key", key, "error", err)
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return record, nil
}

// List returns all FileRecords owned by userID. Pure metadata read, the
// object store is not contacted.
func (s *Service) List(ctx context.Context, userID string) ([]*models.FileRecord, error) {
	result, err := s.repos.Files(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return result, nil
}

// ListByFolder returns the owner's files in the requested folder, resolving
// folder aliases so files classified under either naming generation are
// found. Pure metadata read.
func (s *Service) ListByFolder(ctx context.Context, userID, folder string) ([]*models.FileRecord, error) {
	repo := s.repos.Files(s.db)

	var result []*models.FileRecord
	seen := make(map[string]struct{})
	for _, prefix := range folders.SearchPrefixes(folder) {
		items, err := repo.ListByOwnerAndFolder(ctx, userID, prefix)
		if err != nil {
			return nil, fmt.Errorf("error listing folder %q: %w", prefix, err)
		}
		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			result = append(result, item)
		}
	}
	return result, nil
}

// GetDetails returns the record matching both ID and owner.
func (s *Service) GetDetails(ctx context.Context, id, userID string) (*models.FileRecord, error) {
	record, err := s.repos.Files(s.db).GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Download resolves the metadata row and fetches the bytes by the stored key.
// A missing object means the two stores diverged: the stale row is deleted
// and the call fails with ErrNotFound.
func (s *Service) Download(ctx context.Context, id, userID string) (*DownloadResult, error) {
	repo := s.repos.Files(s.db)

	record, err := repo.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	data, info, err := s.store.Get(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Self-healing read: drop the row pointing at a vanished object.
			s.logger.Warn(ctx, "purging stale metadata row", "id", id, "key", record.StorageKey)
			if delErr := repo.Delete(ctx, id); delErr != nil {
				s.logger.Error(ctx, "failed to purge stale row", "id", id, "error", delErr)
			}
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching object: %w", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = objstore.InferContentType(record.Filename)
	}

	return &DownloadResult{Data: data, ContentType: contentType, Filename: record.Filename}, nil
}

// Move reclassifies a file into newFolder: copy to the new key, verify,
// update the row in one transaction, then delete the old object. The old
// object is never deleted before the new one is confirmed written. Moving a
// file into its current folder is a no-op.
func (s *Service) Move(ctx context.Context, id, userID, newFolder string) (*models.FileRecord, error) {
	record, err := s.repos.Files(s.db).GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	folder := folders.Normalize(newFolder)
	if folder == record.Folder {
		return record, nil
	}

	oldKey := record.StorageKey
	newKey := objkey.DeriveKey(record.ID, folder, record.Filename)

	if err := s.store.Copy(ctx, oldKey, newKey); err != nil {
		return nil, fmt.Errorf("%w: copy: %v", common.ErrMoveFailed, err)
	}
	if _, err := s.store.Stat(ctx, newKey); err != nil {
		return nil, fmt.Errorf("%w: verify: %v", common.ErrMoveFailed, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Files(tx).UpdateLocation(ctx, record.ID, userID, folder, newKey)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: metadata update: %v", common.ErrMoveFailed, err)
	}

	// Old object removal is best-effort; a leftover is picked up by Reconcile.
	if err := s.store.Delete(ctx, oldKey); err != nil {
		s.logger.Warn(ctx, "failed to delete old object after move", "key", oldKey, "error", err)
	}

	record.Folder = folder
	record.StorageKey = newKey
	return record, nil
}

// Delete removes the object and then the metadata row. The row is deleted
// regardless of whether the object delete reports success; a missing object
// is not an error at delete time.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	repo := s.repos.Files(s.db)

	record, err := repo.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, record.StorageKey); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "object delete failed, removing row anyway", "key", record.StorageKey, "error", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}
	return nil
}

// Reconcile compares every metadata row against the object store. Rows whose
// object is gone are deleted; objects with no row are counted and logged.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	repo := s.repos.Files(s.db)

	records, err := repo.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error selecting records: %w", err)
	}

	objects, err := s.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error listing objects: %w", err)
	}

	stored := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		stored[obj.Key] = struct{}{}
	}

	report := &ReconcileReport{}

	referenced := make(map[string]struct{}, len(records))
	for _, record := range records {
		referenced[record.StorageKey] = struct{}{}
		if _, ok := stored[record.StorageKey]; ok {
			continue
		}
		s.logger.Warn(ctx, "reconcile: purging stale row", "id", record.ID, "key", record.StorageKey)
		if err := repo.Delete(ctx, record.ID); err != nil {
			s.logger.Error(ctx, "reconcile: failed to purge row", "id", record.ID, "error", err)
			continue
		}
		report.StaleRows++
	}

	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; !ok {
			s.logger.Warn(ctx, "reconcile: orphaned object", "key", obj.Key, "size", obj.Size)
			report.OrphanObjects++
		}
	}

	return report, nil
}
