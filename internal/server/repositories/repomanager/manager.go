package repomanager

import (
	"context"
	"database/sql"

	"github.com/synchub/backend/internal/dbx"
	"github.com/synchub/backend/internal/server/repositories/files"
	"github.com/synchub/backend/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository code inside and outside a transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
