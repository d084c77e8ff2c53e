package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/whistles/internal/dbx"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/records"
)

// RepositoryManager vends repositories bound to either a pool or a
// transaction, and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
}
