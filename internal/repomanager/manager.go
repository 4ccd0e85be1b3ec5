package repomanager

import (
	"context"
	"database/sql"

	"github.com/akarpov87/userstore/internal/dbx"
	"github.com/akarpov87/userstore/internal/users"
)

// RepositoryManager vends repositories bound to a database handle and owns
// schema migration.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
