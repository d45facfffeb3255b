package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/courses"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/distributions"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a
// transaction handed out by a dbx.Transactor.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Distributions(db dbx.DBTX) distributions.Repository
	Courses(db dbx.DBTX) courses.Repository
}
