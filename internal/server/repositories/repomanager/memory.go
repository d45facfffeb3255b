package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/courses"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/distributions"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/memory"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one memory.Store.
// The db argument is ignored; pair it with dbx.LocalTransactor.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Distributions(dbx.DBTX) distributions.Repository {
	return m.store.Distributions()
}

func (m *MemoryRepositoryManager) Courses(dbx.DBTX) courses.Repository {
	return m.store.Courses()
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
