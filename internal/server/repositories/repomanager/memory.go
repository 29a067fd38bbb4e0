package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/masterkeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/memory"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves repositories over a memory.DB. The DBTX
// arguments are ignored. InTx only serializes transactions against each
// other; it does not roll back.
type InMemoryRepositoryManager struct {
	txMu sync.Mutex
	db   *memory.DB
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{db: memory.NewDB()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Conn() dbx.DBTX {
	return nil
}

func (m *InMemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUserRepository(m.db)
}

func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository {
	return memory.NewFileRepository(m.db)
}

func (m *InMemoryRepositoryManager) Shares(dbx.DBTX) shares.Repository {
	return memory.NewShareRepository(m.db)
}

func (m *InMemoryRepositoryManager) MasterKeys(dbx.DBTX) masterkeys.Repository {
	return memory.NewMasterKeyRepository(m.db)
}
