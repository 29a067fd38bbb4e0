package repomanager

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/masterkeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a
// transaction handle. Conn returns the default handle; InTx runs fn against
// a transactional one.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	MasterKeys(db dbx.DBTX) masterkeys.Repository
}
