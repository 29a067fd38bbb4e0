// Package repomanager provides RepositoryManager implementations: a
// PostgreSQL one wiring repository constructors and goose migrations, and
// an in-memory one for development and tests.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/migrations"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/masterkeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, dbx.StorageFault("open db", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dbx.StorageFault("ping db", err)
	}
	return db, nil
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX {
	return m.db
}

// InTx runs fn in a read-committed transaction.
func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Files returns a files.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// Shares returns a shares.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Shares(db dbx.DBTX) shares.Repository {
	return shares.NewPostgresRepository(db)
}

// MasterKeys returns the master key row store bound to the provided DBTX.
func (m *PostgresRepositoryManager) MasterKeys(db dbx.DBTX) masterkeys.Repository {
	return masterkeys.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the manager's database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
