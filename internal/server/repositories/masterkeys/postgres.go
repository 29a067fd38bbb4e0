// Package masterkeys stores the single master key row in Postgres. It
// satisfies keys.Store, so a cluster of servers sharing one database agrees
// on one key without shared disk.
package masterkeys

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
)

type Repository interface {
	Load(ctx context.Context) ([]byte, error)
	CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context) ([]byte, error) {
	var key []byte
	err := r.db.QueryRowContext(ctx, `SELECT key FROM master_keys WHERE id = 1`).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageFault("db error", err)
	}
	return key, nil
}

// CreateIfAbsent relies on the primary key: a losing concurrent insert is a
// no-op and the follow-up read returns the winner's key.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error) {
	query :=
		`INSERT INTO master_keys (id, key)
		 VALUES (1, $1)
		 ON CONFLICT (id) DO NOTHING
		 `
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return nil, dbx.StorageFault("db error", err)
	}
	return r.Load(ctx)
}
