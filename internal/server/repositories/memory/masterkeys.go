package memory

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/common"
)

type MasterKeyRepository struct {
	db *DB
}

func NewMasterKeyRepository(db *DB) *MasterKeyRepository {
	return &MasterKeyRepository{db: db}
}

func (r *MasterKeyRepository) Load(ctx context.Context) ([]byte, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if r.db.masterKey == nil {
		return nil, common.ErrorNotFound
	}
	return cloneBytes(r.db.masterKey), nil
}

func (r *MasterKeyRepository) CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.masterKey == nil {
		r.db.masterKey = cloneBytes(key)
	}
	return cloneBytes(r.db.masterKey), nil
}
