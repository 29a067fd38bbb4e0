// Package storage keeps the server-encrypted file blobs. Blobs are opaque
// ciphertext addressed by a storage key; metadata lives in the database.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/google/uuid"
)

// ObjectStore is a flat key/value blob store.
//
// Get returns common.ErrorNotFound for a missing key. Delete of a missing
// key is not an error. Backend failures wrap common.ErrStorageFault.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh key of the form files/yyyy/mm/dd/<uuid>.
func NewStorageKey(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("files/%04d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), uuid.New())
}

func fault(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageFault, err)
}
