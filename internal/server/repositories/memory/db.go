// Package memory holds in-process repository implementations backed by maps.
// They mirror the PostgreSQL constraints the services rely on: unique
// usernames, one targeted share per (file, grantee), share removal when the
// file goes, and an atomic quota-checked download counter.
//
// Writes are applied immediately, so a transaction that fails halfway is not
// rolled back.
package memory

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// DB is the shared state behind all memory repositories.
type DB struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	users     map[string]*models.User
	files     map[string]*fileRow
	shares    map[string]*shareRow
	masterKey []byte
}

type fileRow struct {
	f   models.File
	seq int64
}

type shareRow struct {
	s   models.Share
	seq int64
}

// NewDB returns an empty store.
func NewDB() *DB {
	return &DB{
		now:    time.Now,
		users:  make(map[string]*models.User),
		files:  make(map[string]*fileRow),
		shares: make(map[string]*shareRow),
	}
}

func (d *DB) next() int64 {
	d.seq++
	return d.seq
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFile(f *models.File) *models.File {
	out := *f
	out.ClientIV = cloneBytes(f.ClientIV)
	out.ServerIV = cloneBytes(f.ServerIV)
	out.WrappedKey = cloneBytes(f.WrappedKey)
	return &out
}

func cloneShare(s *models.Share) *models.Share {
	out := *s
	out.GranteeID = cloneString(s.GranteeID)
	out.ExpiresAt = cloneTime(s.ExpiresAt)
	out.LastDownloadedAt = cloneTime(s.LastDownloadedAt)
	return &out
}
