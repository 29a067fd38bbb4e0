package keys

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/sharevault/internal/common"
)

// Store persists the single master key.
//
// Load returns common.ErrorNotFound while no key exists. CreateIfAbsent
// stores key only if none is present and returns whichever key ended up
// stored, so concurrent first runs converge on one key.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error)
}

// MemoryStore keeps the key in process memory. Used in tests and in
// development mode.
type MemoryStore struct {
	mu  sync.Mutex
	key []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), s.key...), nil
}

func (s *MemoryStore) CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		s.key = append([]byte(nil), key...)
	}
	return append([]byte(nil), s.key...), nil
}

// FileStore keeps the key base64-encoded in a 0600 file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read master key: %w: %w", common.ErrStorageFault, err)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("master key file %s is not valid base64", s.path)
	}
	return key, nil
}

// CreateIfAbsent writes the key to a temp file in the target directory and
// hard-links it into place. Link fails if the target exists, which makes the
// create atomic across processes.
func (s *FileStore) CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w: %w", dir, common.ErrStorageFault, err)
	}

	tmp, err := os.CreateTemp(dir, ".master-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp key: %w: %w", common.ErrStorageFault, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeKeyFile(tmp, key); err != nil {
		return nil, fmt.Errorf("write temp key: %w: %w", common.ErrStorageFault, err)
	}

	if err := os.Link(tmpName, s.path); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("link master key: %w: %w", common.ErrStorageFault, err)
	}

	return s.Load(ctx)
}

func writeKeyFile(f *os.File, key []byte) error {
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return err
	}
	if _, err := f.WriteString(base64.StdEncoding.EncodeToString(key) + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
