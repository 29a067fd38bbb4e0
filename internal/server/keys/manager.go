// Package keys owns the master key and the envelope operations built on it.
// The master key never leaves this package: callers only see wrapped blobs
// and per-file keys.
package keys

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
)

// ErrNotInitialized is returned by wrap/unwrap before InitializeMasterKey
// has produced a key in the store.
var ErrNotInitialized = errors.New("master key not initialized")

// Manager implements key management over an injected Store.
type Manager struct {
	store Store

	mu     sync.RWMutex
	master []byte
}

// NewManager returns a Manager over store. Call InitializeMasterKey before
// wrapping or unwrapping.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// InitializeMasterKey loads the master key, creating it first if the store
// has none. It is idempotent and safe to race from several processes.
func (m *Manager) InitializeMasterKey(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.store.Load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		fresh, genErr := common.RandomBytes(cryptox.MasterKeySize)
		if genErr != nil {
			return genErr
		}
		key, err = m.store.CreateIfAbsent(ctx, fresh)
		common.WipeByteArray(fresh)
	}
	if err != nil {
		return fmt.Errorf("initialize master key: %w", err)
	}
	if len(key) != cryptox.MasterKeySize {
		return fmt.Errorf("initialize master key: stored key has %d bytes", len(key))
	}

	m.master = key
	return nil
}

// Invalidate drops the cached master key; the next use reloads it.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.master = nil
}

func (m *Manager) masterKey(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	key := m.master
	m.mu.RUnlock()
	if key != nil {
		return key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.master != nil {
		return m.master, nil
	}

	key, err := m.store.Load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	m.master = key
	return key, nil
}

// GenerateFileKey returns a fresh random per-file key.
func (m *Manager) GenerateFileKey() ([]byte, error) {
	return cryptox.GenerateFileKey()
}

// GenerateIV returns a fresh random IV for the server-side layer.
func (m *Manager) GenerateIV() ([]byte, error) {
	return cryptox.GenerateIV()
}

// WrapKey seals a per-file key under the master key.
func (m *Manager) WrapKey(ctx context.Context, fileKey []byte) ([]byte, error) {
	master, err := m.masterKey(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.WrapKey(master, fileKey)
}

// UnwrapKey recovers a per-file key. Failures wrap common.ErrKeyUnwrap.
func (m *Manager) UnwrapKey(ctx context.Context, blob []byte) ([]byte, error) {
	master, err := m.masterKey(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.UnwrapKey(master, blob)
}

// EncryptPayload applies the server-side AES-CBC layer with key and iv.
func (m *Manager) EncryptPayload(data, key, iv []byte) ([]byte, error) {
	return cryptox.EncryptPayload(data, key, iv)
}

// DecryptPayload removes the server-side layer. Failures wrap
// common.ErrDecryption.
func (m *Manager) DecryptPayload(ciphertext, key, iv []byte) ([]byte, error) {
	return cryptox.DecryptPayload(ciphertext, key, iv)
}
