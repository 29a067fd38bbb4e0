// Package vault is the client-side encryption layer. Files are sealed with
// a key that never leaves the client before they are uploaded, so the
// server only ever stores ciphertext it cannot read.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/server/keys"
)

// KeyStore persists the client key. keys.FileStore is the usual choice.
type KeyStore interface {
	Load(ctx context.Context) ([]byte, error)
	CreateIfAbsent(ctx context.Context, key []byte) ([]byte, error)
}

type Vault struct {
	key []byte
}

// Open loads the client key from ks, generating one on first use.
func Open(ctx context.Context, ks KeyStore) (*Vault, error) {
	key, err := ks.Load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		fresh, genErr := cryptox.GenerateFileKey()
		if genErr != nil {
			return nil, genErr
		}
		key, err = ks.CreateIfAbsent(ctx, fresh)
	}
	if err != nil {
		return nil, fmt.Errorf("load client key: %w", err)
	}
	if len(key) != cryptox.FileKeySize {
		return nil, fmt.Errorf("client key has %d bytes, want %d", len(key), cryptox.FileKeySize)
	}
	return &Vault{key: key}, nil
}

// OpenFile is Open over a key file at path.
func OpenFile(ctx context.Context, path string) (*Vault, error) {
	return Open(ctx, keys.NewFileStore(path))
}

// Seal encrypts data under a fresh IV and returns both.
func (v *Vault) Seal(data []byte) (iv, ciphertext []byte, err error) {
	iv, err = cryptox.GenerateIV()
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = cryptox.EncryptPayload(data, v.key, iv)
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}

// Unseal reverses Seal.
func (v *Vault) Unseal(iv, ciphertext []byte) ([]byte, error) {
	return cryptox.DecryptPayload(ciphertext, v.key, iv)
}
