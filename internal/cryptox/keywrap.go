package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// wrapVersion prefixes every wrapped key blob so the format can evolve.
const wrapVersion byte = 0x01

// wrapAAD binds blobs to their purpose; a blob sealed for another use of
// the same master key will not open here.
var wrapAAD = []byte("sharevault/file-key/v1")

// MasterKeySize is the length of the key-encryption key.
const MasterKeySize = chacha20poly1305.KeySize

// WrapKey seals fileKey under masterKey with XChaCha20-Poly1305.
//
// Layout: version(1) || nonce(24) || sealed(len(fileKey)+16).
func WrapKey(masterKey, fileKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	nonce, err := common.RandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(nonce)+len(fileKey)+aead.Overhead())
	out = append(out, wrapVersion)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, fileKey, wrapAAD), nil
}

// UnwrapKey opens a blob produced by WrapKey. Any malformed, truncated,
// tampered or foreign blob fails with common.ErrKeyUnwrap.
func UnwrapKey(masterKey, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad master key", common.ErrKeyUnwrap)
	}

	if len(blob) < 1+chacha20poly1305.NonceSizeX+aead.Overhead() {
		return nil, fmt.Errorf("%w: blob too short", common.ErrKeyUnwrap)
	}
	if blob[0] != wrapVersion {
		return nil, fmt.Errorf("%w: unknown version", common.ErrKeyUnwrap)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	sealed := blob[1+chacha20poly1305.NonceSizeX:]

	key, err := aead.Open(nil, nonce, sealed, wrapAAD)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", common.ErrKeyUnwrap)
	}
	return key, nil
}
