// Package cryptox holds the server-side cipher primitives: the AES-256-CBC
// file layer applied over client ciphertext, and the authenticated wrap used
// to protect per-file keys under the master key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/common"
)

const (
	// FileKeySize is the per-file AES-256 key length.
	FileKeySize = 32
	// IVSize is the CBC initialization vector length (one AES block).
	IVSize = aes.BlockSize
)

// GenerateFileKey returns a fresh 32-byte key from the CSPRNG.
func GenerateFileKey() ([]byte, error) {
	return common.RandomBytes(FileKeySize)
}

// GenerateIV returns a fresh 16-byte IV from the CSPRNG. Callers must not
// reuse an IV under the same key.
func GenerateIV() ([]byte, error) {
	return common.RandomBytes(IVSize)
}

// EncryptPayload PKCS#7-pads data to the AES block size and encrypts it in
// CBC mode. The output is deterministic for fixed (data, key, iv), so the IV
// must be fresh per call. The result length is always a multiple of 16.
func EncryptPayload(data, key, iv []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(data, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// DecryptPayload reverses EncryptPayload.
//
// It fails with common.ErrDecryption when the ciphertext is empty or not
// block-aligned, or when the recovered padding is malformed. The error never
// includes any recovered bytes.
func DecryptPayload(ciphertext, key, iv []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block aligned", common.ErrDecryption)
	}

	block, err := newBlock(key, iv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		common.WipeByteArray(plain)
		return nil, err
	}
	return out, nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != FileKeySize {
		return nil, fmt.Errorf("invalid key size %d", len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("invalid iv size %d", len(iv))
	}
	return aes.NewCipher(key)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
	}
	// every pad byte must carry the pad length
	var bad byte
	for _, b := range data[len(data)-n:] {
		bad |= b ^ byte(n)
	}
	if bad != 0 {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
	}
	return data[:len(data)-n], nil
}
