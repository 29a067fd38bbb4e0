// Package models defines server-side data models persisted in the database.
package models

import "time"

// File is the metadata row of a stored file. The double-encrypted content
// lives in object storage under StorageKey.
//
// WrappedKey and ServerIV are set once at upload and never change.
type File struct {
	ID      string
	OwnerID string

	// Filename is the display name supplied by the uploader.
	Filename string
	MimeType string
	// OriginalSize is the length of the client ciphertext as uploaded.
	OriginalSize int64

	// ClientIV is the IV of the client-side layer, opaque to the server.
	ClientIV []byte
	// ServerIV is the IV of the server-side AES-CBC layer.
	ServerIV []byte
	// WrappedKey is the per-file server key sealed under the master key.
	WrappedKey []byte

	StorageKey string
	CreatedAt  time.Time
}

// FileContent is what a download hands back: the client-layer ciphertext
// together with what the client needs to decrypt it.
type FileContent struct {
	FileID   string
	Filename string
	MimeType string
	ClientIV []byte
	Data     []byte
}
