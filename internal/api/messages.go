// Package api holds the ShareVault wire contract shared by the gRPC server
// and its clients: the service name, the message types and the JSON codec
// that carries them.
package api

import "time"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sharevault.ShareVault"

// FullMethod returns the gRPC method path of name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type Empty struct{}

type UploadFileRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
	ClientIV []byte `json:"client_iv"`
	Data     []byte `json:"data"`
}

type FileMessage struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mime_type"`
	OriginalSize int64     `json:"original_size"`
	ClientIV     []byte    `json:"client_iv"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListFilesResponse struct {
	Files []FileMessage `json:"files"`
}

type FileRequest struct {
	FileID string `json:"file_id"`
}

type FileContentResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	ClientIV []byte `json:"client_iv"`
	Data     []byte `json:"data"`
}

type CreateShareRequest struct {
	FileID          string     `json:"file_id"`
	GranteeID       *string    `json:"grantee_id,omitempty"`
	GranteeUsername string     `json:"grantee_username,omitempty"`
	MaxDownloads    *int       `json:"max_downloads,omitempty"`
	DownloadEnabled bool       `json:"download_enabled"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ExpiryMinutes   *int       `json:"expiry_minutes,omitempty"`
}

type UpdateShareRequest struct {
	ShareID         string     `json:"share_id"`
	MaxDownloads    *int       `json:"max_downloads,omitempty"`
	DownloadEnabled *bool      `json:"download_enabled,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ExpiryMinutes   *int       `json:"expiry_minutes,omitempty"`
	ClearExpiry     bool       `json:"clear_expiry,omitempty"`
}

type SetShareDownloadRequest struct {
	ShareID string `json:"share_id"`
	Enabled bool   `json:"enabled"`
}

type ShareRequest struct {
	ShareID string `json:"share_id"`
}

type ShareMessage struct {
	ID               string     `json:"id"`
	FileID           string     `json:"file_id"`
	GranteeID        *string    `json:"grantee_id,omitempty"`
	MaxDownloads     int        `json:"max_downloads"`
	DownloadsUsed    int        `json:"downloads_used"`
	Remaining        int        `json:"remaining"`
	DownloadEnabled  bool       `json:"download_enabled"`
	State            string     `json:"state"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ListSharesResponse struct {
	Shares []ShareMessage `json:"shares"`
}

type ShareInfoResponse struct {
	ShareID         string     `json:"share_id"`
	FileID          string     `json:"file_id"`
	Filename        string     `json:"filename"`
	MimeType        string     `json:"mime_type"`
	OriginalSize    int64      `json:"original_size"`
	DownloadEnabled bool       `json:"download_enabled"`
	Remaining       int        `json:"remaining"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}
