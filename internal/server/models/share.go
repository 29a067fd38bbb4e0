package models

import "time"

// UnlimitedDownloads is the MaxDownloads sentinel for "no quota".
const UnlimitedDownloads = -1

// Capability is what a requester wants to do with a shared file.
type Capability string

const (
	CapabilityView     Capability = "view"
	CapabilityDownload Capability = "download"
)

// ShareState is the derived lifecycle state of a share.
type ShareState string

const (
	ShareActive             ShareState = "active"
	ShareDownloadsExhausted ShareState = "downloads_exhausted"
	ShareExpired            ShareState = "expired"
	ShareDisabled           ShareState = "disabled"
)

// Share grants a grantee (or anyone holding the token, if GranteeID is nil)
// access to a file under expiry and download limits. ID doubles as the public
// access token.
type Share struct {
	ID        string
	FileID    string
	GrantedBy string
	// GranteeID is nil for a public link.
	GranteeID *string

	MaxDownloads    int
	DownloadsUsed   int
	DownloadEnabled bool

	ExpiresAt        *time.Time
	LastDownloadedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPublic reports whether the share has no designated grantee.
func (s *Share) IsPublic() bool {
	return s.GranteeID == nil
}

// ShareInfo is the view of a share returned to a requester that passed
// Authorize(View).
type ShareInfo struct {
	ShareID         string
	FileID          string
	Filename        string
	MimeType        string
	OriginalSize    int64
	DownloadEnabled bool
	// Remaining is -1 when unlimited.
	Remaining int
	ExpiresAt *time.Time
}
