// Package access is the share-grant state machine. It is pure: every
// function takes the share and the current time and touches no storage, so
// the same rules apply to Postgres and in-memory repositories alike.
//
// Expiry is evaluated lazily here at the point of use; nothing sweeps
// expired rows in the background.
package access

import (
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// Expired reports whether the share's expiry is at or before now.
func Expired(s *models.Share, now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// QuotaRemains reports whether another download fits under MaxDownloads.
func QuotaRemains(s *models.Share) bool {
	return s.MaxDownloads == models.UnlimitedDownloads || s.DownloadsUsed < s.MaxDownloads
}

// Remaining returns the downloads left, or -1 when unlimited.
func Remaining(s *models.Share) int {
	if s.MaxDownloads == models.UnlimitedDownloads {
		return models.UnlimitedDownloads
	}
	if n := s.MaxDownloads - s.DownloadsUsed; n > 0 {
		return n
	}
	return 0
}

// State derives the lifecycle state. Revoked shares no longer exist, so
// there is no state for them.
func State(s *models.Share, now time.Time) models.ShareState {
	switch {
	case Expired(s, now):
		return models.ShareExpired
	case !QuotaRemains(s):
		return models.ShareDownloadsExhausted
	case !s.DownloadEnabled:
		return models.ShareDisabled
	default:
		return models.ShareActive
	}
}

// Authorize decides whether requesterID may exercise capability on s.
// An empty requesterID is an anonymous caller.
//
// Checks run in a fixed order and the first failure wins:
// existence, expiry, grantee match, then for downloads the enabled flag
// and the quota.
func Authorize(s *models.Share, requesterID string, capability models.Capability, now time.Time) error {
	if s == nil {
		return common.ErrorNotFound
	}

	if Expired(s, now) {
		return common.Forbidden(common.DenialExpired)
	}

	// a designated grantee always wins over public access
	if s.GranteeID != nil && *s.GranteeID != requesterID {
		return common.Forbidden(common.DenialUnauthorized)
	}

	if capability != models.CapabilityDownload {
		return nil
	}

	if !s.DownloadEnabled {
		return common.Forbidden(common.DenialDisabled)
	}
	if !QuotaRemains(s) {
		return common.Forbidden(common.DenialExhausted)
	}
	return nil
}

// CanToggle reports whether the owner's enable/disable toggle has any
// effect. Expired and exhausted shares ignore it.
func CanToggle(s *models.Share, now time.Time) bool {
	st := State(s, now)
	return st == models.ShareActive || st == models.ShareDisabled
}
