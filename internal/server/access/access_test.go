package access

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func share(mut ...func(*models.Share)) *models.Share {
	s := &models.Share{
		ID:              "s1",
		FileID:          "f1",
		GrantedBy:       "owner",
		MaxDownloads:    3,
		DownloadEnabled: true,
	}
	for _, m := range mut {
		m(s)
	}
	return s
}

func requireDenied(t *testing.T, err error, want common.DenialReason) {
	t.Helper()
	reason, ok := common.IsForbidden(err)
	require.True(t, ok, "expected forbidden, got %v", err)
	assert.Equal(t, want, reason)
}

func TestAuthorize_MissingShareIsNotFound(t *testing.T) {
	err := Authorize(nil, "u", models.CapabilityView, now)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthorize_ExpiryTakesPrecedence(t *testing.T) {
	variants := []func(*models.Share){
		func(s *models.Share) {},
		func(s *models.Share) { s.DownloadEnabled = false },
		func(s *models.Share) { s.DownloadsUsed = s.MaxDownloads },
		func(s *models.Share) { s.GranteeID = strPtr("someone-else") },
	}
	for _, v := range variants {
		s := share(v, func(s *models.Share) { s.ExpiresAt = timePtr(now.Add(-time.Second)) })
		for _, c := range []models.Capability{models.CapabilityView, models.CapabilityDownload} {
			requireDenied(t, Authorize(s, "u", c, now), common.DenialExpired)
		}
	}
}

func TestAuthorize_ExpiryBoundaryIsExpired(t *testing.T) {
	s := share(func(s *models.Share) { s.ExpiresAt = timePtr(now) })
	requireDenied(t, Authorize(s, "", models.CapabilityView, now), common.DenialExpired)

	s.ExpiresAt = timePtr(now.Add(time.Nanosecond))
	assert.NoError(t, Authorize(s, "", models.CapabilityView, now))
}

func TestAuthorize_GranteeMatching(t *testing.T) {
	s := share(func(s *models.Share) { s.GranteeID = strPtr("bob") })

	assert.NoError(t, Authorize(s, "bob", models.CapabilityDownload, now))
	requireDenied(t, Authorize(s, "eve", models.CapabilityView, now), common.DenialUnauthorized)
	requireDenied(t, Authorize(s, "", models.CapabilityView, now), common.DenialUnauthorized)
	// the granter is not the grantee
	requireDenied(t, Authorize(s, "owner", models.CapabilityView, now), common.DenialUnauthorized)
}

func TestAuthorize_PublicAllowsAnyone(t *testing.T) {
	s := share()
	assert.NoError(t, Authorize(s, "", models.CapabilityDownload, now))
	assert.NoError(t, Authorize(s, "anybody", models.CapabilityDownload, now))
}

func TestAuthorize_DisabledAllowsViewOnly(t *testing.T) {
	s := share(func(s *models.Share) { s.DownloadEnabled = false })

	assert.NoError(t, Authorize(s, "", models.CapabilityView, now))
	requireDenied(t, Authorize(s, "", models.CapabilityDownload, now), common.DenialDisabled)
}

func TestAuthorize_DisabledCheckedBeforeQuota(t *testing.T) {
	s := share(func(s *models.Share) {
		s.DownloadEnabled = false
		s.DownloadsUsed = 3
	})
	requireDenied(t, Authorize(s, "", models.CapabilityDownload, now), common.DenialDisabled)
}

func TestAuthorize_Quota(t *testing.T) {
	s := share(func(s *models.Share) { s.MaxDownloads = 2 })

	for i := 0; i < 2; i++ {
		require.NoError(t, Authorize(s, "", models.CapabilityDownload, now))
		s.DownloadsUsed++
	}
	requireDenied(t, Authorize(s, "", models.CapabilityDownload, now), common.DenialExhausted)
	assert.NoError(t, Authorize(s, "", models.CapabilityView, now), "view is not quota bound")

	zero := share(func(s *models.Share) { s.MaxDownloads = 0 })
	requireDenied(t, Authorize(zero, "", models.CapabilityDownload, now), common.DenialExhausted)

	unlimited := share(func(s *models.Share) {
		s.MaxDownloads = models.UnlimitedDownloads
		s.DownloadsUsed = 10_000
	})
	assert.NoError(t, Authorize(unlimited, "", models.CapabilityDownload, now))
}

func TestState(t *testing.T) {
	tests := []struct {
		name string
		s    *models.Share
		want models.ShareState
	}{
		{"active", share(), models.ShareActive},
		{"disabled", share(func(s *models.Share) { s.DownloadEnabled = false }), models.ShareDisabled},
		{"exhausted", share(func(s *models.Share) { s.DownloadsUsed = 3 }), models.ShareDownloadsExhausted},
		{"exhausted wins over disabled", share(func(s *models.Share) {
			s.DownloadsUsed = 3
			s.DownloadEnabled = false
		}), models.ShareDownloadsExhausted},
		{"expired wins", share(func(s *models.Share) {
			s.DownloadsUsed = 3
			s.ExpiresAt = timePtr(now.Add(-time.Minute))
		}), models.ShareExpired},
		{"future expiry is active", share(func(s *models.Share) { s.ExpiresAt = timePtr(now.Add(time.Minute)) }), models.ShareActive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, State(tc.s, now))
		})
	}
}

func TestCanToggle(t *testing.T) {
	assert.True(t, CanToggle(share(), now))
	assert.True(t, CanToggle(share(func(s *models.Share) { s.DownloadEnabled = false }), now))
	assert.False(t, CanToggle(share(func(s *models.Share) { s.DownloadsUsed = 3 }), now))
	assert.False(t, CanToggle(share(func(s *models.Share) { s.ExpiresAt = timePtr(now) }), now))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 3, Remaining(share()))
	assert.Equal(t, 0, Remaining(share(func(s *models.Share) { s.DownloadsUsed = 5 })))
	assert.Equal(t, -1, Remaining(share(func(s *models.Share) { s.MaxDownloads = -1 })))
}
