package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/access"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")

	s := f.share(t, CreateShareRequest{FileID: file.ID, DownloadEnabled: true})

	assert.Equal(t, 3, s.MaxDownloads)
	assert.Equal(t, 0, s.DownloadsUsed)
	assert.True(t, s.IsPublic())
	assert.Equal(t, f.owner.ID, s.GrantedBy)
	require.NotNil(t, s.ExpiresAt)
	assert.True(t, s.ExpiresAt.Equal(f.clock.Add(7*24*time.Hour)))
}

func TestCreate_ExpiryPresets(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")

	s := f.share(t, CreateShareRequest{FileID: file.ID, ExpiryMinutes: intPtr(60), ExpiresAt: timePtr(f.clock.Add(time.Minute))})
	assert.True(t, s.ExpiresAt.Equal(f.clock.Add(time.Hour)), "preset wins over explicit expiry")

	_, err := f.shares.Create(context.Background(), f.owner.ID, CreateShareRequest{FileID: file.ID, ExpiryMinutes: intPtr(5)})
	requireInvalid(t, err, common.FieldExpiryMinutes, common.ReasonInvalid)
}

func TestCreate_PastExpiryFails(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")

	_, err := f.shares.Create(context.Background(), f.owner.ID, CreateShareRequest{
		FileID:          file.ID,
		MaxDownloads:    intPtr(1),
		DownloadEnabled: true,
		ExpiresAt:       timePtr(f.clock.Add(-time.Second)),
	})
	requireInvalid(t, err, common.FieldExpiresAt, common.ReasonInPast)

	list, err := f.shares.ListForFile(context.Background(), file.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_OwnerAsGranteeFails(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()

	_, err := f.shares.Create(ctx, f.owner.ID, CreateShareRequest{FileID: file.ID, GranteeID: &f.owner.ID})
	requireInvalid(t, err, common.FieldGrantee, common.ReasonOwnerAsGrantee)

	_, err = f.shares.Create(ctx, f.owner.ID, CreateShareRequest{FileID: file.ID, GranteeUsername: "alice"})
	requireInvalid(t, err, common.FieldGrantee, common.ReasonOwnerAsGrantee)
}

func TestCreate_GranteeResolutionAndUniqueness(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()

	s := f.share(t, CreateShareRequest{FileID: file.ID, GranteeUsername: "bob"})
	require.NotNil(t, s.GranteeID)
	assert.Equal(t, f.bob.ID, *s.GranteeID)

	_, err := f.shares.Create(ctx, f.owner.ID, CreateShareRequest{FileID: file.ID, GranteeID: &f.bob.ID})
	requireInvalid(t, err, common.FieldGrantee, common.ReasonDuplicate)

	_, err = f.shares.Create(ctx, f.owner.ID, CreateShareRequest{FileID: file.ID, GranteeUsername: "nobody"})
	requireInvalid(t, err, common.FieldGrantee, common.ReasonInvalid)

	// public links are not limited
	f.share(t, CreateShareRequest{FileID: file.ID})
	f.share(t, CreateShareRequest{FileID: file.ID})
}

func TestCreate_NotOwnerSeesNotFound(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")

	_, err := f.shares.Create(context.Background(), f.bob.ID, CreateShareRequest{FileID: file.ID})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.shares.Create(context.Background(), f.owner.ID, CreateShareRequest{FileID: "not-a-uuid"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthorize_GranteeMatching(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, GranteeID: &f.bob.ID, DownloadEnabled: true})

	_, err := f.shares.Authorize(ctx, s.ID, f.bob.ID, models.CapabilityDownload)
	require.NoError(t, err)

	_, err = f.shares.Authorize(ctx, s.ID, f.carol.ID, models.CapabilityView)
	requireDenied(t, err, common.DenialUnauthorized)

	_, err = f.shares.Authorize(ctx, s.ID, "", models.CapabilityView)
	requireDenied(t, err, common.DenialUnauthorized)
}

func TestAuthorize_UnknownToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shares.Authorize(ctx, "garbage", "", models.CapabilityView)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.shares.Authorize(ctx, "5b8f1f1e-4c8a-4f55-9b7c-0b6f3d1f2a10", "", models.CapabilityView)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthorize_ExpiryTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	s := f.share(t, CreateShareRequest{
		FileID:          file.ID,
		GranteeID:       &f.bob.ID,
		MaxDownloads:    intPtr(0),
		ExpiryMinutes:   intPtr(1),
		DownloadEnabled: false,
	})

	f.advance(time.Minute)

	for _, requester := range []string{f.bob.ID, f.carol.ID, ""} {
		_, err := f.shares.Authorize(context.Background(), s.ID, requester, models.CapabilityDownload)
		requireDenied(t, err, common.DenialExpired)
	}
}

// Scenario A.
func TestScenario_FiniteQuota(t *testing.T) {
	f := newFixture(t)
	f.shares.defaultExpiry = 0
	file := f.upload(t, "payload")
	ctx := context.Background()

	s := f.share(t, CreateShareRequest{FileID: file.ID, MaxDownloads: intPtr(2), DownloadEnabled: true})
	require.Nil(t, s.ExpiresAt)

	for i := 0; i < 2; i++ {
		_, err := f.shares.Authorize(ctx, s.ID, "", models.CapabilityDownload)
		require.NoError(t, err)
		_, err = f.shares.RecordDownload(ctx, s.ID)
		require.NoError(t, err)
	}

	_, err := f.shares.Authorize(ctx, s.ID, "", models.CapabilityDownload)
	requireDenied(t, err, common.DenialExhausted)

	_, err = f.shares.RecordDownload(ctx, s.ID)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
}

// Scenario B.
func TestScenario_Unlimited(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()

	s := f.share(t, CreateShareRequest{FileID: file.ID, MaxDownloads: intPtr(models.UnlimitedDownloads), DownloadEnabled: true})

	var last *models.Share
	for i := 0; i < 100; i++ {
		_, err := f.shares.Authorize(ctx, s.ID, "", models.CapabilityDownload)
		require.NoError(t, err)
		last, err = f.shares.RecordDownload(ctx, s.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, last.DownloadsUsed)
	require.NotNil(t, last.LastDownloadedAt)
	assert.True(t, last.LastDownloadedAt.Equal(f.clock))
}

// Scenario D.
func TestScenario_DisabledAllowsViewOnly(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()

	s := f.share(t, CreateShareRequest{FileID: file.ID, DownloadEnabled: false})

	info, err := f.shares.Info(ctx, s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, "application/pdf", info.MimeType)
	assert.Equal(t, 3, info.Remaining)
	assert.False(t, info.DownloadEnabled)

	_, err = f.shares.Authorize(ctx, s.ID, "", models.CapabilityDownload)
	requireDenied(t, err, common.DenialDisabled)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, GranteeID: &f.bob.ID})

	requireDenied(t, f.shares.Revoke(ctx, s.ID, f.bob.ID), common.DenialNotOwner)

	require.NoError(t, f.shares.Revoke(ctx, s.ID, f.owner.ID))

	_, err := f.shares.Authorize(ctx, s.ID, f.bob.ID, models.CapabilityView)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, f.shares.Revoke(ctx, s.ID, f.owner.ID), common.ErrorNotFound)
}

func TestSetDownloadEnabled(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, MaxDownloads: intPtr(1)})

	_, err := f.shares.SetDownloadEnabled(ctx, s.ID, f.bob.ID, true)
	requireDenied(t, err, common.DenialNotOwner)

	got, err := f.shares.SetDownloadEnabled(ctx, s.ID, f.owner.ID, true)
	require.NoError(t, err)
	assert.True(t, got.DownloadEnabled)

	_, err = f.shares.RecordDownload(ctx, s.ID)
	require.NoError(t, err)

	// exhausted shares ignore the toggle
	got, err = f.shares.SetDownloadEnabled(ctx, s.ID, f.owner.ID, false)
	require.NoError(t, err)
	assert.True(t, got.DownloadEnabled)

	stored, err := f.rm.Shares(f.rm.Conn()).GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.DownloadEnabled)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, MaxDownloads: intPtr(3), DownloadEnabled: true})

	_, err := f.shares.RecordDownload(ctx, s.ID)
	require.NoError(t, err)
	_, err = f.shares.RecordDownload(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{MaxDownloads: intPtr(1)})
	requireInvalid(t, err, common.FieldMaxDownloads, common.ReasonOutOfRange)

	_, err = f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{ExpiresAt: timePtr(f.clock.Add(-time.Minute))})
	requireInvalid(t, err, common.FieldExpiresAt, common.ReasonInPast)

	_, err = f.shares.Update(ctx, s.ID, f.carol.ID, UpdateShareRequest{MaxDownloads: intPtr(10)})
	requireDenied(t, err, common.DenialNotOwner)

	got, err := f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{
		MaxDownloads:    intPtr(10),
		DownloadEnabled: boolPtr(false),
		ClearExpiry:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxDownloads)
	assert.Equal(t, 2, got.DownloadsUsed)
	assert.False(t, got.DownloadEnabled)
	assert.Nil(t, got.ExpiresAt)
}

func TestUpdate_LapsedExpiryRejectedUnlessRenewed(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, ExpiryMinutes: intPtr(1)})

	f.advance(2 * time.Minute)

	_, err := f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{
		MaxDownloads:    intPtr(50),
		DownloadEnabled: boolPtr(true),
	})
	requireInvalid(t, err, common.FieldExpiresAt, common.ReasonInPast)

	stored, err := f.rm.Shares(f.rm.Conn()).GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.MaxDownloads, stored.MaxDownloads)

	got, err := f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{
		ExpiryMinutes: intPtr(1440),
		MaxDownloads:  intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, got.MaxDownloads)
	assert.True(t, got.ExpiresAt.Equal(f.clock.Add(24*time.Hour)))
}

func TestUpdate_ToggleIgnoredWhenExhausted(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()
	s := f.share(t, CreateShareRequest{FileID: file.ID, MaxDownloads: intPtr(1), DownloadEnabled: true})

	_, err := f.shares.RecordDownload(ctx, s.ID)
	require.NoError(t, err)

	got, err := f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{DownloadEnabled: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, got.DownloadEnabled)

	stored, err := f.rm.Shares(f.rm.Conn()).GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.DownloadEnabled)

	// raising the limit makes the share active again, so the toggle applies
	got, err = f.shares.Update(ctx, s.ID, f.owner.ID, UpdateShareRequest{
		MaxDownloads:    intPtr(2),
		DownloadEnabled: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, got.DownloadEnabled)
	assert.Equal(t, models.ShareDisabled, access.State(got, f.clock))
}

func TestListing(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, "payload")
	ctx := context.Background()

	toBob := f.share(t, CreateShareRequest{FileID: file.ID, GranteeID: &f.bob.ID})
	f.share(t, CreateShareRequest{FileID: file.ID})

	all, err := f.shares.ListForFile(ctx, file.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.shares.ListForFile(ctx, file.ID, f.bob.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mine, err := f.shares.ListSharedWithMe(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, toBob.ID, mine[0].ID)

	none, err := f.shares.ListSharedWithMe(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
