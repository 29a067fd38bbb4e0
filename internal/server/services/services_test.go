package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/keys"
	"github.com/dmitrijs2005/sharevault/internal/server/metrics"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rm     repomanager.RepositoryManager
	store  *storage.MemoryStore
	keys   *keys.Manager
	reg    *prometheus.Registry
	shares *ShareService
	files  *FileService

	clock time.Time

	owner *models.User
	bob   *models.User
	carol *models.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, repomanager.NewInMemoryRepositoryManager())
}

func newFixtureWith(t *testing.T, rm repomanager.RepositoryManager) *fixture {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	km := keys.NewManager(keys.NewMemoryStore())
	require.NoError(t, km.InitializeMasterKey(ctx))

	reg := prometheus.NewRegistry()
	met := metrics.NewMetricsWithRegistry(reg, reg)
	logger := logging.New("error", "json", io.Discard)

	f := &fixture{
		rm:    rm,
		store: storage.NewMemoryStore(),
		keys:  km,
		reg:   reg,
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.shares = NewShareService(rm, cfg, logger, met)
	f.shares.now = func() time.Time { return f.clock }
	f.files = NewFileService(rm, km, f.store, f.shares, cfg, logger, met)
	f.files.now = f.shares.now

	users := rm.Users(rm.Conn())
	var err error
	f.owner, err = users.Create(ctx, &models.User{UserName: "alice"})
	require.NoError(t, err)
	f.bob, err = users.Create(ctx, &models.User{UserName: "bob"})
	require.NoError(t, err)
	f.carol, err = users.Create(ctx, &models.User{UserName: "carol"})
	require.NoError(t, err)

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func clientIV() []byte {
	return []byte("0123456789abcdef")
}

func (f *fixture) upload(t *testing.T, data string) *models.File {
	t.Helper()
	file, err := f.files.Upload(context.Background(), f.owner.ID, UploadRequest{
		Filename: "report.pdf",
		ClientIV: clientIV(),
		Data:     []byte(data),
	})
	require.NoError(t, err)
	return file
}

func (f *fixture) share(t *testing.T, req CreateShareRequest) *models.Share {
	t.Helper()
	s, err := f.shares.Create(context.Background(), f.owner.ID, req)
	require.NoError(t, err)
	return s
}

func intPtr(v int) *int              { return &v }
func boolPtr(v bool) *bool           { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func requireDenied(t *testing.T, err error, want common.DenialReason) {
	t.Helper()
	reason, ok := common.IsForbidden(err)
	require.True(t, ok, "expected forbidden, got %v", err)
	require.Equal(t, want, reason)
}

func requireInvalid(t *testing.T, err error, field common.ValidationField, reason common.ValidationReason) {
	t.Helper()
	ve, ok := common.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Equal(t, field, ve.Field)
	require.Equal(t, reason, ve.Reason)
}
