package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/access"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/metrics"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
)

// expiryPresets are the relative expiries a client may pick instead of an
// absolute timestamp.
var expiryPresets = map[int]time.Duration{
	1:     time.Minute,
	60:    time.Hour,
	1440:  24 * time.Hour,
	10080: 7 * 24 * time.Hour,
}

// CreateShareRequest describes a new share. GranteeID wins over
// GranteeUsername; neither set makes a public link. ExpiryMinutes wins over
// ExpiresAt; neither set applies the default expiry.
type CreateShareRequest struct {
	FileID          string
	GranteeID       *string
	GranteeUsername string
	MaxDownloads    *int
	DownloadEnabled bool
	ExpiresAt       *time.Time
	ExpiryMinutes   *int
}

// UpdateShareRequest lists the owner-mutable fields; nil leaves a field as is.
type UpdateShareRequest struct {
	MaxDownloads    *int
	DownloadEnabled *bool
	ExpiresAt       *time.Time
	ExpiryMinutes   *int
	// ClearExpiry removes the expiry. It is ignored when a new one is given.
	ClearExpiry bool
}

// ShareService manages share grants and decides access through them.
type ShareService struct {
	repomanager         repomanager.RepositoryManager
	defaultMaxDownloads int
	defaultExpiry       time.Duration
	logger              logging.Logger
	metrics             *metrics.Metrics
	now                 func() time.Time
}

// NewShareService constructs a ShareService. met may be nil.
func NewShareService(m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, met *metrics.Metrics) *ShareService {
	return &ShareService{
		repomanager:         m,
		defaultMaxDownloads: cfg.DefaultMaxDownloads,
		defaultExpiry:       cfg.DefaultShareExpiry,
		logger:              logger.With("module", "share_service"),
		metrics:             met,
		now:                 time.Now,
	}
}

// ownedFile loads a file and checks that ownerID owns it. A file owned by
// someone else is reported as not found.
func (s *ShareService) ownedFile(ctx context.Context, db dbx.DBTX, fileID, ownerID string) (*models.File, error) {
	id, err := parseID(fileID)
	if err != nil {
		return nil, err
	}
	f, err := s.repomanager.Files(db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (s *ShareService) resolveExpiry(minutes *int, at *time.Time, now time.Time) (*time.Time, error) {
	if minutes != nil {
		d, ok := expiryPresets[*minutes]
		if !ok {
			return nil, common.NewValidationError(common.FieldExpiryMinutes, common.ReasonInvalid)
		}
		t := now.Add(d)
		return &t, nil
	}
	return at, nil
}

// Create validates and stores a new share on a file owned by ownerID.
func (s *ShareService) Create(ctx context.Context, ownerID string, req CreateShareRequest) (*models.Share, error) {
	conn := s.repomanager.Conn()
	file, err := s.ownedFile(ctx, conn, req.FileID, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	share := &models.Share{
		ID:              uuid.NewString(),
		FileID:          file.ID,
		GrantedBy:       ownerID,
		GranteeID:       req.GranteeID,
		MaxDownloads:    s.defaultMaxDownloads,
		DownloadEnabled: req.DownloadEnabled,
	}
	if req.MaxDownloads != nil {
		share.MaxDownloads = *req.MaxDownloads
	}

	if share.GranteeID == nil && req.GranteeUsername != "" {
		u, err := s.repomanager.Users(conn).GetUserByLogin(ctx, req.GranteeUsername)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.NewValidationError(common.FieldGrantee, common.ReasonInvalid)
			}
			return nil, err
		}
		share.GranteeID = &u.ID
	}

	share.ExpiresAt, err = s.resolveExpiry(req.ExpiryMinutes, req.ExpiresAt, now)
	if err != nil {
		return nil, err
	}
	if req.ExpiryMinutes == nil && req.ExpiresAt == nil && s.defaultExpiry > 0 {
		t := now.Add(s.defaultExpiry)
		share.ExpiresAt = &t
	}

	if err := access.Validate(share, file.OwnerID, now); err != nil {
		return nil, err
	}
	if err := s.repomanager.Shares(conn).Create(ctx, share); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "share created", "share_id", share.ID, "file_id", share.FileID, "public", share.IsPublic())
	return share, nil
}

// Authorize loads the share behind token and checks requesterID against it.
// The share is returned only when access is granted.
func (s *ShareService) Authorize(ctx context.Context, token, requesterID string, capability models.Capability) (share *models.Share, err error) {
	ctx, span := tracer.Start(ctx, "ShareService.Authorize",
		trace.WithAttributes(attribute.String("share.capability", string(capability))))
	defer func() { endSpan(span, err) }()

	share, err = s.load(ctx, token)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	err = access.Authorize(share, requesterID, capability, s.now())
	s.metrics.RecordAuthorize(string(capability), outcome(err))
	if err != nil {
		return nil, err
	}
	return share, nil
}

func outcome(err error) string {
	if err == nil {
		return "allowed"
	}
	if reason, ok := common.IsForbidden(err); ok {
		return string(reason)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return "not_found"
	}
	return "error"
}

func (s *ShareService) load(ctx context.Context, token string) (*models.Share, error) {
	id, err := parseID(token)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.repomanager.Conn()).GetByID(ctx, id)
}

// RecordDownload consumes one download slot. It must follow a successful
// Authorize with CapabilityDownload; a slot taken concurrently in between
// surfaces as common.ErrQuotaExceeded.
func (s *ShareService) RecordDownload(ctx context.Context, token string) (*models.Share, error) {
	id, err := parseID(token)
	if err != nil {
		return nil, err
	}
	share, err := s.repomanager.Shares(s.repomanager.Conn()).RecordDownload(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	return share, nil
}

// Revoke deletes the share. Only the granter may revoke.
func (s *ShareService) Revoke(ctx context.Context, token, byUserID string) error {
	return s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		share, err := s.lockOwned(ctx, tx, token, byUserID)
		if err != nil {
			return err
		}
		if err := s.repomanager.Shares(tx).Delete(ctx, share.ID); err != nil {
			return err
		}
		s.logger.Info(ctx, "share revoked", "share_id", share.ID)
		return nil
	})
}

// lockOwned loads the share for update and checks that byUserID granted it.
func (s *ShareService) lockOwned(ctx context.Context, tx dbx.DBTX, token, byUserID string) (*models.Share, error) {
	id, err := parseID(token)
	if err != nil {
		return nil, err
	}
	share, err := s.repomanager.Shares(tx).GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if share.GrantedBy != byUserID {
		return nil, common.Forbidden(common.DenialNotOwner)
	}
	return share, nil
}

// SetDownloadEnabled flips the download toggle. Expired and exhausted
// shares are returned unchanged.
func (s *ShareService) SetDownloadEnabled(ctx context.Context, token, byUserID string, enabled bool) (*models.Share, error) {
	var out *models.Share
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		share, err := s.lockOwned(ctx, tx, token, byUserID)
		if err != nil {
			return err
		}
		out = share
		if !access.CanToggle(share, s.now()) || share.DownloadEnabled == enabled {
			return nil
		}
		share.DownloadEnabled = enabled
		return s.repomanager.Shares(tx).Update(ctx, share)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies req to the share and revalidates the merged result under a
// row lock. The download toggle in req is ignored while the updated share is
// expired or exhausted.
func (s *ShareService) Update(ctx context.Context, token, byUserID string, req UpdateShareRequest) (*models.Share, error) {
	var out *models.Share
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := s.lockOwned(ctx, tx, token, byUserID)
		if err != nil {
			return err
		}

		now := s.now()
		next := *prev
		if req.MaxDownloads != nil {
			next.MaxDownloads = *req.MaxDownloads
		}
		switch {
		case req.ExpiryMinutes != nil || req.ExpiresAt != nil:
			next.ExpiresAt, err = s.resolveExpiry(req.ExpiryMinutes, req.ExpiresAt, now)
			if err != nil {
				return err
			}
		case req.ClearExpiry:
			next.ExpiresAt = nil
		}
		// same rule as SetDownloadEnabled, judged on the updated limits
		if req.DownloadEnabled != nil && access.CanToggle(&next, now) {
			next.DownloadEnabled = *req.DownloadEnabled
		}

		if err := access.ValidateUpdate(prev, &next, prev.GrantedBy, now); err != nil {
			return err
		}
		if err := s.repomanager.Shares(tx).Update(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForFile returns the shares on a file owned by ownerID.
func (s *ShareService) ListForFile(ctx context.Context, fileID, ownerID string) ([]*models.Share, error) {
	conn := s.repomanager.Conn()
	file, err := s.ownedFile(ctx, conn, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Shares(conn).ListByFile(ctx, file.ID)
}

// ListSharedWithMe returns the shares targeted at userID, in any state.
func (s *ShareService) ListSharedWithMe(ctx context.Context, userID string) ([]*models.Share, error) {
	return s.repomanager.Shares(s.repomanager.Conn()).ListByGrantee(ctx, userID)
}

// Info authorizes a view and describes the shared file.
func (s *ShareService) Info(ctx context.Context, token, requesterID string) (*models.ShareInfo, error) {
	share, err := s.Authorize(ctx, token, requesterID, models.CapabilityView)
	if err != nil {
		return nil, err
	}
	file, err := s.repomanager.Files(s.repomanager.Conn()).GetByID(ctx, share.FileID)
	if err != nil {
		return nil, fmt.Errorf("load shared file: %w", err)
	}
	return &models.ShareInfo{
		ShareID:         share.ID,
		FileID:          file.ID,
		Filename:        file.Filename,
		MimeType:        file.MimeType,
		OriginalSize:    file.OriginalSize,
		DownloadEnabled: share.DownloadEnabled,
		Remaining:       access.Remaining(share),
		ExpiresAt:       share.ExpiresAt,
	}, nil
}
