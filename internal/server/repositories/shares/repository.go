package shares

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// Repository persists share grants.
//
// RecordDownload is the only writer of DownloadsUsed. It must increment
// atomically against the quota: when no slot is left it returns
// common.ErrQuotaExceeded and leaves the row untouched.
type Repository interface {
	Create(ctx context.Context, share *models.Share) error
	GetByID(ctx context.Context, id string) (*models.Share, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Share, error)
	Update(ctx context.Context, share *models.Share) error
	Delete(ctx context.Context, id string) error
	ListByFile(ctx context.Context, fileID string) ([]*models.Share, error)
	ListByGrantee(ctx context.Context, granteeID string) ([]*models.Share, error)
	RecordDownload(ctx context.Context, id string, at time.Time) (*models.Share, error)
}
