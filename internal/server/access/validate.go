package access

import (
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// Validate checks a share about to be created by fileOwnerID.
// The first violation is returned as a *common.ValidationError.
func Validate(s *models.Share, fileOwnerID string, now time.Time) error {
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return common.NewValidationError(common.FieldExpiresAt, common.ReasonInPast)
	}
	return validateFields(s, fileOwnerID)
}

// ValidateUpdate checks next, the merged result of applying a mutation to
// prev. The resulting expiry must still be in the future, so a lapsed share
// can only be edited by the same request that renews or clears its expiry.
func ValidateUpdate(prev, next *models.Share, fileOwnerID string, now time.Time) error {
	if next.ExpiresAt != nil && !next.ExpiresAt.After(now) {
		return common.NewValidationError(common.FieldExpiresAt, common.ReasonInPast)
	}
	if next.DownloadsUsed < prev.DownloadsUsed {
		return common.NewValidationError(common.FieldDownloadsUsed, common.ReasonInvalid)
	}
	return validateFields(next, fileOwnerID)
}

func validateFields(s *models.Share, fileOwnerID string) error {
	if s.GranteeID != nil && *s.GranteeID == fileOwnerID {
		return common.NewValidationError(common.FieldGrantee, common.ReasonOwnerAsGrantee)
	}
	if s.MaxDownloads < models.UnlimitedDownloads {
		return common.NewValidationError(common.FieldMaxDownloads, common.ReasonOutOfRange)
	}
	if s.DownloadsUsed < 0 {
		return common.NewValidationError(common.FieldDownloadsUsed, common.ReasonNegative)
	}
	if s.MaxDownloads != models.UnlimitedDownloads && s.DownloadsUsed > s.MaxDownloads {
		return common.NewValidationError(common.FieldMaxDownloads, common.ReasonOutOfRange)
	}
	return nil
}
