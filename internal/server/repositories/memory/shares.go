package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type ShareRepository struct {
	db *DB
}

func NewShareRepository(db *DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// conflicts reports whether another share already targets the same grantee
// on the same file. Public shares never conflict.
func (r *ShareRepository) conflicts(s *models.Share) bool {
	if s.GranteeID == nil {
		return false
	}
	for id, row := range r.db.shares {
		if id == s.ID || row.s.FileID != s.FileID || row.s.GranteeID == nil {
			continue
		}
		if *row.s.GranteeID == *s.GranteeID {
			return true
		}
	}
	return false
}

func (r *ShareRepository) Create(ctx context.Context, s *models.Share) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[s.FileID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.db.shares[s.ID]; ok {
		return common.NewValidationError(common.FieldGrantee, common.ReasonDuplicate)
	}
	if r.conflicts(s) {
		return common.NewValidationError(common.FieldGrantee, common.ReasonDuplicate)
	}

	now := r.db.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.db.shares[s.ID] = &shareRow{s: *cloneShare(s), seq: r.db.next()}
	return nil
}

func (r *ShareRepository) GetByID(ctx context.Context, id string) (*models.Share, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row, ok := r.db.shares[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneShare(&row.s), nil
}

// GetByIDForUpdate is GetByID; callers serialize through the manager's InTx.
func (r *ShareRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Share, error) {
	return r.GetByID(ctx, id)
}

// Update writes the owner-mutable fields. The quota check is repeated here
// because a download may have landed after the caller validated.
func (r *ShareRepository) Update(ctx context.Context, s *models.Share) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.shares[s.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if r.conflicts(s) {
		return common.NewValidationError(common.FieldGrantee, common.ReasonDuplicate)
	}
	if s.MaxDownloads != models.UnlimitedDownloads && row.s.DownloadsUsed > s.MaxDownloads {
		return common.NewValidationError(common.FieldMaxDownloads, common.ReasonOutOfRange)
	}

	row.s.GranteeID = cloneString(s.GranteeID)
	row.s.MaxDownloads = s.MaxDownloads
	row.s.DownloadEnabled = s.DownloadEnabled
	row.s.ExpiresAt = cloneTime(s.ExpiresAt)
	row.s.UpdatedAt = r.db.now()
	s.UpdatedAt = row.s.UpdatedAt
	return nil
}

func (r *ShareRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.shares[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.db.shares, id)
	return nil
}

func (r *ShareRepository) list(match func(*models.Share) bool) []*models.Share {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []*shareRow
	for _, row := range r.db.shares {
		if match(&row.s) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*models.Share, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneShare(&row.s))
	}
	return out
}

func (r *ShareRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Share, error) {
	return r.list(func(s *models.Share) bool { return s.FileID == fileID }), nil
}

func (r *ShareRepository) ListByGrantee(ctx context.Context, granteeID string) ([]*models.Share, error) {
	return r.list(func(s *models.Share) bool {
		return s.GranteeID != nil && *s.GranteeID == granteeID
	}), nil
}

// RecordDownload consumes one slot under the write lock.
func (r *ShareRepository) RecordDownload(ctx context.Context, id string, at time.Time) (*models.Share, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.shares[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if row.s.MaxDownloads != models.UnlimitedDownloads && row.s.DownloadsUsed >= row.s.MaxDownloads {
		return nil, common.ErrQuotaExceeded
	}

	row.s.DownloadsUsed++
	row.s.LastDownloadedAt = &at
	row.s.UpdatedAt = at
	return cloneShare(&row.s), nil
}
