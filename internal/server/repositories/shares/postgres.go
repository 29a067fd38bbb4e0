package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const shareColumns = `id, file_id, granted_by, grantee_id, max_downloads, downloads_used, download_enabled, expires_at, last_downloaded_at, created_at, updated_at`

// Create inserts a validated share. A second targeted share for the same
// (file, grantee) hits shares_file_grantee_uniq and is reported as a
// duplicate grantee.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Share) error {
	query := `
		INSERT INTO shares (id, file_id, granted_by, grantee_id, max_downloads, downloads_used, download_enabled, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.FileID, s.GrantedBy, s.GranteeID, s.MaxDownloads, s.DownloadsUsed, s.DownloadEnabled, s.ExpiresAt).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Share, error) {
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM shares WHERE id=$1`, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Share, error) {
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM shares WHERE id=$1 FOR UPDATE`, id)
}

// Update writes the owner-mutable fields. DownloadsUsed is only moved by
// RecordDownload.
func (r *PostgresRepository) Update(ctx context.Context, s *models.Share) error {
	query := `
		UPDATE shares
		SET grantee_id=$2, max_downloads=$3, download_enabled=$4, expires_at=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.GranteeID, s.MaxDownloads, s.DownloadEnabled, s.ExpiresAt).
		Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id=$1`, id)
	if err != nil {
		return dbx.StorageFault("failed to delete share", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Share, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM shares WHERE file_id=$1 ORDER BY created_at`, fileID)
}

func (r *PostgresRepository) ListByGrantee(ctx context.Context, granteeID string) ([]*models.Share, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM shares WHERE grantee_id=$1 ORDER BY created_at`, granteeID)
}

// RecordDownload takes one download slot in a single conditional UPDATE.
// Concurrent callers serialize on the row lock and re-evaluate the quota
// predicate, so at most max_downloads calls ever succeed.
func (r *PostgresRepository) RecordDownload(ctx context.Context, id string, at time.Time) (*models.Share, error) {
	query := `
		UPDATE shares
		SET downloads_used = downloads_used + 1, last_downloaded_at = $2, updated_at = $2
		WHERE id = $1 AND (max_downloads = -1 OR downloads_used < max_downloads)
		RETURNING ` + shareColumns

	s, err := scanShare(r.db.QueryRowContext(ctx, query, id, at))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, dbx.StorageFault("failed to record download", err)
	}

	// zero rows: the share is gone or the quota is spent
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, common.ErrQuotaExceeded
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.Share, error) {
	s, err := scanShare(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageFault("failed to select share", err)
	}
	return s, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.Share, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, dbx.StorageFault("failed to select shares", err)
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShare(row scanner) (*models.Share, error) {
	var (
		s              models.Share
		grantee        sql.NullString
		expires        sql.NullTime
		lastDownloaded sql.NullTime
	)
	err := row.Scan(&s.ID, &s.FileID, &s.GrantedBy, &grantee, &s.MaxDownloads, &s.DownloadsUsed,
		&s.DownloadEnabled, &expires, &lastDownloaded, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if grantee.Valid {
		s.GranteeID = &grantee.String
	}
	if expires.Valid {
		s.ExpiresAt = &expires.Time
	}
	if lastDownloaded.Valid {
		s.LastDownloadedAt = &lastDownloaded.Time
	}
	return &s, nil
}

func mapWriteError(err error) error {
	if _, dup := dbx.UniqueViolation(err); dup {
		return common.NewValidationError(common.FieldGrantee, common.ReasonDuplicate)
	}
	switch name, _ := dbx.CheckViolation(err); name {
	case "shares_quota_chk":
		return common.NewValidationError(common.FieldMaxDownloads, common.ReasonOutOfRange)
	case "shares_grantee_not_granter_chk":
		return common.NewValidationError(common.FieldGrantee, common.ReasonOwnerAsGrantee)
	}
	return dbx.StorageFault("db error", err)
}
