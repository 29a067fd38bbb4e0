package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/keys"
	"github.com/dmitrijs2005/sharevault/internal/server/metrics"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/storage"
)

const defaultMimeType = "application/octet-stream"

// UploadRequest carries a file that the client has already encrypted.
type UploadRequest struct {
	Filename string
	MimeType string
	ClientIV []byte
	Data     []byte
}

// FileService stores client-encrypted files under a second, server-side
// encryption layer and serves them back to owners and share holders.
type FileService struct {
	repomanager   repomanager.RepositoryManager
	keys          *keys.Manager
	store         storage.ObjectStore
	shares        *ShareService
	maxUploadSize int64
	logger        logging.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewFileService constructs a FileService. met may be nil.
func NewFileService(m repomanager.RepositoryManager, km *keys.Manager, store storage.ObjectStore, shares *ShareService,
	cfg *config.Config, logger logging.Logger, met *metrics.Metrics) *FileService {
	return &FileService{
		repomanager:   m,
		keys:          km,
		store:         store,
		shares:        shares,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        logger.With("module", "file_service"),
		metrics:       met,
		now:           time.Now,
	}
}

func (s *FileService) validateUpload(req *UploadRequest) error {
	if strings.TrimSpace(req.Filename) == "" {
		return common.NewValidationError(common.FieldFilename, common.ReasonRequired)
	}
	if len(req.ClientIV) != cryptox.IVSize {
		return common.NewValidationError(common.FieldClientIV, common.ReasonInvalid)
	}
	if s.maxUploadSize > 0 && int64(len(req.Data)) > s.maxUploadSize {
		return common.NewValidationError(common.FieldFile, common.ReasonTooLarge)
	}
	return nil
}

// Upload encrypts req.Data under a fresh per-file key and IV, stores the
// blob and then the metadata row. If the row cannot be written the blob is
// removed again, so no row ever points at a missing blob.
func (s *FileService) Upload(ctx context.Context, ownerID string, req UploadRequest) (file *models.File, err error) {
	ctx, span := tracer.Start(ctx, "FileService.Upload",
		trace.WithAttributes(attribute.Int("file.size", len(req.Data))))
	defer func() { endSpan(span, err) }()

	if err := s.validateUpload(&req); err != nil {
		return nil, err
	}

	fileKey, err := s.keys.GenerateFileKey()
	if err != nil {
		return nil, fmt.Errorf("generate file key: %w", err)
	}
	defer common.WipeByteArray(fileKey)

	serverIV, err := s.keys.GenerateIV()
	if err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	ciphertext, err := s.keys.EncryptPayload(req.Data, fileKey, serverIV)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}

	wrapped, err := s.keys.WrapKey(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(req.Filename))
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	file = &models.File{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Filename:     req.Filename,
		MimeType:     mimeType,
		OriginalSize: int64(len(req.Data)),
		ClientIV:     req.ClientIV,
		ServerIV:     serverIV,
		WrappedKey:   wrapped,
		StorageKey:   storage.NewStorageKey(s.now()),
	}

	if err := s.store.Put(ctx, file.StorageKey, ciphertext); err != nil {
		return nil, err
	}
	if err := s.repomanager.Files(s.repomanager.Conn()).Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, file.StorageKey); delErr != nil {
			s.logger.Error(ctx, "orphaned blob after failed insert", "storage_key", file.StorageKey, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "file_id", file.ID, "size", file.OriginalSize)
	return file, nil
}

// List returns the owner's files, newest first.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.File, error) {
	return s.repomanager.Files(s.repomanager.Conn()).ListByOwner(ctx, ownerID)
}

func (s *FileService) ownedFile(ctx context.Context, fileID, ownerID string) (*models.File, error) {
	id, err := parseID(fileID)
	if err != nil {
		return nil, err
	}
	f, err := s.repomanager.Files(s.repomanager.Conn()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

// Download returns the owner's file with the server layer removed.
func (s *FileService) Download(ctx context.Context, fileID, ownerID string) (*models.FileContent, error) {
	f, err := s.ownedFile(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, f)
}

// open fetches the blob and strips the server encryption layer. Integrity
// failures are logged by kind only.
func (s *FileService) open(ctx context.Context, f *models.File) (*models.FileContent, error) {
	blob, err := s.store.Get(ctx, f.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load blob: %w", err)
	}

	fileKey, err := s.keys.UnwrapKey(ctx, f.WrappedKey)
	if err != nil {
		if errors.Is(err, common.ErrKeyUnwrap) {
			s.metrics.RecordCryptoFailure("unwrap")
			s.logger.Error(ctx, "key unwrap failed", "file_id", f.ID)
		}
		return nil, err
	}
	defer common.WipeByteArray(fileKey)

	data, err := s.keys.DecryptPayload(blob, fileKey, f.ServerIV)
	if err != nil {
		s.metrics.RecordCryptoFailure("decrypt")
		s.logger.Error(ctx, "payload decryption failed", "file_id", f.ID)
		return nil, err
	}

	return &models.FileContent{
		FileID:   f.ID,
		Filename: f.Filename,
		MimeType: f.MimeType,
		ClientIV: f.ClientIV,
		Data:     data,
	}, nil
}

// DownloadShared serves a file through a share token. The download slot is
// consumed only after the content has been decrypted, and nothing is
// returned if consuming it fails.
func (s *FileService) DownloadShared(ctx context.Context, token, requesterID string) (content *models.FileContent, err error) {
	ctx, span := tracer.Start(ctx, "FileService.DownloadShared")
	defer func() { endSpan(span, err) }()

	share, err := s.shares.Authorize(ctx, token, requesterID, models.CapabilityDownload)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("share.id", share.ID))

	f, err := s.repomanager.Files(s.repomanager.Conn()).GetByID(ctx, share.FileID)
	if err != nil {
		s.metrics.RecordDownload("error")
		return nil, err
	}

	content, err = s.open(ctx, f)
	if err != nil {
		s.metrics.RecordDownload("error")
		return nil, err
	}

	if _, err := s.shares.RecordDownload(ctx, share.ID); err != nil {
		if errors.Is(err, common.ErrQuotaExceeded) {
			s.metrics.RecordDownload("quota_exceeded")
		} else {
			s.metrics.RecordDownload("error")
		}
		return nil, err
	}

	s.metrics.RecordDownload("ok")
	s.logger.Info(ctx, "shared download", "share_id", share.ID, "file_id", f.ID)
	return content, nil
}

// Delete removes the metadata row, which cascades to the file's shares, and
// then the blob. A blob left behind by a failed delete is unreachable.
func (s *FileService) Delete(ctx context.Context, fileID, ownerID string) error {
	f, err := s.ownedFile(ctx, fileID, ownerID)
	if err != nil {
		return err
	}
	if err := s.repomanager.Files(s.repomanager.Conn()).Delete(ctx, f.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, f.StorageKey); err != nil {
		s.logger.Warn(ctx, "blob delete failed", "file_id", f.ID, "storage_key", f.StorageKey, "error", err)
	}
	return nil
}
