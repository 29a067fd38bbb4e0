package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/server/access"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ ShareVaultServer = (*GRPCServer)(nil)

// fail logs unexpected errors and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal || status.Code(st) == codes.Unavailable {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func toFileMessage(f *models.File) *api.FileMessage {
	return &api.FileMessage{
		ID:           f.ID,
		Filename:     f.Filename,
		MimeType:     f.MimeType,
		OriginalSize: f.OriginalSize,
		ClientIV:     f.ClientIV,
		CreatedAt:    f.CreatedAt,
	}
}

func toContent(c *models.FileContent) *api.FileContentResponse {
	return &api.FileContentResponse{
		FileID:   c.FileID,
		Filename: c.Filename,
		MimeType: c.MimeType,
		ClientIV: c.ClientIV,
		Data:     c.Data,
	}
}

func toShareMessage(sh *models.Share, now time.Time) api.ShareMessage {
	return api.ShareMessage{
		ID:               sh.ID,
		FileID:           sh.FileID,
		GranteeID:        sh.GranteeID,
		MaxDownloads:     sh.MaxDownloads,
		DownloadsUsed:    sh.DownloadsUsed,
		Remaining:        access.Remaining(sh),
		DownloadEnabled:  sh.DownloadEnabled,
		State:            string(access.State(sh, now)),
		ExpiresAt:        sh.ExpiresAt,
		LastDownloadedAt: sh.LastDownloadedAt,
		CreatedAt:        sh.CreatedAt,
	}
}

func toShareList(list []*models.Share) *api.ListSharesResponse {
	now := time.Now()
	out := &api.ListSharesResponse{Shares: make([]api.ShareMessage, 0, len(list))}
	for _, sh := range list {
		out.Shares = append(out.Shares, toShareMessage(sh, now))
	}
	return out
}

func (s *GRPCServer) UploadFile(ctx context.Context, req *api.UploadFileRequest) (*api.FileMessage, error) {
	f, err := s.files.Upload(ctx, requesterID(ctx), services.UploadRequest{
		Filename: req.Filename,
		MimeType: req.MimeType,
		ClientIV: req.ClientIV,
		Data:     req.Data,
	})
	if err != nil {
		return nil, s.fail(ctx, "UploadFile", err)
	}
	return toFileMessage(f), nil
}

func (s *GRPCServer) ListFiles(ctx context.Context, _ *api.Empty) (*api.ListFilesResponse, error) {
	list, err := s.files.List(ctx, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "ListFiles", err)
	}
	out := &api.ListFilesResponse{Files: make([]api.FileMessage, 0, len(list))}
	for _, f := range list {
		out.Files = append(out.Files, *toFileMessage(f))
	}
	return out, nil
}

func (s *GRPCServer) DownloadFile(ctx context.Context, req *api.FileRequest) (*api.FileContentResponse, error) {
	c, err := s.files.Download(ctx, req.FileID, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "DownloadFile", err)
	}
	return toContent(c), nil
}

func (s *GRPCServer) DeleteFile(ctx context.Context, req *api.FileRequest) (*api.Empty, error) {
	if err := s.files.Delete(ctx, req.FileID, requesterID(ctx)); err != nil {
		return nil, s.fail(ctx, "DeleteFile", err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) CreateShare(ctx context.Context, req *api.CreateShareRequest) (*api.ShareMessage, error) {
	sh, err := s.shares.Create(ctx, requesterID(ctx), services.CreateShareRequest{
		FileID:          req.FileID,
		GranteeID:       req.GranteeID,
		GranteeUsername: req.GranteeUsername,
		MaxDownloads:    req.MaxDownloads,
		DownloadEnabled: req.DownloadEnabled,
		ExpiresAt:       req.ExpiresAt,
		ExpiryMinutes:   req.ExpiryMinutes,
	})
	if err != nil {
		return nil, s.fail(ctx, "CreateShare", err)
	}
	m := toShareMessage(sh, time.Now())
	return &m, nil
}

func (s *GRPCServer) UpdateShare(ctx context.Context, req *api.UpdateShareRequest) (*api.ShareMessage, error) {
	sh, err := s.shares.Update(ctx, req.ShareID, requesterID(ctx), services.UpdateShareRequest{
		MaxDownloads:    req.MaxDownloads,
		DownloadEnabled: req.DownloadEnabled,
		ExpiresAt:       req.ExpiresAt,
		ExpiryMinutes:   req.ExpiryMinutes,
		ClearExpiry:     req.ClearExpiry,
	})
	if err != nil {
		return nil, s.fail(ctx, "UpdateShare", err)
	}
	m := toShareMessage(sh, time.Now())
	return &m, nil
}

func (s *GRPCServer) SetShareDownload(ctx context.Context, req *api.SetShareDownloadRequest) (*api.ShareMessage, error) {
	sh, err := s.shares.SetDownloadEnabled(ctx, req.ShareID, requesterID(ctx), req.Enabled)
	if err != nil {
		return nil, s.fail(ctx, "SetShareDownload", err)
	}
	m := toShareMessage(sh, time.Now())
	return &m, nil
}

func (s *GRPCServer) RevokeShare(ctx context.Context, req *api.ShareRequest) (*api.Empty, error) {
	if err := s.shares.Revoke(ctx, req.ShareID, requesterID(ctx)); err != nil {
		return nil, s.fail(ctx, "RevokeShare", err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) ListShares(ctx context.Context, req *api.FileRequest) (*api.ListSharesResponse, error) {
	list, err := s.shares.ListForFile(ctx, req.FileID, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "ListShares", err)
	}
	return toShareList(list), nil
}

func (s *GRPCServer) ListSharedWithMe(ctx context.Context, _ *api.Empty) (*api.ListSharesResponse, error) {
	list, err := s.shares.ListSharedWithMe(ctx, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "ListSharedWithMe", err)
	}
	return toShareList(list), nil
}

func (s *GRPCServer) GetShare(ctx context.Context, req *api.ShareRequest) (*api.ShareInfoResponse, error) {
	info, err := s.shares.Info(ctx, req.ShareID, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "GetShare", err)
	}
	return &api.ShareInfoResponse{
		ShareID:         info.ShareID,
		FileID:          info.FileID,
		Filename:        info.Filename,
		MimeType:        info.MimeType,
		OriginalSize:    info.OriginalSize,
		DownloadEnabled: info.DownloadEnabled,
		Remaining:       info.Remaining,
		ExpiresAt:       info.ExpiresAt,
	}, nil
}

func (s *GRPCServer) DownloadShare(ctx context.Context, req *api.ShareRequest) (*api.FileContentResponse, error) {
	c, err := s.files.DownloadShared(ctx, req.ShareID, requesterID(ctx))
	if err != nil {
		return nil, s.fail(ctx, "DownloadShare", err)
	}
	return toContent(c), nil
}
