// Package grpc exposes the file and share services over gRPC. Messages are
// plain Go structs carried by a registered JSON codec, so no generated code
// is involved.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
	"google.golang.org/grpc"
)

// FileService is the part of services.FileService the transport uses.
type FileService interface {
	Upload(ctx context.Context, ownerID string, req services.UploadRequest) (*models.File, error)
	List(ctx context.Context, ownerID string) ([]*models.File, error)
	Download(ctx context.Context, fileID, ownerID string) (*models.FileContent, error)
	Delete(ctx context.Context, fileID, ownerID string) error
	DownloadShared(ctx context.Context, token, requesterID string) (*models.FileContent, error)
}

// ShareService is the part of services.ShareService the transport uses.
type ShareService interface {
	Create(ctx context.Context, ownerID string, req services.CreateShareRequest) (*models.Share, error)
	Update(ctx context.Context, token, byUserID string, req services.UpdateShareRequest) (*models.Share, error)
	SetDownloadEnabled(ctx context.Context, token, byUserID string, enabled bool) (*models.Share, error)
	Revoke(ctx context.Context, token, byUserID string) error
	ListForFile(ctx context.Context, fileID, ownerID string) ([]*models.Share, error)
	ListSharedWithMe(ctx context.Context, userID string) ([]*models.Share, error)
	Info(ctx context.Context, token, requesterID string) (*models.ShareInfo, error)
}

type GRPCServer struct {
	address    string
	files      FileService
	shares     ShareService
	logger     logging.Logger
	jwtSecret  []byte
	maxMsgSize int
}

// NewGRPCServer builds the server. maxMsgSize bounds request and response
// messages; zero keeps the gRPC default.
func NewGRPCServer(a string, l logging.Logger, fs FileService, ss ShareService, secretKey string, maxMsgSize int) (*GRPCServer, error) {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		files:      fs,
		shares:     ss,
		jwtSecret:  []byte(secretKey),
		maxMsgSize: maxMsgSize,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)}
	if s.maxMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsgSize), grpc.MaxSendMsgSize(s.maxMsgSize))
	}

	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
