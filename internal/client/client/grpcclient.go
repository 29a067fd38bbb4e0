// Package client is the gRPC client of the ShareVault service.
package client

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}

	return mapError(invoker(ctx, method, req, reply, cc, opts...))
}

// NewGRPCClient connects lazily to endpointURL. An empty accessToken makes
// anonymous calls, which only the share access methods accept. Extra dial
// options are appended after the defaults.
func NewGRPCClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, in, out any) error {
	return s.conn.Invoke(ctx, api.FullMethod(method), in, out)
}

func (s *GRPCClient) UploadFile(ctx context.Context, req *api.UploadFileRequest) (*api.FileMessage, error) {
	out := &api.FileMessage{}
	if err := s.call(ctx, "UploadFile", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) ListFiles(ctx context.Context) ([]api.FileMessage, error) {
	out := &api.ListFilesResponse{}
	if err := s.call(ctx, "ListFiles", &api.Empty{}, out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (s *GRPCClient) DownloadFile(ctx context.Context, fileID string) (*api.FileContentResponse, error) {
	out := &api.FileContentResponse{}
	if err := s.call(ctx, "DownloadFile", &api.FileRequest{FileID: fileID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) DeleteFile(ctx context.Context, fileID string) error {
	return s.call(ctx, "DeleteFile", &api.FileRequest{FileID: fileID}, &api.Empty{})
}

func (s *GRPCClient) CreateShare(ctx context.Context, req *api.CreateShareRequest) (*api.ShareMessage, error) {
	out := &api.ShareMessage{}
	if err := s.call(ctx, "CreateShare", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) UpdateShare(ctx context.Context, req *api.UpdateShareRequest) (*api.ShareMessage, error) {
	out := &api.ShareMessage{}
	if err := s.call(ctx, "UpdateShare", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) SetShareDownload(ctx context.Context, shareID string, enabled bool) (*api.ShareMessage, error) {
	out := &api.ShareMessage{}
	if err := s.call(ctx, "SetShareDownload", &api.SetShareDownloadRequest{ShareID: shareID, Enabled: enabled}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) RevokeShare(ctx context.Context, shareID string) error {
	return s.call(ctx, "RevokeShare", &api.ShareRequest{ShareID: shareID}, &api.Empty{})
}

func (s *GRPCClient) ListShares(ctx context.Context, fileID string) ([]api.ShareMessage, error) {
	out := &api.ListSharesResponse{}
	if err := s.call(ctx, "ListShares", &api.FileRequest{FileID: fileID}, out); err != nil {
		return nil, err
	}
	return out.Shares, nil
}

func (s *GRPCClient) ListSharedWithMe(ctx context.Context) ([]api.ShareMessage, error) {
	out := &api.ListSharesResponse{}
	if err := s.call(ctx, "ListSharedWithMe", &api.Empty{}, out); err != nil {
		return nil, err
	}
	return out.Shares, nil
}

func (s *GRPCClient) GetShare(ctx context.Context, shareID string) (*api.ShareInfoResponse, error) {
	out := &api.ShareInfoResponse{}
	if err := s.call(ctx, "GetShare", &api.ShareRequest{ShareID: shareID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GRPCClient) DownloadShare(ctx context.Context, shareID string) (*api.FileContentResponse, error) {
	out := &api.FileContentResponse{}
	if err := s.call(ctx, "DownloadShare", &api.ShareRequest{ShareID: shareID}, out); err != nil {
		return nil, err
	}
	return out, nil
}
