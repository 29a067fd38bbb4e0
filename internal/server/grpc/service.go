package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"google.golang.org/grpc"
)

// ShareVaultServer is the server API of the ShareVault service.
type ShareVaultServer interface {
	UploadFile(context.Context, *api.UploadFileRequest) (*api.FileMessage, error)
	ListFiles(context.Context, *api.Empty) (*api.ListFilesResponse, error)
	DownloadFile(context.Context, *api.FileRequest) (*api.FileContentResponse, error)
	DeleteFile(context.Context, *api.FileRequest) (*api.Empty, error)

	CreateShare(context.Context, *api.CreateShareRequest) (*api.ShareMessage, error)
	UpdateShare(context.Context, *api.UpdateShareRequest) (*api.ShareMessage, error)
	SetShareDownload(context.Context, *api.SetShareDownloadRequest) (*api.ShareMessage, error)
	RevokeShare(context.Context, *api.ShareRequest) (*api.Empty, error)
	ListShares(context.Context, *api.FileRequest) (*api.ListSharesResponse, error)
	ListSharedWithMe(context.Context, *api.Empty) (*api.ListSharesResponse, error)

	GetShare(context.Context, *api.ShareRequest) (*api.ShareInfoResponse, error)
	DownloadShare(context.Context, *api.ShareRequest) (*api.FileContentResponse, error)
}

// unary adapts a typed server method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(ShareVaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ShareVaultServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ShareVaultServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes the ShareVault service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*ShareVaultServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("UploadFile", ShareVaultServer.UploadFile),
		unary("ListFiles", ShareVaultServer.ListFiles),
		unary("DownloadFile", ShareVaultServer.DownloadFile),
		unary("DeleteFile", ShareVaultServer.DeleteFile),
		unary("CreateShare", ShareVaultServer.CreateShare),
		unary("UpdateShare", ShareVaultServer.UpdateShare),
		unary("SetShareDownload", ShareVaultServer.SetShareDownload),
		unary("RevokeShare", ShareVaultServer.RevokeShare),
		unary("ListShares", ShareVaultServer.ListShares),
		unary("ListSharedWithMe", ShareVaultServer.ListSharedWithMe),
		unary("GetShare", ShareVaultServer.GetShare),
		unary("DownloadShare", ShareVaultServer.DownloadShare),
	},
	Streams: []grpc.StreamDesc{},
}
