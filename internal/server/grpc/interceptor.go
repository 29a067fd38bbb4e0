package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// anonymousMethods accept calls without a token. A token that is present
// must still be valid.
var anonymousMethods = map[string]bool{
	api.FullMethod("GetShare"):      true,
	api.FullMethod("DownloadShare"): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}

	if len(accessToken) == 0 {
		if anonymousMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	ctx = context.WithValue(ctx, userIDKey, userID)

	return handler(ctx, req)
}

// requesterID returns the authenticated user id, or "" for an anonymous call.
func requesterID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
