package grpc

import (
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error to a gRPC status. Internal failures carry a
// generic message only.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrQuotaExceeded):
		return status.Error(codes.ResourceExhausted, common.ErrQuotaExceeded.Error())
	case errors.Is(err, common.ErrStorageFault):
		return status.Error(codes.Unavailable, "storage unavailable")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	}
	if _, ok := common.IsForbidden(err); ok {
		return status.Error(codes.PermissionDenied, err.Error())
	}
	if _, ok := common.IsValidation(err); ok {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
