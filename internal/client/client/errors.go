package client

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("access denied")
	ErrQuota        = errors.New("download quota exceeded")
	ErrInvalid      = errors.New("invalid request")
)

// mapError turns a gRPC status into one of the errors above, keeping the
// server message for context.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var base error
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		base = ErrUnavailable
	case codes.Unauthenticated:
		base = ErrUnauthorized
	case codes.NotFound:
		base = ErrNotFound
	case codes.PermissionDenied:
		base = ErrForbidden
	case codes.ResourceExhausted:
		base = ErrQuota
	case codes.InvalidArgument:
		base = ErrInvalid
	default:
		return err
	}
	return &remoteError{base: base, msg: st.Message()}
}

type remoteError struct {
	base error
	msg  string
}

func (e *remoteError) Error() string {
	if e.msg == "" || e.msg == e.base.Error() {
		return e.base.Error()
	}
	return e.base.Error() + ": " + e.msg
}

func (e *remoteError) Unwrap() error {
	return e.base
}
