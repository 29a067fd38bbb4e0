package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(secret string) *GRPCServer {
	return &GRPCServer{
		logger:    nopLogger{},
		jwtSecret: []byte(secret),
	}
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_OwnerMethod_MissingToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("ListFiles")}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_OwnerMethod_InvalidToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("UploadFile")}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for invalid token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(withToken("not-a-valid-jwt"), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_OwnerMethod_ValidToken(t *testing.T) {
	s := newTestServer("secret")

	token, err := auth.GenerateToken("user-123", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("ListFiles")}
	var got string
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got = requesterID(ctx)
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(withToken(token), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if got != "user-123" {
		t.Fatalf("expected user id in context, got %q", got)
	}
}

func TestInterceptor_ShareMethod_AllowsAnonymous(t *testing.T) {
	s := newTestServer("secret")

	for _, m := range []string{"GetShare", "DownloadShare"} {
		info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(m)}
		called := false
		h := func(ctx context.Context, req interface{}) (interface{}, error) {
			called = true
			if id := requesterID(ctx); id != "" {
				t.Fatalf("expected anonymous requester, got %q", id)
			}
			return nil, nil
		}

		if _, err := s.accessTokenInterceptor(context.Background(), nil, info, h); err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
		if !called {
			t.Fatalf("%s: handler was not called", m)
		}
	}
}

func TestInterceptor_ShareMethod_RejectsBadToken(t *testing.T) {
	s := newTestServer("secret")

	token, err := auth.GenerateToken("user-123", []byte("other"), time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("DownloadShare")}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for a token signed with another key")
		return nil, nil
	}

	_, err = s.accessTokenInterceptor(withToken(token), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}
