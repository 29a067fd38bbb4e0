// Package httpapi serves share links over plain HTTP so a token can be
// opened from a browser. Owner operations stay on gRPC.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/gorilla/mux"
)

// ShareService is the part of services.ShareService the HTTP API uses.
type ShareService interface {
	Info(ctx context.Context, token, requesterID string) (*models.ShareInfo, error)
}

// FileService is the part of services.FileService the HTTP API uses.
type FileService interface {
	DownloadShared(ctx context.Context, token, requesterID string) (*models.FileContent, error)
}

type HTTPServer struct {
	address        string
	files          FileService
	shares         ShareService
	metricsHandler http.Handler
	logger         logging.Logger
	jwtSecret      []byte
}

// NewHTTPServer builds the server. metricsHandler may be nil, in which case
// /metrics is not routed.
func NewHTTPServer(a string, l logging.Logger, fs FileService, ss ShareService, metricsHandler http.Handler, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:        a,
		files:          fs,
		shares:         ss,
		metricsHandler: metricsHandler,
		logger:         l.With("module", "http_server"),
		jwtSecret:      []byte(secretKey),
	}
}

// Router returns the routes of the API.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}

	shares := r.PathPrefix("/share").Subrouter()
	shares.Use(s.bearerMiddleware)
	shares.HandleFunc("/{token}", s.handleShareInfo).Methods(http.MethodGet)
	shares.HandleFunc("/{token}/download", s.handleShareDownload).Methods(http.MethodGet)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
