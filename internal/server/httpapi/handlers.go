package httpapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/auth"
	"github.com/gorilla/mux"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// ClientIVHeader carries the hex-encoded client IV of a downloaded file.
const ClientIVHeader = "X-Client-IV"

type shareInfoResponse struct {
	ShareID         string     `json:"share_id"`
	FileID          string     `json:"file_id"`
	Filename        string     `json:"filename"`
	MimeType        string     `json:"mime_type"`
	OriginalSize    int64      `json:"original_size"`
	DownloadEnabled bool       `json:"download_enabled"`
	Remaining       int        `json:"remaining"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// bearerMiddleware resolves an optional bearer token. A request without one
// is anonymous; a request with a bad one is rejected.
func (s *HTTPServer) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrInvalidToken)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func requesterID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HTTPServer) handleShareInfo(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	info, err := s.shares.Info(r.Context(), token, requesterID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shareInfoResponse{
		ShareID:         info.ShareID,
		FileID:          info.FileID,
		Filename:        info.Filename,
		MimeType:        info.MimeType,
		OriginalSize:    info.OriginalSize,
		DownloadEnabled: info.DownloadEnabled,
		Remaining:       info.Remaining,
		ExpiresAt:       info.ExpiresAt,
	})
}

func (s *HTTPServer) handleShareDownload(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	content, err := s.files.DownloadShared(r.Context(), token, requesterID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// the body is client-side ciphertext whatever the original type was
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Filename}))
	w.Header().Set(ClientIVHeader, hex.EncodeToString(content.ClientIV))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Data); err != nil {
		s.logger.Warn(r.Context(), "download write failed", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatus(err)
	resp := errorResponse{Error: http.StatusText(code)}

	if reason, ok := common.IsForbidden(err); ok {
		resp.Reason = string(reason)
	} else if ve, ok := common.IsValidation(err); ok {
		resp.Field = string(ve.Field)
		resp.Reason = string(ve.Reason)
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
