// Package services contains server-side business logic. FileService owns
// the envelope encryption path for uploads and downloads; ShareService owns
// the share-grant lifecycle and access decisions.
package services

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/sharevault/internal/common"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/sharevault/internal/server/services")

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// parseID canonicalizes a share token or file id taken from a request.
// Anything that is not a UUID cannot exist, so it is reported as not found.
func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", common.ErrorNotFound
	}
	return u.String(), nil
}
