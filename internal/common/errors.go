// Package common defines the shared error taxonomy and small helpers used
// across the ShareVault server. Callers match errors with errors.Is and
// errors.As; the concrete types carry closed enumerations so transports can
// render them without string inspection.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStorageFault marks persistence that is unreachable or failed
	// mid-operation. It is the only retryable class.
	ErrStorageFault = errors.New("storage fault")

	// Integrity errors. Messages never carry key material or plaintext.
	ErrKeyUnwrap  = errors.New("key unwrap failed")
	ErrDecryption = errors.New("decryption failed")

	// ErrQuotaExceeded is returned when a download slot was taken by a
	// concurrent caller between Authorize and RecordDownload.
	ErrQuotaExceeded = errors.New("download quota exceeded")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationField names the input that failed validation.
type ValidationField string

const (
	FieldGrantee       ValidationField = "grantee"
	FieldExpiresAt     ValidationField = "expires_at"
	FieldMaxDownloads  ValidationField = "max_downloads"
	FieldDownloadsUsed ValidationField = "downloads_used"
	FieldClientIV      ValidationField = "client_iv"
	FieldFile          ValidationField = "file"
	FieldFilename      ValidationField = "filename"
	FieldExpiryMinutes ValidationField = "expiry_minutes"
	FieldUsername      ValidationField = "username"
)

// ValidationReason says what was wrong with the field.
type ValidationReason string

const (
	ReasonOwnerAsGrantee ValidationReason = "owner_as_grantee"
	ReasonInPast         ValidationReason = "in_past"
	ReasonOutOfRange     ValidationReason = "out_of_range"
	ReasonNegative       ValidationReason = "negative"
	ReasonDuplicate      ValidationReason = "duplicate"
	ReasonInvalid        ValidationReason = "invalid"
	ReasonTooLarge       ValidationReason = "too_large"
	ReasonRequired       ValidationReason = "required"
)

// ValidationError is a caller-correctable input error.
type ValidationError struct {
	Field  ValidationField
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// NewValidationError is a shorthand used by validators.
func NewValidationError(field ValidationField, reason ValidationReason) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DenialReason enumerates why an access check was refused.
type DenialReason string

const (
	DenialExpired      DenialReason = "expired"
	DenialUnauthorized DenialReason = "unauthorized"
	DenialDisabled     DenialReason = "disabled"
	DenialExhausted    DenialReason = "exhausted"
	DenialNotOwner     DenialReason = "not_owner"
)

// ForbiddenError is an authorization denial. It is never retried.
type ForbiddenError struct {
	Reason DenialReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Forbidden returns a *ForbiddenError for reason.
func Forbidden(reason DenialReason) error {
	return &ForbiddenError{Reason: reason}
}

// IsForbidden reports whether err is a denial and returns its reason.
func IsForbidden(err error) (DenialReason, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
