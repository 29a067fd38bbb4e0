package common

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error from the taxonomy to a transport status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStorageFault):
		return http.StatusServiceUnavailable
	}
	if _, ok := IsForbidden(err); ok {
		return http.StatusForbidden
	}
	if _, ok := IsValidation(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
