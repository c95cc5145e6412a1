// Package common defines shared constants and sentinel errors used across
// the contactbook server layers. Callers should use errors.Is to match these
// values; the HTTP layer is the only place that maps them to status codes.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorValidation      = errors.New("validation error")
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrRateLimited       = errors.New("too many requests")
	ErrVerification      = errors.New("verification error")

	// Token errors. All of them are reported to clients with a generic
	// message that does not reveal which check failed.
	ErrInvalidCredentials  = errors.New("could not validate credentials")
	ErrInvalidScope        = errors.New("invalid scope for token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidToken        = errors.New("invalid token")
)

// IsDomainError reports whether err carries one of the sentinels above that
// callers are expected to handle, as opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrorNotFound, ErrorAlreadyExists, ErrorInternal, ErrorUnauthorized,
		ErrorValidation, ErrEmailNotConfirmed, ErrRateLimited, ErrVerification,
		ErrInvalidCredentials, ErrInvalidScope, ErrInvalidRefreshToken, ErrInvalidToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
