package middleware

import "errors"

var (
	errMissingToken = errors.New("missing or invalid token")
	errInvalidToken = errors.New("invalid or expired token")
	errForbidden    = errors.New("forbidden")
	errAdminOnly    = errors.New("admin role required")
	errRateLimited  = errors.New("too many checkout attempts, slow down")
)
