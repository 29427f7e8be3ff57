package authapi

import (
	apperrors "github.com/healthsys/go-health-admin/internal/errors"
)

var (
	// ErrAuthenticationFailed is returned when the server rejects credentials.
	// It is recoverable by re-prompting; it never tears down an existing session.
	ErrAuthenticationFailed = apperrors.ErrAuthenticationFailed

	// ErrTokenRefreshFailed is returned when the server rejects a refresh token
	ErrTokenRefreshFailed = apperrors.ErrTokenRefreshFailed
)
