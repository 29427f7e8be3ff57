package session

import (
	apperrors "github.com/healthsys/go-health-admin/internal/errors"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is held.
	// No network call is made and the session is left unchanged.
	ErrNoRefreshToken = apperrors.ErrNoRefreshToken

	// ErrSessionExpired is surfaced after an irrecoverable refresh failure has
	// torn the session down. A fresh login is required.
	ErrSessionExpired = apperrors.ErrSessionExpired
)
