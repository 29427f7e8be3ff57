package errors

import (
	"errors"
	"fmt"
)

// Common error types for the health admin client
var (
	// Authentication errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionExpired       = errors.New("session expired, please sign in again")

	// Token errors
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	ErrNoRefreshToken     = errors.New("no refresh token available")

	// Storage errors
	ErrStorageFault = errors.New("storage fault")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
