package api

import (
	"fmt"

	apperrors "github.com/healthsys/go-health-admin/internal/errors"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a token
// refresh. The session has already been torn down; callers should route the
// user back to the login entry point.
var ErrSessionExpired = apperrors.ErrSessionExpired

// RequestFailure is a non-401 API failure. It is recovered locally by the
// caller and is not fatal to the session.
type RequestFailure struct {
	Status  int    // HTTP status code
	Message string // Server-provided detail, or a generic fallback
}

func (f *RequestFailure) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", f.Status, f.Message)
}
