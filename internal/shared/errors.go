package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStateConflict occurs when a guarded status transition matches zero rows.
	ErrStateConflict = errors.New("state conflict")
)

// UserSafeMessage converts internal errors to user facing text.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid user code or password."
	case errors.Is(err, ErrStateConflict):
		return "The record changed since you loaded it. Reload and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
