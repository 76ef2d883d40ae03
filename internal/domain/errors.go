package domain

import "errors"

// Error kinds shared by every layer. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTimeout is transient; the caller may retry.
	ErrTimeout = errors.New("timeout")
	// ErrIntegrity marks a broken ownership chain (e.g. a room whose property row is gone).
	// It is never a retryable or user-correctable condition.
	ErrIntegrity = errors.New("integrity error")
)

var errorKinds = []error{
	ErrNotFound,
	ErrUnauthorized,
	ErrConflict,
	ErrValidation,
	ErrInvalidTransition,
	ErrTimeout,
	ErrIntegrity,
}

// KindOf returns the error kind wrapped by err, or nil when err carries none.
func KindOf(err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
