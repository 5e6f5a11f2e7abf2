package payment

import (
	"errors"
	"fmt"
)

// Failure classes surfaced to callers. Anything not wrapping one of these
// sentinels is treated as transient and safe to retry upstream.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// IsNotFound reports whether err marks an absent local record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err marks invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
