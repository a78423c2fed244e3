package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across the journal session packages
var (
	// Identity errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidIdentifier  = errors.New("invalid identifier")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")

	// General errors
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
