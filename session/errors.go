package session

import (
	"errors"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
)

var (
	// ErrHydrationParse marks a malformed userInfo record. It is logged during Hydrate, never returned.
	ErrHydrationParse = errors.New("stored user record is malformed")

	ErrInvalidRegistrationData = errors.New("invalid registration data")
	ErrInvalidCredentials      = autherrors.ErrInvalidCredentials
	ErrOperationInProgress     = errors.New("another login or registration is in progress")
	ErrNotHydrated             = errors.New("session has not been hydrated")
	ErrUnexpectedOperation     = errors.New("unexpected operation error")
	ErrNoActiveSession         = errors.New("no active session")

	errLoggedOutDuringLogin = errors.New("logged out while login was in flight")
)
