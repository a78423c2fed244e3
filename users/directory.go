package users

import "context"

// Directory is the identity provider the session layer delegates verification to.
// The session layer never judges secrets or mints tokens itself.
type Directory interface {
	// Verify checks the secret for identifier and returns the user with a freshly issued token.
	// Returns errors.ErrInvalidCredentials when verification fails.
	Verify(ctx context.Context, identifier, secret string) (*User, error)

	// Enroll registers a new identity. Returns errors.ErrUserExists for a duplicate
	// and errors.ErrUnsupported when the provider does not allow self registration.
	Enroll(ctx context.Context, identifier, secret string) error
}
