// Package storage defines the string-keyed persisted store behind each client session,
// the browser "local storage" equivalent, and a namespace adapter that gives every
// client its own slice of a shared backend.
package storage

import "context"

// Keys written and read by the session layer.
const (
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserInfo        = "userInfo"
	KeyToken           = "token"
	KeyRedirectPath    = "redirectPath"
)

// SessionKeys are the keys cleared on logout or on a failed login write.
var SessionKeys = []string{KeyIsAuthenticated, KeyUserInfo, KeyToken}

// Storage is the get/set/remove capability the session layer depends on.
type Storage interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error
	Remove(ctx context.Context, key string) error
}
