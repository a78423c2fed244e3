// Package session owns the authentication state of one client: whether it is
// signed in, which user, and whether hydration or a login/registration is in flight.
//
// A Store is created over the client's storage.Storage, hydrated once, then
// mutated only by Login and Logout. Register never creates a session. At most
// one Login or Register runs per Store; a second call is rejected with
// ErrOperationInProgress rather than interleaving writes to the same keys.
//
// Secrets are never judged here. Verification and token issuance belong to the
// users.Directory handed to New.
package session
