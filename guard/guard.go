// Package guard decides whether a navigation may render a protected view and
// where an authenticated user lands after signing in.
package guard

import (
	"strings"

	"github.com/jrsteele09/go-journal-auth/session"
)

const (
	LoginRoute    = "/login"
	RegisterRoute = "/register"
	JournalRoute  = "/journal"
)

// DefaultDestination is where a user lands after login when nothing was saved
const DefaultDestination = JournalRoute

// Decision is the outcome of evaluating a protected navigation.
// Replace means the redirect must not leave the protected path in history.
type Decision struct {
	Allow    bool
	Redirect string
	Replace  bool
}

// Evaluate allows the target when the state is authenticated and otherwise
// redirects to the login route, replacing the history entry. It has no side effects.
// Callers must not evaluate a state that is still loading.
func Evaluate(state session.State, target string) Decision {
	if state.Authenticated {
		return Decision{Allow: true}
	}
	return Decision{Redirect: LoginRoute, Replace: true}
}

// ResolveDestination returns saved when it is a safe local path, otherwise the journal.
func ResolveDestination(saved string) string {
	if !isLocalPath(saved) {
		return DefaultDestination
	}

	path := saved
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch strings.TrimSuffix(path, "/") {
	case LoginRoute, RegisterRoute, "":
		return DefaultDestination
	}
	return saved
}

// isLocalPath rejects anything a browser could resolve to another origin.
func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\t\r\n") {
		return false
	}
	return !strings.Contains(p, "://")
}
