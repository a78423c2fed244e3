package guard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-journal-auth/guard"
	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/users"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		state  session.State
		target string
		want   guard.Decision
	}{
		{
			name:   "authenticated renders the view",
			state:  session.State{Authenticated: true, User: &users.User{Phone: "13800138000"}},
			target: "/journal",
			want:   guard.Decision{Allow: true},
		},
		{
			name:   "authenticated without a user record still renders",
			state:  session.State{Authenticated: true},
			target: "/consent-form",
			want:   guard.Decision{Allow: true},
		},
		{
			name:   "unauthenticated redirects with replace",
			state:  session.State{},
			target: "/journal",
			want:   guard.Decision{Redirect: guard.LoginRoute, Replace: true},
		},
		{
			name:   "in-flight login does not grant access",
			state:  session.State{AuthLoading: true},
			target: "/consent-form",
			want:   guard.Decision{Redirect: guard.LoginRoute, Replace: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, guard.Evaluate(tt.state, tt.target))
		})
	}
}

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		saved string
		want  string
	}{
		{"", "/journal"},
		{"/journal", "/journal"},
		{"/consent-form", "/consent-form"},
		{"/journal?day=2024-01-01", "/journal?day=2024-01-01"},
		{"/login", "/journal"},
		{"/login?error=x", "/journal"},
		{"/register/", "/journal"},
		{"/", "/journal"},
		{"//evil.example.com", "/journal"},
		{"https://evil.example.com/journal", "/journal"},
		{"/\\evil.example.com", "/journal"},
		{"/\t/evil.example.com", "/journal"},
		{"/\n/evil.example.com", "/journal"},
		{"journal", "/journal"},
		{"/a/https://x", "/journal"},
	}

	for _, tt := range tests {
		t.Run(tt.saved, func(t *testing.T) {
			require.Equal(t, tt.want, guard.ResolveDestination(tt.saved))
		})
	}
}
