package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-journal-auth/guard"
	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/session"
)

// ClientSession identifies the browser by its client cookie, issuing one on first visit,
// and installs that client's hydrated session store in the request context.
func (s *Server) ClientSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIDFromRequest(r)
		if clientID == "" {
			clientID = uuid.NewString()
			s.SetClientCookie(w, clientID, r)
		}

		store, err := s.registry.Get(r.Context(), clientID)
		if err != nil {
			log.Err(err).Str("client", clientID).Msg("Failed to load client session")
			status := http.StatusInternalServerError
			if errors.Is(err, autherrors.ErrStorageUnavailable) {
				status = http.StatusServiceUnavailable
			}
			if isAPIRequest(r) {
				writeJSONError(w, status, "session_unavailable", "Session storage is unavailable")
				return
			}
			http.Error(w, "Session storage is unavailable", status)
			return
		}

		next(w, r.WithContext(session.NewContext(r.Context(), store)))
	}
}

// RequireSession guards protected views. Unauthenticated clients have the requested
// path saved as their post-login destination and are redirected to the login page.
// The 303 replaces the navigation so the guarded view never enters history.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			http.Error(w, "No active session", http.StatusBadRequest)
			return
		}

		target := r.URL.RequestURI()
		decision := guard.Evaluate(store.State(), target)
		if decision.Allow {
			next(w, r)
			return
		}

		if err := store.SaveRedirect(r.Context(), target); err != nil {
			log.Warn().Err(err).Str("path", target).Msg("Failed to save redirect path")
		}
		redirectSuccess(w, r, decision.Redirect)
	}
}

func clientIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(clientCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}
