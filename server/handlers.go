package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/users"
)

const healthCheckTimeout = 2 * time.Second

// CredentialsRequest is the body of the login and register API calls
type CredentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful API login
type LoginResponse struct {
	User     *users.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// SessionStateHandler returns the client's session snapshot (GET /api/session)
func (s *Server) SessionStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, store.State())
	}
}

// APILoginHandler verifies credentials and starts a session (POST /api/login)
func (s *Server) APILoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}

		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
			return
		}

		destination := s.destination(r, store)
		user, err := store.Login(r.Context(), req.Phone, req.Password)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{User: user, Redirect: destination})
	}
}

// APIRegisterHandler enrolls a new identity (POST /api/register)
func (s *Server) APIRegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}

		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
			return
		}

		result, err := store.Register(r.Context(), req.Phone, req.Password)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// APILogoutHandler ends the client's session (POST /api/logout)
func (s *Server) APILogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		store.Logout(r.Context())
		writeJSON(w, http.StatusOK, store.State())
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.healthCheck != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := s.healthCheck(ctx); err != nil {
				log.Err(err).Msg("Health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeSessionError maps session failures onto HTTP statuses
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Phone or password is incorrect")
	case errors.Is(err, session.ErrInvalidRegistrationData):
		writeJSONError(w, http.StatusBadRequest, "invalid_registration_data", err.Error())
	case errors.Is(err, session.ErrOperationInProgress):
		writeJSONError(w, http.StatusConflict, "operation_in_progress", err.Error())
	case errors.Is(err, session.ErrNoActiveSession):
		writeJSONError(w, http.StatusBadRequest, "no_active_session", err.Error())
	case errors.Is(err, autherrors.ErrStorageUnavailable):
		log.Err(err).Msg("Session storage unavailable")
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Session storage is unavailable, please try again")
	case errors.Is(err, session.ErrNotHydrated):
		writeJSONError(w, http.StatusInternalServerError, "not_hydrated", err.Error())
	default:
		log.Err(err).Msg("Session operation failed")
		writeJSONError(w, http.StatusInternalServerError, "unexpected_error", "Something went wrong, please try again")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}
