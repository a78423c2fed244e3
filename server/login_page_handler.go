package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-journal-auth/guard"
	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/users"
)

const (
	msgPhonePasswordRequired = "Phone and password are required"
	msgInvalidPhone          = "Please enter a valid mobile number"
	msgLoginFailed           = "Login failed, please check your phone and password"
	msgLoginRetry            = "Login failed, please try again"
	msgInProgress            = "A sign-in is already in progress, please wait"
	msgRegistered            = "Registration successful, please log in"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName   string
	Title     string
	CSRFField template.HTML
	Error     string
	Notice    string
	Phone     string // Preserve phone on error
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			http.Error(w, "No active session", http.StatusBadRequest)
			return
		}

		// Already signed in, go straight to the destination
		if store.State().Authenticated {
			redirectSuccess(w, r, s.destination(r, store))
			return
		}

		data := LoginPageData{
			AppName:   s.config.GetAppName(),
			Title:     "Log in",
			CSRFField: csrf.TemplateField(r),
			Error:     r.URL.Query().Get("error"),
			Phone:     r.URL.Query().Get("phone"),
		}
		if r.URL.Query().Get("registered") == "1" {
			data.Notice = msgRegistered
		}
		renderTemplate(w, loginTmpl, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			http.Error(w, "No active session", http.StatusBadRequest)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		phone := strings.TrimSpace(r.FormValue("phone"))
		password := r.FormValue("password")
		retry := url.Values{"phone": {phone}}

		if phone == "" || password == "" {
			redirectWithError(w, r, RouteLogin, msgPhonePasswordRequired, retry)
			return
		}
		if err := users.ValidatePhone(phone); err != nil {
			redirectWithError(w, r, RouteLogin, msgInvalidPhone, retry)
			return
		}

		// Read before Login, which clears the saved path
		destination := s.destination(r, store)

		if _, err := store.Login(r.Context(), phone, password); err != nil {
			switch {
			case errors.Is(err, session.ErrInvalidCredentials):
				redirectWithError(w, r, RouteLogin, msgLoginFailed, retry)
			case errors.Is(err, session.ErrOperationInProgress):
				redirectWithError(w, r, RouteLogin, msgInProgress, retry)
			default:
				logError(r.Method, r.URL.Path, err.Error())
				redirectWithError(w, r, RouteLogin, msgLoginRetry, retry)
			}
			return
		}

		redirectSuccess(w, r, destination)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store, err := session.FromContext(r.Context()); err == nil {
			store.Logout(r.Context())
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

// destination resolves where an authenticated client should land
func (s *Server) destination(r *http.Request, store *session.Store) string {
	saved, err := store.PendingRedirect(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read redirect path")
	}
	return guard.ResolveDestination(saved)
}
