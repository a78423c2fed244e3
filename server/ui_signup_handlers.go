package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/users"
)

const (
	msgRegistrationInvalid = "Please enter a phone number and a password of at least 6 characters"
	msgRegistrationExists  = "Registration failed, this phone number may already be registered"
	msgRegistrationRetry   = "Registration failed, please try again"
)

// RegisterPageData contains data for rendering the registration page
type RegisterPageData struct {
	AppName         string
	Title           string
	CSRFField       template.HTML
	Error           string
	Phone           string
	MinSecretLength int
}

// RegisterPageUIHandler displays the registration page (GET /register)
func (s *Server) RegisterPageUIHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := RegisterPageData{
			AppName:         s.config.GetAppName(),
			Title:           "Register",
			CSRFField:       csrf.TemplateField(r),
			Error:           r.URL.Query().Get("error"),
			Phone:           r.URL.Query().Get("phone"),
			MinSecretLength: users.MinSecretLength,
		}
		renderTemplate(w, tmpl, data)
	}
}

// RegisterSubmissionHandler enrolls the identity and sends the client to log in.
// Registration never signs the client in.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
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

		if phone != "" {
			if err := users.ValidatePhone(phone); err != nil {
				redirectWithError(w, r, RouteRegister, msgInvalidPhone, retry)
				return
			}
		}

		if _, err := store.Register(r.Context(), phone, password); err != nil {
			switch {
			case errors.Is(err, autherrors.ErrUserExists):
				redirectWithError(w, r, RouteRegister, msgRegistrationExists, retry)
			case errors.Is(err, session.ErrInvalidRegistrationData):
				redirectWithError(w, r, RouteRegister, msgRegistrationInvalid, retry)
			case errors.Is(err, session.ErrOperationInProgress):
				redirectWithError(w, r, RouteRegister, msgInProgress, retry)
			default:
				logError(r.Method, r.URL.Path, err.Error())
				redirectWithError(w, r, RouteRegister, msgRegistrationRetry, retry)
			}
			return
		}

		redirectSuccess(w, r, RouteLogin+"?"+url.Values{"registered": {"1"}, "phone": {phone}}.Encode())
	}
}
