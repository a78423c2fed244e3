package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler) // Call the middleware function
	}
	return chainedHandler
}

func (s *Server) HTMLMiddleWare(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.WWWRedirectMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

// FormMiddleware is the HTML chain for pages that render or accept a form
func (s *Server) FormMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return s.HTMLMiddleWare(s.CSRFMiddleware, s.ClientSession)
}

func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.CorsMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.ClientSession,
	}
}

func (s *Server) WWWRedirectMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		// If host starts with www., redirect to non-www
		if strings.HasPrefix(host, "www.") {
			nonWWWHost := strings.TrimPrefix(host, "www.")
			newURL := fmt.Sprintf("https://%s%s", nonWWWHost, r.RequestURI)
			http.Redirect(w, r, newURL, http.StatusMovedPermanently)
			return
		}
		next(w, r)
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		logRoute(r.Method, r.URL.Path)
		next(w, r)
	}
}

func (s *Server) FrameSecurityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next(w, r)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// CSRFMiddleware applies gorilla/csrf when a key is configured. Plain HTTP requests
// are marked so the origin check does not demand a TLS referer.
func (s *Server) CSRFMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.csrf == nil {
		return next
	}
	protected := s.csrf(next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && getScheme(r) == "http" {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protected.ServeHTTP(w, r)
	}
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("CSRF validation failed")

	if strings.Contains(r.Header.Get("Accept"), contentTypeJSON) {
		writeJSONError(w, http.StatusForbidden, "csrf_failed", "CSRF token invalid or missing")
		return
	}

	// Form submissions go back to the form they came from
	if r.URL.Path == RouteAuthRegister {
		redirectWithError(w, r, RouteRegister, "Your form expired. Please try again.", nil)
		return
	}
	if r.URL.Path == RouteAuthLogin {
		redirectWithError(w, r, RouteLogin, "Your form expired. Please try again.", nil)
		return
	}
	http.Error(w, "Forbidden - CSRF token invalid or missing", http.StatusForbidden)
}

func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// No Origin header = same-origin request, no CORS headers needed
		if origin == "" {
			next(w, r)
			return
		}

		allowedOrigins := s.config.GetAllowedOrigins()
		isAllowed := allowedOrigins.IsAllowedOrigin(origin)
		isWildcard := allowedOrigins.IsAllowedOrigin("*")

		// Handle preflight (OPTIONS) requests
		if r.Method == http.MethodOptions {
			if isAllowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
			} else if isWildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
				// Don't set Allow-Credentials with wildcard
			}
			// Not allowed: 200 with no CORS headers, the browser blocks the real request
			w.WriteHeader(http.StatusOK)
			return
		}

		if isAllowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		} else if isWildcard {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		next(w, r)
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}
