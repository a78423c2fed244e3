package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-journal-auth/internal/config"
	"github.com/jrsteele09/go-journal-auth/session"
)

// csrfKeyLength is the auth key size gorilla/csrf expects
const csrfKeyLength = 32

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	registry    *session.Registry
	csrf        func(http.Handler) http.Handler
	healthCheck func(ctx context.Context) error
}

// Option modifies a Server at construction
type Option func(*Server)

// WithHealthCheck sets the check run by the health endpoint, typically a storage ping
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

func New(config config.Config, registry *session.Registry, options ...Option) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("[Server New] session registry is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		registry: registry,
	}
	s.env = config.GetEnv()
	for _, opt := range options {
		opt(s)
	}

	if key := config.GetCSRFKey(); key != "" {
		if len(key) != csrfKeyLength {
			return nil, fmt.Errorf("[Server New] CSRF key must be %d bytes, got %d", csrfKeyLength, len(key))
		}
		s.csrf = csrf.Protect(
			[]byte(key),
			csrf.Secure(config.GetSecureCookies()),
			csrf.HttpOnly(true),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
		)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Printf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Printf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
