package server

import "github.com/jrsteele09/go-journal-auth/guard"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes - Login, Registration & Logout
	RouteLogin        = guard.LoginRoute
	RouteRegister     = guard.RegisterRoute
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"

	// Protected views
	RouteJournal     = guard.JournalRoute
	RouteConsentForm = "/consent-form"

	// API Routes
	RouteAPISession  = "/api/session"
	RouteAPILogin    = "/api/login"
	RouteAPIRegister = "/api/register"
	RouteAPILogout   = "/api/logout"

	RouteHealth = "/healthz"
)
