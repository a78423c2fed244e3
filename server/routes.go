package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.FormMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.FormMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.ClientSession)...))

	// REGISTRATION
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageUIHandler(), s.FormMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.FormMiddleware()...))

	// Protected views (guarded, unauthenticated clients are sent to the login page)
	s.RegisterRouteHandler("GET "+RouteJournal, ChainMiddleware(s.JournalHandler(), s.HTMLMiddleWare(s.ClientSession, s.RequireSession)...))
	s.RegisterRouteHandler("GET "+RouteConsentForm, ChainMiddleware(s.ConsentFormHandler(), s.HTMLMiddleWare(s.ClientSession, s.RequireSession)...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionStateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPILogin, ChainMiddleware(s.APILoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRegister, ChainMiddleware(s.APIRegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPILogout, ChainMiddleware(s.APILogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /api/{path...}", ChainMiddleware(notFoundHandler, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
