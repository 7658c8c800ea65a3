package server

import "github.com/jrsteele09/knowledge-hub/internal/metrics"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware(RouteLogin))...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware(RouteCallback))...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.RequireSession(s.DashboardHandler()), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RequestIDMiddleware, s.RecoverMiddleware))
	if s.config.GetEnableMetrics() && s.gatherer != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler(s.gatherer))
	}

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.StaticAssetHandler("css"), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.StaticAssetHandler("js"), s.HTMLMiddleWare()...))

	s.router.NotFound(ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))
}
