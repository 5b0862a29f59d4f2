package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	api := s.APIMiddleware

	// AUTH
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), api()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), api()...))
	s.RegisterRouteHandler("POST "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), api()...)) // For form_post response mode
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), api()...))
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), api()...))

	// PROTECTED
	s.RegisterRouteHandler("GET "+RouteProtected, ChainMiddleware(s.ProtectedHandler(), api()...))

	// OPERATIONS
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.gateway.Metrics().Registry, promhttp.HandlerOpts{}))
	s.RegisterRouteHandler("GET "+RouteInfo+"{$}", ChainMiddleware(s.InfoHandler(), api()...))
}
