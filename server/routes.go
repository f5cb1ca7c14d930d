package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// Token lifecycle routes (behind the trusted identity assertion)
	s.RegisterRouteHandler("GET "+RouteTokens, ChainMiddleware(s.ListTokensHandler(), s.APIMiddleware(s.CountLifecycle("list"), s.TrustedIdentity())...))
	s.RegisterRouteHandler("GET "+RouteTokenByID, ChainMiddleware(s.DisplayTokenHandler(), s.APIMiddleware(s.CountLifecycle("display"), s.TrustedIdentity())...))
	s.RegisterRouteHandler("POST "+RouteManageToken, ChainMiddleware(s.ManageTokensHandler(), s.APIMiddleware(s.CountLifecycle("manage"), s.TrustedIdentity())...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
