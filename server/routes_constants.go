package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Token lifecycle routes
	RouteTokens      = "/tokens"
	RouteTokenByID   = "/tokens/{id}"
	RouteManageToken = "/tokens"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// Trusted identity headers, populated by the upstream authentication proxy.
// Nothing else on the request is trusted for identity.
const (
	HeaderAuthUser  = "X-Auth-Request-User"
	HeaderAuthScope = "X-Auth-Request-Scope"
)

const contentTypeJSON = "application/json; charset=utf-8"
