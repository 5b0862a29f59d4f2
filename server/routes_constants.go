package server

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthLogout   = "/auth/logout"

	// Protected resource
	RouteProtected = "/protected"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
	RouteInfo    = "/"
)
