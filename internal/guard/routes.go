// ABOUTME: Static route table for the admin console views
// ABOUTME: Each route declares whether it needs a session and whether it needs an administrator

package guard

// Route describes one navigable view.
type Route struct {
	// Path is a gorilla/mux path template, e.g. "/users/{id:[0-9]+}".
	Path string
	// Name identifies the view.
	Name string
	// RequiresAuth sends unauthenticated sessions to the login route.
	RequiresAuth bool
	// RequiresAdmin sends authenticated non-administrators to the landing route.
	RequiresAdmin bool
	// Redirect, when set, makes the route an alias for another path.
	Redirect string
}

// Default paths
const (
	LoginPath   = "/login"
	LandingPath = "/users"
)

// Route names in the default table
const (
	RouteLogin          = "Login"
	RouteLayout         = "Layout"
	RouteUsers          = "Users"
	RouteUserDetail     = "UserDetail"
	RouteChat           = "Chat"
	RouteKnowledgeGraph = "KnowledgeGraph"
	RouteOperationLogs  = "OperationLogs"
	RouteOperationLog   = "OperationLog"
)

// DefaultRoutes returns the console's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: LoginPath, Name: RouteLogin},
		{Path: "/", Name: RouteLayout, RequiresAuth: true, Redirect: LandingPath},
		{Path: "/users", Name: RouteUsers, RequiresAuth: true},
		{Path: "/users/{id:[0-9]+}", Name: RouteUserDetail, RequiresAuth: true},
		{Path: "/chat", Name: RouteChat, RequiresAuth: true},
		{Path: "/knowledge-graph", Name: RouteKnowledgeGraph, RequiresAuth: true},
		{Path: "/logs", Name: RouteOperationLogs, RequiresAuth: true, RequiresAdmin: true},
		{Path: "/logs/{id:[0-9]+}", Name: RouteOperationLog, RequiresAuth: true, RequiresAdmin: true},
	}
}
