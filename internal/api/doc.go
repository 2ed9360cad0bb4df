// Package api is the HTTP client for the workshop admin service.
//
// # Overview
//
// Client sends JSON requests below the configured base URL (default
// http://localhost:8000/api) and attaches "Authorization: Bearer <token>" whenever its
// TokenSource holds a token. The session store is the usual TokenSource.
//
// # Error Policy
//
// Every failed request yields exactly one notice:
//
//	401            "unauthorized, please log in again", then the OnUnauthorized hook
//	403            "permission denied"
//	404            "requested resource does not exist"
//	500            "server error"
//	other non-2xx  the body's detail, else "request failed"
//	no response    "network error" (error wraps ErrNetwork)
//
// The error is still returned to the caller as *APIError or a wrapped ErrNetwork.
// Requests made with Quiet() skip the notice and the hook; AuthService uses it
// so the session store decides what the user sees.
//
// # Endpoints
//
// AuthService implements session.AuthService (login, logout, me). The Client
// itself carries the users, chat, knowledge graph and operation log calls.
package api
