// Package guard decides whether a console view transition may proceed.
//
// # Overview
//
// A Guard is built once from a static []Route and evaluated fresh for every
// transition; it keeps no memory of earlier decisions. Decide looks at the target
// path and two session flags (authenticated, administrator) and returns either
// Allow or Redirect.
//
// # Rules
//
// First match wins:
//
//  1. requires auth, not authenticated          -> login (/login)
//  2. requires admin, authenticated, not admin  -> landing (/users)
//  3. login route, already authenticated        -> landing
//  4. unknown path                              -> landing
//  5. alias route (Route.Redirect)              -> alias target
//  6. otherwise                                 -> allow
//
// Rule 1 precedes rule 2, so an anonymous visitor to an admin view is sent to
// the login page, not the landing page.
//
// # Paths
//
// Route paths are gorilla/mux templates, so detail views can carry variables
// ("/users/{id:[0-9]+}"). Targets are cleaned and stripped of query strings before
// matching. Resolve follows redirects until a view is allowed.
package guard
