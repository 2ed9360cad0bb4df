// ABOUTME: Navigation guard deciding whether a view transition is allowed or redirected
// ABOUTME: Pure function of the target path and the current session's auth/admin flags

package guard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/gorilla/mux"
)

// ErrRedirectLoop is returned by Resolve when redirects do not settle
var ErrRedirectLoop = errors.New("redirect loop")

// maxRedirects bounds Resolve
const maxRedirects = 8

// Session is the part of the session state the guard reads.
type Session interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Reason explains a decision.
type Reason string

const (
	ReasonAllowed              Reason = "allowed"
	ReasonAuthRequired         Reason = "auth_required"
	ReasonAdminRequired        Reason = "admin_required"
	ReasonAlreadyAuthenticated Reason = "already_authenticated"
	ReasonUnknownPath          Reason = "unknown_path"
	ReasonAlias                Reason = "alias"
)

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Allowed  bool
	Redirect string            // target path when not allowed
	Route    *Route            // matched route, nil for unknown paths
	Params   map[string]string // path template variables
	Reason   Reason
}

func (d Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("allow %s", d.Route.Name)
	}
	return fmt.Sprintf("redirect %s (%s)", d.Redirect, d.Reason)
}

// Guard evaluates transitions against a compiled route table.
type Guard struct {
	router  *mux.Router
	routes  map[string]*Route // by name
	login   string
	landing string
}

// Option configures a Guard.
type Option func(*Guard)

// WithLoginPath overrides the login route path.
func WithLoginPath(p string) Option {
	return func(g *Guard) { g.login = p }
}

// WithLandingPath overrides the default landing path.
func WithLandingPath(p string) Option {
	return func(g *Guard) { g.landing = p }
}

// New compiles routes. The login path must match a route that does not require
// authentication, and the landing path one that does not require an administrator;
// otherwise redirects could never settle.
func New(routes []Route, opts ...Option) (*Guard, error) {
	g := &Guard{
		router:  mux.NewRouter(),
		routes:  make(map[string]*Route, len(routes)),
		login:   LoginPath,
		landing: LandingPath,
	}
	for _, opt := range opts {
		opt(g)
	}

	for i := range routes {
		r := routes[i]
		if r.Name == "" || r.Path == "" {
			return nil, fmt.Errorf("route %d: name and path are required", i)
		}
		if _, dup := g.routes[r.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", r.Name)
		}
		mr := g.router.Path(r.Path).Name(r.Name)
		if err := mr.GetError(); err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Name, err)
		}
		g.routes[r.Name] = &r
	}

	login, _ := g.match(g.login)
	if login == nil || login.RequiresAuth {
		return nil, fmt.Errorf("login path %q must match a route that does not require auth", g.login)
	}
	landing, _ := g.match(g.landing)
	if landing == nil || landing.RequiresAdmin || landing.Redirect != "" {
		return nil, fmt.Errorf("landing path %q must match a non-admin route without redirect", g.landing)
	}

	return g, nil
}

// LoginPath returns the configured login path.
func (g *Guard) LoginPath() string { return g.login }

// LandingPath returns the configured landing path.
func (g *Guard) LandingPath() string { return g.landing }

// normalize strips query and fragment and cleans the path.
func normalize(target string) string {
	if u, err := url.Parse(target); err == nil {
		target = u.Path
	}
	if target == "" {
		return "/"
	}
	cleaned := path.Clean("/" + target)
	return cleaned
}

// match finds the route for p and its template variables.
func (g *Guard) match(p string) (*Route, map[string]string) {
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: normalize(p)}}
	var m mux.RouteMatch
	if !g.router.Match(req, &m) || m.Route == nil {
		return nil, nil
	}
	return g.routes[m.Route.GetName()], m.Vars
}

// Decide evaluates one transition to target. Rules, first match wins:
//
//  1. requires auth, not authenticated          -> login
//  2. requires admin, authenticated, not admin  -> landing
//  3. login route, authenticated                -> landing
//  4. unknown path                              -> landing
//  5. alias route                               -> its target
//  6. otherwise                                 -> allow
func (g *Guard) Decide(target string, s Session) Decision {
	p := normalize(target)
	route, params := g.match(p)

	// Rules 1-3 need a matched route, so the catch-all can be checked first.
	if route == nil {
		return Decision{Redirect: g.landing, Reason: ReasonUnknownPath}
	}
	d := Decision{Route: route, Params: params}

	authed := s.IsAuthenticated()
	switch {
	case route.RequiresAuth && !authed:
		d.Redirect, d.Reason = g.login, ReasonAuthRequired
	case route.RequiresAdmin && authed && !s.IsAdmin():
		d.Redirect, d.Reason = g.landing, ReasonAdminRequired
	case p == normalize(g.login) && authed:
		d.Redirect, d.Reason = g.landing, ReasonAlreadyAuthenticated
	case route.Redirect != "":
		d.Redirect, d.Reason = route.Redirect, ReasonAlias
	default:
		d.Allowed, d.Reason = true, ReasonAllowed
	}
	return d
}

// Resolve follows redirects from target until a decision allows a view. It returns
// the final path and decision.
func (g *Guard) Resolve(target string, s Session) (string, Decision, error) {
	p := normalize(target)
	for hop := 0; hop <= maxRedirects; hop++ {
		d := g.Decide(p, s)
		if d.Allowed {
			return p, d, nil
		}
		p = normalize(d.Redirect)
	}
	return "", Decision{}, fmt.Errorf("%w starting at %s", ErrRedirectLoop, target)
}
