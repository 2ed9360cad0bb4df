// ABOUTME: Navigator owning the console's current view
// ABOUTME: Routes every transition through the guard and handles forced logout on 401

package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/workshop/kgconsole/internal/guard"
	"github.com/workshop/kgconsole/internal/session"
)

// DefaultHistorySize bounds the navigation history.
const DefaultHistorySize = 50

// SessionControl is what the navigator needs from the session: one consistent
// snapshot per decision, plus local invalidation.
type SessionControl interface {
	Snapshot() session.State
	ForceLogout(ctx context.Context)
}

// Step is the outcome of one navigation.
type Step struct {
	// Path is where navigation ended.
	Path string
	// Decision is the guard decision that admitted Path.
	Decision guard.Decision
	// Redirected is the reason the requested target was refused, "" when it was
	// admitted directly.
	Redirected guard.Reason
}

// Navigator holds the current path. It starts empty; the first Navigate sets it.
type Navigator struct {
	mu      sync.Mutex
	current string
	history []string
	maxHist int

	guard   *guard.Guard
	session SessionControl
	logger  *slog.Logger
}

// NewNavigator creates a navigator over g and s.
func NewNavigator(g *guard.Guard, s SessionControl, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		guard:   g,
		session: s,
		maxHist: DefaultHistorySize,
		logger:  logger.With("component", "navigator"),
	}
}

// Navigate asks the guard about target, follows any redirects, and makes the
// resulting path current. Every hop is judged against the same session snapshot.
// On error the current path is unchanged.
func (n *Navigator) Navigate(target string) (Step, error) {
	snap := n.session.Snapshot()
	first := n.guard.Decide(target, snap)
	final, decision, err := n.guard.Resolve(target, snap)
	if err != nil {
		n.logger.Warn("navigation failed", "target", target, "error", err)
		return Step{}, err
	}

	step := Step{Path: final, Decision: decision}
	if !first.Allowed {
		step.Redirected = first.Reason
		n.logger.Debug("navigation redirected", "target", target, "to", final, "reason", first.Reason)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != "" {
		n.history = append(n.history, n.current)
		if len(n.history) > n.maxHist {
			n.history = n.history[len(n.history)-n.maxHist:]
		}
	}
	n.current = final
	return step, nil
}

// Current returns the current path, "" before the first navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns earlier paths, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// HandleUnauthorized is the API client's 401 hook: drop the session locally and
// go to the login view.
func (n *Navigator) HandleUnauthorized(ctx context.Context) {
	n.session.ForceLogout(ctx)
	if _, err := n.Navigate(n.guard.LoginPath()); err != nil {
		n.logger.Error("redirecting to login", "error", err)
	}
}
