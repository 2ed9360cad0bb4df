// ABOUTME: App bundles the console's collaborators: storage, session, API client, guard, navigator
// ABOUTME: Show navigates to a view and loads the data that view displays

package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/config"
	"github.com/workshop/kgconsole/internal/guard"
	"github.com/workshop/kgconsole/internal/logging"
	"github.com/workshop/kgconsole/internal/notify"
	"github.com/workshop/kgconsole/internal/session"
	"github.com/workshop/kgconsole/internal/storage"
)

// App is a fully wired console.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Notifier  notify.Notifier
	Storage   storage.Storage
	Session   *session.Store
	Client    *api.Client
	Guard     *guard.Guard
	Navigator *Navigator
}

type openOptions struct {
	storage    storage.Storage
	notifier   notify.Notifier
	logger     *slog.Logger
	httpClient *http.Client
	noticeOut  io.Writer
	clock      func() time.Time
}

// Option configures Open.
type Option func(*openOptions)

// WithStorage uses st instead of opening the configured driver. The App still
// closes it.
func WithStorage(st storage.Storage) Option {
	return func(o *openOptions) { o.storage = st }
}

// WithNotifier replaces the console notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *openOptions) { o.notifier = n }
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(h *http.Client) Option {
	return func(o *openOptions) { o.httpClient = h }
}

// WithNoticeOutput sets where the default console notifier writes. Defaults to stderr.
func WithNoticeOutput(w io.Writer) Option {
	return func(o *openOptions) { o.noticeOut = w }
}

// WithClock sets the session's clock for token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *openOptions) { o.clock = now }
}

// Open wires the console from cfg. The session is hydrated before Open returns.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := openOptions{noticeOut: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.New(cfg.Logging, os.Stderr)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notify.NewConsole(o.noticeOut, cfg.Notify.DedupeWindow)
	}

	st := o.storage
	if st == nil {
		var err error
		st, err = storage.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("opening session storage: %w", err)
		}
	}

	apiOpts := []api.Option{api.WithNotifier(notifier), api.WithLogger(logger)}
	if o.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(o.httpClient))
	}

	// Auth calls carry their token explicitly, so this client needs no TokenSource.
	auth := api.NewAuthService(api.New(cfg.API, nil, apiOpts...))

	sessOpts := []session.Option{
		session.WithNotifier(notifier),
		session.WithLogger(logger),
		session.WithAdminUserType(cfg.Session.AdminType()),
	}
	if o.clock != nil {
		sessOpts = append(sessOpts, session.WithClock(o.clock))
	}
	store, err := session.NewStore(ctx, st, auth, sessOpts...)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	g, err := guard.New(guard.DefaultRoutes())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("building route table: %w", err)
	}
	nav := NewNavigator(g, store, logger)

	client := api.New(cfg.API, store, append(apiOpts, api.OnUnauthorized(nav.HandleUnauthorized))...)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Notifier:  notifier,
		Storage:   st,
		Session:   store,
		Client:    client,
		Guard:     g,
		Navigator: nav,
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.Storage.Close()
}

// View is a navigated-to page and the data it shows.
type View struct {
	Path     string
	Decision guard.Decision
	Data     any
}

// Show navigates to target and loads the data of the view it lands on. On a load
// error the returned View reflects wherever the navigator ended up.
func (a *App) Show(ctx context.Context, target string) (*View, error) {
	step, err := a.Navigator.Navigate(target)
	if err != nil {
		return nil, err
	}

	data, err := a.load(ctx, step.Decision)
	if err != nil {
		// A 401 has already moved the navigator to the login view.
		cur := a.Navigator.Current()
		return &View{Path: cur, Decision: a.Guard.Decide(cur, a.Session.Snapshot())}, err
	}
	return &View{Path: step.Path, Decision: step.Decision, Data: data}, nil
}

// load fetches what the route's view displays. Views without remote data return nil.
func (a *App) load(ctx context.Context, d guard.Decision) (any, error) {
	switch d.Route.Name {
	case guard.RouteUsers:
		return a.Client.ListUsers(ctx, api.UserQuery{Limit: 20})
	case guard.RouteUserDetail:
		id, err := strconv.ParseInt(d.Params["id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", d.Params["id"], err)
		}
		return a.Client.GetUser(ctx, id)
	case guard.RouteKnowledgeGraph:
		return a.Client.GraphStatistics(ctx)
	case guard.RouteOperationLogs:
		return a.Client.ListLogs(ctx, api.LogQuery{Limit: 20})
	case guard.RouteOperationLog:
		id, err := strconv.ParseInt(d.Params["id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid log id %q: %w", d.Params["id"], err)
		}
		return a.Client.GetLog(ctx, id)
	default:
		return nil, nil
	}
}
