// Package console ties the session, guard and API client into a navigable console.
//
// Navigator owns the current view path and sends every transition through the
// guard. It is also the API client's 401 hook: the session is dropped locally and
// the navigator moves to the login view.
//
// App is the wired whole, built by Open from a *config.Config:
//
//	app, err := console.Open(ctx, cfg)
//	if err != nil { ... }
//	defer app.Close()
//
//	app.Session.Login(ctx, "admin", password)
//	view, err := app.Show(ctx, "/logs")
package console
