// ABOUTME: Entry point for kgconsole, the terminal client for the workshop admin service
// ABOUTME: Builds the cobra command tree and opens the wired console for each command

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/config"
	"github.com/workshop/kgconsole/internal/console"
	"github.com/workshop/kgconsole/internal/guard"
)

// errReported marks failures the user was already told about through a notice.
var errReported = errors.New("already reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			color.Red("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// cli carries flags shared by every command.
type cli struct {
	configPath string
	openOpts   []console.Option
}

func newRootCmd(opts ...console.Option) *cobra.Command {
	c := &cli{openOpts: opts}

	root := &cobra.Command{
		Use:           "kgconsole",
		Short:         "Terminal console for the workshop admin service",
		Long:          "kgconsole signs in to the admin service and manages users, the chat assistant,\nthe knowledge graph and operation logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $KGCONSOLE_CONFIG or ~/.config/kgconsole/config.yaml)")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newOpenCmd(c),
		newUsersCmd(c),
		newChatCmd(c),
		newGraphCmd(c),
		newLogsCmd(c),
	)
	return root
}

// loadConfig reads --config when given, otherwise the default location if present.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	return config.LoadOrDefault(config.Path())
}

// run opens the console around fn and closes it afterwards.
func (c *cli) run(fn func(cmd *cobra.Command, app *console.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := c.loadConfig()
		if err != nil {
			return err
		}
		app, err := console.Open(cmd.Context(), cfg, c.openOpts...)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(cmd, app, args)
	}
}

// view runs fn after the guard admits the session to path.
func (c *cli) view(path string, fn func(cmd *cobra.Command, app *console.App, args []string) error) func(*cobra.Command, []string) error {
	return c.run(func(cmd *cobra.Command, app *console.App, args []string) error {
		if err := enter(app, path); err != nil {
			return err
		}
		return fn(cmd, app, args)
	})
}

// enter navigates to path and turns a guard redirect into an error.
func enter(app *console.App, path string) error {
	step, err := app.Navigator.Navigate(path)
	if err != nil {
		return err
	}
	switch step.Redirected {
	case guard.ReasonAuthRequired:
		return errors.New("not logged in (run: kgconsole login)")
	case guard.ReasonAdminRequired:
		return errors.New("this view requires an administrator account")
	}
	return nil
}

// reported marks API failures as already shown: the client emitted a notice for them.
func reported(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) || errors.Is(err, api.ErrNetwork) {
		return errors.Join(errReported, err)
	}
	return err
}
