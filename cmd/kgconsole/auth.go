// ABOUTME: Session commands: login, logout, whoami, and open
// ABOUTME: Passwords are read without echo when stdin is a terminal

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/workshop/kgconsole/internal/console"
)

func newLoginCmd(c *cli) *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *console.App, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
				line, err := readLine(in)
				if err != nil {
					return fmt.Errorf("reading username: %w", err)
				}
				username = line
			}

			password, err := readPassword(cmd, in, passwordStdin)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			if !app.Session.Login(cmd.Context(), username, password) {
				return errReported
			}
			if _, err := app.Navigator.Navigate(app.Guard.LoginPath()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s, landing view %s\n", username, app.Navigator.Current())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *console.App, _ []string) error {
			app.Session.Logout(cmd.Context())
			return nil
		}),
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Refresh and show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *console.App, _ []string) error {
			if !app.Session.IsAuthenticated() {
				return errors.New("not logged in (run: kgconsole login)")
			}
			app.Session.FetchCurrentUser(cmd.Context())

			user := app.Session.User()
			if user == nil {
				return errors.New("session is no longer valid, please log in again")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username: %s\n", user.Username)
			fmt.Fprintf(out, "ID:       %d\n", user.ID)
			fmt.Fprintf(out, "Type:     %s\n", userTypeLabel(user.UserType))
			fmt.Fprintf(out, "Status:   %s\n", userStatusLabel(user.Status))
			if exp, ok := app.Session.ExpiresAt(); ok {
				left := time.Until(exp).Round(time.Second)
				if app.Session.Expired() {
					fmt.Fprintf(out, "Token:    %s\n", red.Sprintf("expired at %s", exp.Local().Format(time.RFC3339)))
				} else {
					fmt.Fprintf(out, "Token:    expires %s (in %s)\n", exp.Local().Format(time.RFC3339), left)
				}
			}
			return nil
		}),
	}
}

func newOpenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>...",
		Short: "Navigate to console views and print what they show",
		Long:  "Navigate to views such as /users, /users/3, /chat, /knowledge-graph, /logs or /logs/7.\nThe access guard may redirect to /login or /users. Several paths are visited in order\nand the route taken is printed at the end.",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *console.App, args []string) error {
			out := cmd.OutOrStdout()
			for _, target := range args {
				view, err := app.Show(cmd.Context(), target)
				if view != nil {
					if view.Path != target {
						fmt.Fprintf(out, "%s %s\n", cyan.Sprint("→"), view.Path)
					} else {
						fmt.Fprintln(out, view.Path)
					}
					if err == nil && view.Data != nil {
						if perr := printJSON(out, view.Data); perr != nil {
							return perr
						}
					}
				}
				if err != nil {
					return reported(err)
				}
			}
			if len(args) > 1 {
				trail := append(app.Navigator.History(), app.Navigator.Current())
				dim.Fprintf(out, "history: %s\n", strings.Join(trail, " → "))
			}
			return nil
		}),
	}
}

// readLine reads one line without its terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads from stdin when asked to, prompts without echo on a terminal,
// and otherwise reads a line.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if !fromStdin && cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(in)
}
