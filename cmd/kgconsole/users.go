// ABOUTME: User management commands: list, get, create, update, delete
// ABOUTME: Runs inside the /users view so the access guard applies

package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/console"
	"github.com/workshop/kgconsole/internal/session"
)

func newUsersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage user accounts",
	}
	cmd.AddCommand(
		newUsersListCmd(c),
		newUsersGetCmd(c),
		newUsersCreateCmd(c),
		newUsersUpdateCmd(c),
		newUsersDeleteCmd(c),
	)
	return cmd
}

func newUsersListCmd(c *cli) *cobra.Command {
	var q api.UserQuery
	var userType, status int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: c.view("/users", func(cmd *cobra.Command, app *console.App, _ []string) error {
			if cmd.Flags().Changed("type") {
				q.UserType = &userType
			}
			if cmd.Flags().Changed("status") {
				q.Status = &status
			}

			list, err := app.Client.ListUsers(cmd.Context(), q)
			if err != nil {
				return reported(err)
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tUSERNAME\tTYPE\tSTATUS\tCREATED")
			for _, u := range list.Items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, userTypeLabel(u.UserType), userStatusLabel(u.Status), orDash(u.CreatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			dim.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(list.Items), list.Total)
			return nil
		}),
	}
	cmd.Flags().IntVar(&q.Skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "records to return")
	cmd.Flags().StringVar(&q.Username, "username", "", "filter by username (partial match)")
	cmd.Flags().IntVar(&userType, "type", 0, "filter by user type (0 user, 1 admin)")
	cmd.Flags().IntVar(&status, "status", 0, "filter by status (0 disabled, 1 enabled)")
	return cmd
}

func newUsersGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *console.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := enter(app, fmt.Sprintf("/users/%d", id)); err != nil {
				return err
			}
			user, err := app.Client.GetUser(cmd.Context(), id)
			if err != nil {
				return reported(err)
			}
			printUser(cmd, user)
			return nil
		}),
	}
}

func newUsersCreateCmd(c *cli) *cobra.Command {
	var password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: c.view("/users", func(cmd *cobra.Command, app *console.App, args []string) error {
			if password == "" {
				p, err := readPassword(cmd, bufio.NewReader(cmd.InOrStdin()), false)
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = p
			}
			in := api.UserCreate{Username: args[0], Password: password, UserType: session.UserTypeNormal}
			if admin {
				in.UserType = session.UserTypeAdmin
			}

			user, err := app.Client.CreateUser(cmd.Context(), in)
			if err != nil {
				return reported(err)
			}
			app.Notifier.Success(fmt.Sprintf("created user %s (id %d)", user.Username, user.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "", "initial password (prompted when empty)")
	cmd.Flags().BoolVar(&admin, "admin", false, "create an administrator")
	return cmd
}

func newUsersUpdateCmd(c *cli) *cobra.Command {
	var password string
	var enable, disable bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a user's password or status",
		Args:  cobra.ExactArgs(1),
		RunE: c.view("/users", func(cmd *cobra.Command, app *console.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var in api.UserUpdate
			if password != "" {
				in.Password = &password
			}
			switch {
			case enable && disable:
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			case enable:
				s := session.UserStatusEnabled
				in.Status = &s
			case disable:
				s := session.UserStatusDisabled
				in.Status = &s
			}
			if in.Password == nil && in.Status == nil {
				return fmt.Errorf("nothing to update: pass --password, --enable or --disable")
			}

			user, err := app.Client.UpdateUser(cmd.Context(), id, in)
			if err != nil {
				return reported(err)
			}
			app.Notifier.Success(fmt.Sprintf("updated user %s", user.Username))
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().BoolVar(&enable, "enable", false, "enable the account")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable the account")
	return cmd
}

func newUsersDeleteCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: c.view("/users", func(cmd *cobra.Command, app *console.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete user %d? This cannot be undone. (yes/no): ", id)
				answer, _ := readLine(bufio.NewReader(cmd.InOrStdin()))
				if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
					return nil
				}
			}
			if err := app.Client.DeleteUser(cmd.Context(), id); err != nil {
				return reported(err)
			}
			app.Notifier.Success(fmt.Sprintf("deleted user %d", id))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func printUser(cmd *cobra.Command, u *session.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %d\n", u.ID)
	fmt.Fprintf(out, "Username: %s\n", u.Username)
	fmt.Fprintf(out, "Type:     %s\n", userTypeLabel(u.UserType))
	fmt.Fprintf(out, "Status:   %s\n", userStatusLabel(u.Status))
	fmt.Fprintf(out, "Created:  %s\n", orDash(u.CreatedAt))
	fmt.Fprintf(out, "Updated:  %s\n", orDash(u.UpdatedAt))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
