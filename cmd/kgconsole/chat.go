// ABOUTME: Chat assistant commands: send a message and clear a conversation
// ABOUTME: Replies print as markdown, or as HTML with --html

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/console"
)

func newChatCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the knowledge assistant",
	}
	cmd.AddCommand(newChatSendCmd(c), newChatClearCmd(c))
	return cmd
}

func newChatSendCmd(c *cli) *cobra.Command {
	var sessionID string
	var html bool

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.view("/chat", func(cmd *cobra.Command, app *console.App, args []string) error {
			newSession := sessionID == ""
			if newSession {
				sessionID = api.NewChatSessionID()
			}

			resp, err := app.Client.SendMessage(cmd.Context(), api.ChatRequest{
				Message:   strings.Join(args, " "),
				SessionID: sessionID,
			})
			if err != nil {
				return reported(err)
			}

			reply := resp.Message
			if html {
				if reply, err = api.RenderReplyHTML(resp.Message); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
			if newSession {
				dim.Fprintf(out, "session: %s (continue with --session)\n", resp.SessionID)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "conversation id (a new one is created when empty)")
	cmd.Flags().BoolVar(&html, "html", false, "render the reply as HTML")
	return cmd
}

func newChatClearCmd(c *cli) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a conversation's history",
		Args:  cobra.NoArgs,
		RunE: c.view("/chat", func(cmd *cobra.Command, app *console.App, _ []string) error {
			if err := app.Client.ClearHistory(cmd.Context(), sessionID); err != nil {
				return reported(err)
			}
			app.Notifier.Success("conversation cleared")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", api.DefaultChatSession, "conversation id")
	return cmd
}
