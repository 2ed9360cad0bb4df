// ABOUTME: Operation log commands: list, get, stats, recent
// ABOUTME: Runs inside the administrator-only /logs view

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/console"
)

const logsView = "/logs"

func newLogsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Browse operation logs (administrators only)",
	}
	cmd.AddCommand(newLogsListCmd(c), newLogsGetCmd(c), newLogsStatsCmd(c), newLogsRecentCmd(c))
	return cmd
}

func newLogsListCmd(c *cli) *cobra.Command {
	var q api.LogQuery
	var status int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operation logs",
		Args:  cobra.NoArgs,
		RunE: c.view(logsView, func(cmd *cobra.Command, app *console.App, _ []string) error {
			if cmd.Flags().Changed("status") {
				q.Status = &status
			}
			list, err := app.Client.ListLogs(cmd.Context(), q)
			if err != nil {
				return reported(err)
			}
			if err := printLogTable(cmd.OutOrStdout(), list.Items); err != nil {
				return err
			}
			dim.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(list.Items), list.Total)
			return nil
		}),
	}
	cmd.Flags().IntVar(&q.Skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "records to return")
	cmd.Flags().StringVar(&q.Username, "username", "", "filter by username")
	cmd.Flags().StringVar(&q.ActionType, "action", "", "filter by action type, e.g. LOGIN")
	cmd.Flags().StringVar(&q.Module, "module", "", "filter by module")
	cmd.Flags().IntVar(&status, "status", 0, "filter by outcome: 1 success, 0 failure (unset: all outcomes)")
	cmd.Flags().StringVar(&q.StartDate, "since", "", "start date, ISO-8601")
	cmd.Flags().StringVar(&q.EndDate, "until", "", "end date, ISO-8601")
	return cmd
}

func newLogsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one log entry",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *console.App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := enter(app, fmt.Sprintf("%s/%d", logsView, id)); err != nil {
				return err
			}
			entry, err := app.Client.GetLog(cmd.Context(), id)
			if err != nil {
				return reported(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %d\n", entry.ID)
			fmt.Fprintf(out, "Time:       %s\n", entry.CreatedAt)
			fmt.Fprintf(out, "User:       %s (id %d)\n", entry.Username, entry.UserID)
			fmt.Fprintf(out, "Action:     %s\n", entry.ActionType)
			fmt.Fprintf(out, "Module:     %s\n", entry.Module)
			fmt.Fprintf(out, "Outcome:    %s\n", outcomeLabel(entry.Status))
			fmt.Fprintf(out, "IP:         %s\n", orDash(entry.IPAddress))
			fmt.Fprintf(out, "User agent: %s\n", orDash(entry.UserAgent))
			fmt.Fprintf(out, "Remark:     %s\n", orDash(entry.Remark))
			return nil
		}),
	}
}

func newLogsStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show log statistics",
		Args:  cobra.NoArgs,
		RunE: c.view(logsView, func(cmd *cobra.Command, app *console.App, _ []string) error {
			stats, err := app.Client.LogStatistics(cmd.Context())
			if err != nil {
				return reported(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d\nToday: %d\n", stats.TotalLogs, stats.TodayLogs)
			for _, section := range []struct {
				title  string
				counts map[string]int
			}{
				{"By action", stats.ActionTypeStats},
				{"By module", stats.ModuleStats},
				{"Top users", stats.UserStats},
			} {
				if len(section.counts) == 0 {
					continue
				}
				fmt.Fprintln(out)
				yellow.Fprintln(out, section.title)
				w := newTable(out)
				for _, kv := range sortedCounts(section.counts) {
					fmt.Fprintf(w, "  %s\t%d\n", kv.key, kv.n)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newLogsRecentCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest log entries",
		Args:  cobra.NoArgs,
		RunE: c.view(logsView, func(cmd *cobra.Command, app *console.App, _ []string) error {
			entries, err := app.Client.RecentLogs(cmd.Context(), limit)
			if err != nil {
				return reported(err)
			}
			return printLogTable(cmd.OutOrStdout(), entries)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", api.DefaultRecentLogs, "entries to show")
	return cmd
}

func printLogTable(out io.Writer, entries []api.OperationLog) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTIME\tUSER\tACTION\tMODULE\tOUTCOME")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.CreatedAt, e.Username, e.ActionType, e.Module, outcomeLabel(e.Status))
	}
	return w.Flush()
}

type count struct {
	key string
	n   int
}

// sortedCounts orders counts descending, ties by key.
func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}
