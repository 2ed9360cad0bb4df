// ABOUTME: Knowledge graph commands: health, search, relationships, stats, data, neighbors, cypher
// ABOUTME: Results print as indented JSON; statistics print as a summary

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workshop/kgconsole/internal/api"
	"github.com/workshop/kgconsole/internal/console"
)

const graphView = "/knowledge-graph"

func newGraphCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graph",
		Aliases: []string{"kg"},
		Short:   "Query the knowledge graph",
	}

	var searchLimit, dataLimit, depth int
	var params []string

	search := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find nodes by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, args []string) error {
			return printResult(cmd, func() (any, error) {
				return app.Client.SearchNodes(cmd.Context(), args[0], searchLimit)
			})
		}),
	}
	search.Flags().IntVar(&searchLimit, "limit", api.DefaultSearchLimit, "maximum results")

	data := &cobra.Command{
		Use:   "data",
		Short: "Dump nodes and edges for visualization",
		Args:  cobra.NoArgs,
		RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, _ []string) error {
			return printResult(cmd, func() (any, error) {
				return app.Client.GraphData(cmd.Context(), dataLimit)
			})
		}),
	}
	data.Flags().IntVar(&dataLimit, "limit", api.DefaultGraphDataLimit, "maximum nodes")

	neighbors := &cobra.Command{
		Use:   "neighbors <node-id>",
		Short: "Expand a node's neighborhood",
		Args:  cobra.ExactArgs(1),
		RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, args []string) error {
			return printResult(cmd, func() (any, error) {
				return app.Client.NodeNeighbors(cmd.Context(), args[0], depth)
			})
		}),
	}
	neighbors.Flags().IntVar(&depth, "depth", api.DefaultNeighborDepth, "hops to expand")

	cypher := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Run a Cypher query",
		Args:  cobra.ExactArgs(1),
		RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, args []string) error {
			parameters, err := parseParams(params)
			if err != nil {
				return err
			}
			return printResult(cmd, func() (any, error) {
				return app.Client.ExecuteCypher(cmd.Context(), api.CypherQuery{Query: args[0], Parameters: parameters})
			})
		}),
	}
	cypher.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter key=value (value parsed as JSON when possible)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "Check the graph module",
			Args:  cobra.NoArgs,
			RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, _ []string) error {
				return printResult(cmd, func() (any, error) { return app.Client.GraphHealth(cmd.Context()) })
			}),
		},
		search,
		&cobra.Command{
			Use:   "relationships <node-id>",
			Short: "List a node's relationships",
			Args:  cobra.ExactArgs(1),
			RunE: c.view(graphView, func(cmd *cobra.Command, app *console.App, args []string) error {
				return printResult(cmd, func() (any, error) { return app.Client.NodeRelationships(cmd.Context(), args[0]) })
			}),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show graph statistics",
			Args:  cobra.NoArgs,
			RunE:  c.view(graphView, graphStats),
		},
		data,
		neighbors,
		cypher,
	)
	return cmd
}

func graphStats(cmd *cobra.Command, app *console.App, _ []string) error {
	stats, err := app.Client.GraphStatistics(cmd.Context())
	if err != nil {
		return reported(err)
	}
	out := cmd.OutOrStdout()
	if stats.Error != "" {
		fmt.Fprintf(out, "Error:         %s\n", red.Sprint(stats.Error))
	}
	if stats.Connected != nil {
		state := green.Sprint("connected")
		if !*stats.Connected {
			state = red.Sprint("disconnected")
		}
		fmt.Fprintf(out, "Database:      %s\n", state)
	}
	if stats.NodeCount != nil {
		fmt.Fprintf(out, "Nodes:         %d\n", *stats.NodeCount)
	}
	if stats.RelationshipCount != nil {
		fmt.Fprintf(out, "Relationships: %d\n", *stats.RelationshipCount)
	}
	if len(stats.Labels) > 0 {
		fmt.Fprintf(out, "Labels:        %s\n", strings.Join(stats.Labels, ", "))
	}
	if len(stats.RelationshipTypes) > 0 {
		fmt.Fprintf(out, "Types:         %s\n", strings.Join(stats.RelationshipTypes, ", "))
	}
	return nil
}

// printResult runs fetch and prints its result as JSON.
func printResult(cmd *cobra.Command, fetch func() (any, error)) error {
	v, err := fetch()
	if err != nil {
		return reported(err)
	}
	return printJSON(cmd.OutOrStdout(), v)
}

// parseParams turns key=value pairs into Cypher parameters.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		var decoded any
		if err := json.Unmarshal([]byte(val), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = val
		}
	}
	return out, nil
}
