// ABOUTME: Knowledge graph endpoints of the admin service
// ABOUTME: Health, keyword search, statistics, visualization data, neighbors, and raw Cypher

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Default limits used by the console views
const (
	DefaultSearchLimit    = 100
	DefaultGraphDataLimit = 100
	DefaultNeighborDepth  = 1
)

const graphPrefix = "/v1/knowledge-graph"

// GraphNode is a node as the service serializes it.
type GraphNode struct {
	ID         int64          `json:"id"`
	ElementID  string         `json:"element_id,omitempty"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is a relationship between two nodes.
type GraphEdge struct {
	ID       int64  `json:"id"`
	FromNode int64  `json:"from_node"`
	ToNode   int64  `json:"to_node"`
	Type     string `json:"type"`
}

// GraphData is the node and edge set for visualization.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphStatistics summarizes the graph. Error is set when the database is unreachable.
type GraphStatistics struct {
	NodeCount         *int     `json:"node_count"`
	RelationshipCount *int     `json:"relationship_count"`
	Labels            []string `json:"labels"`
	RelationshipTypes []string `json:"relationship_types"`
	Connected         *bool    `json:"connected"`
	Error             string   `json:"error,omitempty"`
}

// CypherQuery is the body of POST /v1/knowledge-graph/cypher.
type CypherQuery struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// GraphHealth reports the graph module's health payload as sent.
func (c *Client) GraphHealth(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.get(ctx, graphPrefix+"/health", &out); err != nil {
		return nil, fmt.Errorf("checking graph health: %w", err)
	}
	return out, nil
}

// SearchNodes finds nodes matching keyword. limit <= 0 uses DefaultSearchLimit.
func (c *Client) SearchNodes(ctx context.Context, keyword string, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := url.Values{"keyword": {keyword}, "limit": {strconv.Itoa(limit)}}

	var out json.RawMessage
	if err := c.post(ctx, graphPrefix+"/search", nil, &out, WithQuery(q)); err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	return out, nil
}

// NodeRelationships lists the relationships of one node.
func (c *Client) NodeRelationships(ctx context.Context, nodeID string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.get(ctx, graphPrefix+"/node/"+url.PathEscape(nodeID)+"/relationships", &out); err != nil {
		return nil, fmt.Errorf("getting relationships of %s: %w", nodeID, err)
	}
	return out, nil
}

// GraphStatistics returns counts and label sets.
func (c *Client) GraphStatistics(ctx context.Context) (*GraphStatistics, error) {
	var out GraphStatistics
	if err := c.get(ctx, graphPrefix+"/statistics", &out); err != nil {
		return nil, fmt.Errorf("getting graph statistics: %w", err)
	}
	return &out, nil
}

// GraphData returns up to limit nodes with their edges. limit <= 0 uses DefaultGraphDataLimit.
func (c *Client) GraphData(ctx context.Context, limit int) (*GraphData, error) {
	if limit <= 0 {
		limit = DefaultGraphDataLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}

	var out GraphData
	if err := c.get(ctx, graphPrefix+"/graph-data", &out, WithQuery(q)); err != nil {
		return nil, fmt.Errorf("getting graph data: %w", err)
	}
	return &out, nil
}

// NodeNeighbors expands a node by depth hops. depth <= 0 uses DefaultNeighborDepth.
func (c *Client) NodeNeighbors(ctx context.Context, nodeID string, depth int) (*GraphData, error) {
	if depth <= 0 {
		depth = DefaultNeighborDepth
	}
	q := url.Values{"depth": {strconv.Itoa(depth)}}

	var out GraphData
	if err := c.get(ctx, graphPrefix+"/neighbors/"+url.PathEscape(nodeID), &out, WithQuery(q)); err != nil {
		return nil, fmt.Errorf("getting neighbors of %s: %w", nodeID, err)
	}
	return &out, nil
}

// ExecuteCypher runs a query and returns the result as sent.
func (c *Client) ExecuteCypher(ctx context.Context, q CypherQuery) (json.RawMessage, error) {
	if q.Query == "" {
		return nil, fmt.Errorf("executing cypher: query is required")
	}
	var out json.RawMessage
	if err := c.post(ctx, graphPrefix+"/cypher", q, &out); err != nil {
		return nil, fmt.Errorf("executing cypher: %w", err)
	}
	return out, nil
}
