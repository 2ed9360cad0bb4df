// ABOUTME: Tests for the users, chat, knowledge graph, and operation log wrappers
// ABOUTME: Verifies paths, methods, query parameters, bodies, and decoded results

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshop/kgconsole/internal/config"
	"github.com/workshop/kgconsole/internal/notify"
)

// request is what the fake server saw.
type request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// recordingServer answers every request with status and body and records it.
func recordingServer(t *testing.T, status int, body any) (*Client, *request) {
	t.Helper()
	got := &request{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Method = r.Method
		got.Path = strings.TrimPrefix(r.URL.Path, "/api")
		got.Query = r.URL.Query()
		_ = json.NewDecoder(r.Body).Decode(&got.Body)
		if body == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, body)
	}, staticToken("tok"))
	return c, got
}

func intPtr(i int) *int { return &i }

func TestListUsers(t *testing.T) {
	c, got := recordingServer(t, http.StatusOK, map[string]any{
		"total": 2,
		"items": []map[string]any{
			{"id": 1, "username": "admin", "user_type": 1, "status": 1},
			{"id": 2, "username": "bob", "user_type": 0, "status": 0},
		},
	})

	list, err := c.ListUsers(context.Background(), UserQuery{Skip: 10, Limit: 5, Username: "b", Status: intPtr(0)})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/users", got.Path)
	assert.Equal(t, "10", got.Query.Get("skip"))
	assert.Equal(t, "5", got.Query.Get("limit"))
	assert.Equal(t, "b", got.Query.Get("username"))
	assert.Equal(t, "0", got.Query.Get("status"))
	assert.False(t, got.Query.Has("user_type"))

	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "bob", list.Items[1].Username)
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	user := map[string]any{"id": 3, "username": "carol", "user_type": 0, "status": 1}

	c, got := recordingServer(t, http.StatusOK, user)
	u, err := c.GetUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "/v1/users/3", got.Path)
	assert.Equal(t, "carol", u.Username)

	c, got = recordingServer(t, http.StatusCreated, user)
	_, err = c.CreateUser(ctx, UserCreate{Username: "carol", Password: "secret1", UserType: 0})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "carol", got.Body["username"])
	assert.Equal(t, "secret1", got.Body["password"])

	c, got = recordingServer(t, http.StatusOK, user)
	_, err = c.UpdateUser(ctx, 3, UserUpdate{Status: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/v1/users/3", got.Path)
	assert.EqualValues(t, 0, got.Body["status"])
	assert.NotContains(t, got.Body, "password")

	c, got = recordingServer(t, http.StatusNoContent, nil)
	require.NoError(t, c.DeleteUser(ctx, 3))
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/v1/users/3", got.Path)
}

func TestSendMessage(t *testing.T) {
	c, got := recordingServer(t, http.StatusOK, map[string]any{"message": "**hi**", "session_id": "s-1"})

	resp, err := c.SendMessage(context.Background(), ChatRequest{Message: "hello", SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/message", got.Path)
	assert.Equal(t, "hello", got.Body["message"])
	assert.Equal(t, "s-1", got.Body["session_id"])
	assert.Equal(t, "**hi**", resp.Message)
}

func TestSendMessage_RequiresMessage(t *testing.T) {
	c, got := recordingServer(t, http.StatusOK, map[string]any{})
	_, err := c.SendMessage(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Empty(t, got.Path)
}

func TestSendMessage_UsesChatTimeout(t *testing.T) {
	srv := newSlowServer(t, 150*time.Millisecond)
	rec := &notify.Recorder{}
	c := New(config.APIConfig{BaseURL: srv, Timeout: 30 * time.Millisecond, ChatTimeout: 3 * time.Second}, nil, WithNotifier(rec))

	_, err := c.SendMessage(context.Background(), ChatRequest{Message: "slow question"})
	require.NoError(t, err)

	_, err = c.LogStatistics(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 1, rec.Count(notify.LevelError))
}

func TestClearHistory(t *testing.T) {
	c, got := recordingServer(t, http.StatusOK, map[string]any{"message": "cleared"})
	require.NoError(t, c.ClearHistory(context.Background(), "s-9"))
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/chat/clear", got.Path)
	assert.Equal(t, "s-9", got.Query.Get("session_id"))
}

func TestNewChatSessionID(t *testing.T) {
	a, b := NewChatSessionID(), NewChatSessionID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestRenderReplyHTML(t *testing.T) {
	html, err := RenderReplyHTML("# Title\n\nSome **bold** text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<table>")
}

func TestGraphEndpoints(t *testing.T) {
	ctx := context.Background()

	c, got := recordingServer(t, http.StatusOK, []map[string]any{{"id": 1}})
	_, err := c.SearchNodes(ctx, "protein", 0)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/knowledge-graph/search", got.Path)
	assert.Equal(t, "protein", got.Query.Get("keyword"))
	assert.Equal(t, "100", got.Query.Get("limit"))

	c, got = recordingServer(t, http.StatusOK, map[string]any{
		"nodes": []map[string]any{{"id": 1, "labels": []string{"Gene"}, "properties": map[string]any{"name": "TP53"}}},
		"edges": []map[string]any{{"id": 7, "from_node": 1, "to_node": 2, "type": "REGULATES"}},
	})
	data, err := c.GraphData(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/graph-data", got.Path)
	assert.Equal(t, "100", got.Query.Get("limit"))
	require.Len(t, data.Nodes, 1)
	assert.Equal(t, "TP53", data.Nodes[0].Properties["name"])
	assert.Equal(t, "REGULATES", data.Edges[0].Type)

	c, got = recordingServer(t, http.StatusOK, map[string]any{"nodes": []any{}, "edges": []any{}})
	_, err = c.NodeNeighbors(ctx, "4:abc:12", 2)
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/neighbors/4:abc:12", got.Path)
	assert.Equal(t, "2", got.Query.Get("depth"))

	c, got = recordingServer(t, http.StatusOK, []any{})
	_, err = c.NodeRelationships(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/node/12/relationships", got.Path)

	c, got = recordingServer(t, http.StatusOK, map[string]any{"node_count": 10, "connected": true})
	stats, err := c.GraphStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/statistics", got.Path)
	require.NotNil(t, stats.NodeCount)
	assert.Equal(t, 10, *stats.NodeCount)
	assert.Nil(t, stats.RelationshipCount)

	c, got = recordingServer(t, http.StatusOK, map[string]any{"status": "ok"})
	health, err := c.GraphHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/health", got.Path)
	assert.JSONEq(t, `{"status":"ok"}`, string(health))

	c, got = recordingServer(t, http.StatusOK, []any{})
	_, err = c.ExecuteCypher(ctx, CypherQuery{Query: "MATCH (n) RETURN n LIMIT $n", Parameters: map[string]any{"n": 5}})
	require.NoError(t, err)
	assert.Equal(t, "/v1/knowledge-graph/cypher", got.Path)
	assert.Equal(t, "MATCH (n) RETURN n LIMIT $n", got.Body["query"])

	_, err = c.ExecuteCypher(ctx, CypherQuery{})
	assert.Error(t, err)
}

func TestLogEndpoints(t *testing.T) {
	ctx := context.Background()

	c, got := recordingServer(t, http.StatusOK, map[string]any{
		"total": 1,
		"items": []map[string]any{{"id": 5, "username": "admin", "action_type": "LOGIN", "module": "auth", "status": 1, "created_at": "2026-02-05T12:00:00"}},
	})
	list, err := c.ListLogs(ctx, LogQuery{Limit: 20, ActionType: "LOGIN", StartDate: "2026-02-01T00:00:00", Status: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "/v1/logs", got.Path)
	assert.Equal(t, "0", got.Query.Get("skip"))
	assert.Equal(t, "20", got.Query.Get("limit"))
	assert.Equal(t, "LOGIN", got.Query.Get("action_type"))
	assert.Equal(t, "2026-02-01T00:00:00", got.Query.Get("start_date"))
	assert.Equal(t, "1", got.Query.Get("status"))
	assert.False(t, got.Query.Has("username"))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "LOGIN", list.Items[0].ActionType)

	c, got = recordingServer(t, http.StatusOK, map[string]any{"id": 5, "remark": "ok"})
	entry, err := c.GetLog(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "/v1/logs/5", got.Path)
	assert.Equal(t, "ok", entry.Remark)

	c, got = recordingServer(t, http.StatusOK, map[string]any{"total_logs": 100, "today_logs": 4, "module_stats": map[string]int{"auth": 60}})
	stats, err := c.LogStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/logs/statistics/summary", got.Path)
	assert.Equal(t, 100, stats.TotalLogs)
	assert.Equal(t, 60, stats.ModuleStats["auth"])

	c, got = recordingServer(t, http.StatusOK, []map[string]any{{"id": 1}, {"id": 2}})
	recent, err := c.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "/v1/logs/recent", got.Path)
	assert.Equal(t, "10", got.Query.Get("limit"))
	assert.Len(t, recent, 2)
}

func TestWrapperForbiddenNotice(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "admin required"})
	}, staticToken("tok"))

	_, err := c.ListLogs(context.Background(), LogQuery{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Equal(t, []notify.Notice{{Level: notify.LevelError, Message: MsgForbidden}}, rec.Notices())
}
