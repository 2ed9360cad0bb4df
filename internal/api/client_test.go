// ABOUTME: Tests for the HTTP client's request building and error notice policy
// ABOUTME: Uses an httptest server standing in for the admin service

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshop/kgconsole/internal/config"
	"github.com/workshop/kgconsole/internal/notify"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// newTestClient starts server with handler and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource, opts ...Option) (*Client, *notify.Recorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &notify.Recorder{}
	cfg := config.APIConfig{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, ChatTimeout: 5 * time.Second}
	opts = append([]Option{WithNotifier(rec)}, opts...)
	return New(cfg, tokens, opts...), rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	}, staticToken("tok-1"))

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/v1/ping", nil, &out))
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "yes", out["ok"])
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}, staticToken(""))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/v1/ping", nil, nil))
	assert.False(t, hadAuth)
}

func TestDo_NilTokenSource(t *testing.T) {
	var hadAuth bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}, nil)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/v1/ping", nil, nil))
	assert.False(t, hadAuth)
}

func TestDo_WithTokenOverridesSource(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}, staticToken("from-source"))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, nil, WithToken("explicit")))
	assert.Equal(t, "Bearer explicit", gotAuth)
}

func TestDo_SendsJSONBody(t *testing.T) {
	var gotPath, gotType string
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}, nil)

	err := c.Do(context.Background(), http.MethodPost, "/v1/things", map[string]any{"name": "a", "n": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/things", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "a", gotBody["name"])
	assert.EqualValues(t, 2, gotBody["n"])
}

func TestDo_ErrorPolicy(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantNotice string
		wantDetail string
		wantHook   bool
	}{
		{"unauthorized", 401, `{"detail":"token expired"}`, MsgUnauthorized, "token expired", true},
		{"forbidden", 403, `{"detail":"admins only"}`, MsgForbidden, "admins only", false},
		{"not found", 404, `{}`, MsgNotFound, "", false},
		{"server error", 500, `oops`, MsgServerError, "", false},
		{"other with detail", 400, `{"detail":"username already exists"}`, "username already exists", "username already exists", false},
		{"other without detail", 409, ``, MsgRequestFailed, "", false},
		{"validation array", 422, `{"detail":[{"loc":["body","password"],"msg":"too short","type":"value_error"}]}`, "too short", "too short", false},
		{"bad gateway", 502, `<html>bad gateway</html>`, MsgRequestFailed, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hooks atomic.Int32
			c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, staticToken("tok"), OnUnauthorized(func(context.Context) { hooks.Add(1) }))

			err := c.Do(context.Background(), http.MethodGet, "/v1/users", nil, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.ErrorDetail())

			notices := rec.Notices()
			require.Len(t, notices, 1)
			assert.Equal(t, notify.LevelError, notices[0].Level)
			assert.Equal(t, tt.wantNotice, notices[0].Message)

			if tt.wantHook {
				assert.Equal(t, int32(1), hooks.Load())
			} else {
				assert.Zero(t, hooks.Load())
			}
		})
	}
}

func TestDo_QuietSkipsPolicy(t *testing.T) {
	var hooks atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "bad credentials"})
	}, nil, OnUnauthorized(func(context.Context) { hooks.Add(1) }))

	err := c.Do(context.Background(), http.MethodPost, "/v1/auth/login", nil, nil, Quiet())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, rec.Notices())
	assert.Zero(t, hooks.Load())
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &notify.Recorder{}
	c := New(config.APIConfig{BaseURL: url, Timeout: time.Second}, nil, WithNotifier(rec))

	err := c.Do(context.Background(), http.MethodGet, "/v1/users", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, MsgNetworkError, notices[0].Message)
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}, nil)

	err := c.Do(context.Background(), http.MethodGet, "/slow", nil, nil, WithTimeout(20*time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 1, rec.Count(notify.LevelError))
}

func TestDo_CallerCancelIsSilent(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, http.MethodGet, "/v1/users", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Empty(t, rec.Notices())
}

func TestDo_InvalidJSONResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	}, nil)

	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/v1/users", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestNew_Defaults(t *testing.T) {
	c := New(config.APIConfig{BaseURL: "http://example.com/api/"}, nil)
	assert.Equal(t, "http://example.com/api", c.BaseURL())
	assert.Equal(t, config.DefaultTimeout, c.timeout)
	assert.Equal(t, config.DefaultChatTimeout, c.chatTimeout)
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"plain"}`, "plain"},
		{`{"detail":[{"msg":"first"},{"msg":"second"}]}`, "first"},
		{`{"detail":[]}`, ""},
		{`{"detail":{"code":1}}`, ""},
		{`{"message":"other"}`, ""},
		{`not json`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDetail([]byte(tt.body)), tt.body)
	}
}

// newSlowServer answers every request with {} after delay and returns its base URL.
func newSlowServer(t *testing.T, delay time.Duration) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}
