// ABOUTME: Session store owning the access token and user profile
// ABOUTME: Persists both to durable storage and performs login, logout, and profile refresh

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workshop/kgconsole/internal/notify"
	"github.com/workshop/kgconsole/internal/storage"
)

// Durable storage keys
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Notice texts
const (
	MsgLoginSucceeded = "login succeeded"
	MsgLoginFailed    = "login failed"
	MsgLoggedOut      = "logged out"
)

// LoginResult is the auth service's answer to a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// AuthService is the remote authentication API the store talks to.
// Token-bearing calls receive the token explicitly.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*User, error)
}

// State is an immutable snapshot of the session.
type State struct {
	Token string
	User  *User

	adminType int
}

// NewState builds a snapshot for the given token and profile, treating adminType as
// the administrator user_type.
func NewState(token string, user *User, adminType int) State {
	return State{Token: token, User: user.Clone(), adminType: adminType}
}

// IsAuthenticated reports whether a token is held.
func (s State) IsAuthenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the profile's user type is the administrator type.
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.UserType == s.adminType
}

// Store is the process-wide session. It is safe for concurrent use: network calls
// run outside the lock and their results are applied in one step, so readers see
// either the state before an operation or the state after it.
type Store struct {
	mu    sync.RWMutex
	token string
	user  *User

	storage   storage.Storage
	auth      AuthService
	notifier  notify.Notifier
	logger    *slog.Logger
	adminType int
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where user-facing notices go. Defaults to notify.Nop.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithAdminUserType overrides the user_type value treated as administrator.
func WithAdminUserType(t int) Option {
	return func(s *Store) { s.adminType = t }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates the store and hydrates it from durable storage before returning,
// so no caller can observe an un-hydrated session.
func NewStore(ctx context.Context, st storage.Storage, auth AuthService, opts ...Option) (*Store, error) {
	if st == nil {
		return nil, errors.New("session: storage is required")
	}
	if auth == nil {
		return nil, errors.New("session: auth service is required")
	}

	s := &Store{
		storage:   st,
		auth:      auth,
		notifier:  notify.Nop{},
		logger:    slog.Default(),
		adminType: UserTypeAdmin,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// hydrate seeds memory from storage. A profile without a token, or one that no longer
// decodes, is stale: both keys are cleared rather than loaded half-way.
func (s *Store) hydrate(ctx context.Context) error {
	token, err := s.storage.Get(ctx, KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reading stored token: %w", err)
	}

	rawUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reading stored user: %w", err)
	}

	var user *User
	if rawUser != "" && rawUser != "null" {
		var u User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			s.logger.Warn("discarding unreadable stored session", "error", err)
			return s.clearStorage(ctx)
		}
		user = &u
	}

	if token == "" && user != nil {
		s.logger.Warn("discarding stored profile without token")
		return s.clearStorage(ctx)
	}

	s.token = token
	s.user = user
	s.logger.Debug("session hydrated", "authenticated", token != "", "has_user", user != nil)
	return nil
}

// Token returns the current access token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current profile, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Snapshot returns the whole state read under one lock.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Token: s.token, User: s.user.Clone(), adminType: s.adminType}
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// IsAdmin reports whether the current profile is an administrator.
func (s *Store) IsAdmin() bool {
	return s.Snapshot().IsAdmin()
}

// ExpiresAt returns the token's exp claim. The token is decoded without signature
// verification; the server remains the authority on validity.
func (s *Store) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries an exp claim that has passed.
func (s *Store) Expired() bool {
	exp, ok := s.ExpiresAt()
	return ok && !s.now().Before(exp)
}

// Login exchanges credentials for a token. On success the token and profile are
// persisted in one write and one success notice is shown. On failure the prior state
// is untouched and one error notice is shown, using the server's message when present.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	result, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.logger.Info("login rejected", "username", username, "error", err)
		msg := MsgLoginFailed
		if detail := errorDetail(err); detail != "" {
			msg = detail
		}
		s.notifier.Error(msg)
		return false
	}
	if result == nil || result.AccessToken == "" {
		s.logger.Warn("login response carried no access token", "username", username)
		s.notifier.Error(MsgLoginFailed)
		return false
	}

	user := result.User
	encoded, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("encoding user profile", "error", err)
		s.notifier.Error(MsgLoginFailed)
		return false
	}

	s.mu.Lock()
	err = s.storage.Set(ctx, map[string]string{
		KeyToken: result.AccessToken,
		KeyUser:  string(encoded),
	})
	if err == nil {
		s.token = result.AccessToken
		s.user = user.Clone()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("persisting session", "error", err)
		s.notifier.Error(MsgLoginFailed)
		return false
	}

	s.logger.Info("logged in", "username", user.Username, "user_type", user.UserType)
	s.notifier.Success(MsgLoginSucceeded)
	return true
}

// Logout tells the auth service (best effort) and then always clears memory and
// storage. Running it again yields the same end state.
func (s *Store) Logout(ctx context.Context) {
	s.logout(ctx, true)
}

func (s *Store) logout(ctx context.Context, announce bool) {
	if token := s.Token(); token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	if err := s.clearStorage(ctx); err != nil {
		s.logger.Error("clearing stored session", "error", err)
	}
	s.mu.Unlock()

	s.logger.Info("logged out")
	if announce {
		s.notifier.Success(MsgLoggedOut)
	}
}

// ForceLogout drops the session locally without contacting the server. The HTTP
// client calls it when any request comes back 401.
func (s *Store) ForceLogout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	if err := s.clearStorage(ctx); err != nil {
		s.logger.Error("clearing stored session", "error", err)
	}
	s.logger.Info("session invalidated")
}

// FetchCurrentUser reloads the profile with the stored token and persists it. Any
// failure, transport errors included, is taken as an invalid session and ends in a
// logout. It shows no notice of its own.
func (s *Store) FetchCurrentUser(ctx context.Context) {
	token := s.Token()
	if token == "" {
		s.logger.Debug("fetch current user skipped: not authenticated")
		return
	}

	user, err := s.auth.Me(ctx, token)
	if err == nil && (user == nil || user.ID == 0) {
		err = errors.New("empty profile")
	}
	if err != nil {
		s.logger.Warn("fetching current user failed, logging out", "error", err)
		s.logout(ctx, false)
		return
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("encoding user profile", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A logout or re-login while the request was in flight wins.
	if s.token != token {
		s.logger.Debug("discarding profile for superseded token")
		return
	}
	if err := s.storage.Set(ctx, map[string]string{KeyUser: string(encoded)}); err != nil {
		s.logger.Error("persisting user profile", "error", err)
		return
	}
	s.user = user.Clone()
}

// clearStorage removes both session keys.
func (s *Store) clearStorage(ctx context.Context) error {
	return s.storage.Delete(ctx, KeyToken, KeyUser)
}

// errorDetail returns the server-supplied message carried by err, if any.
func errorDetail(err error) string {
	var d interface{ ErrorDetail() string }
	if errors.As(err, &d) {
		return d.ErrorDetail()
	}
	return ""
}
