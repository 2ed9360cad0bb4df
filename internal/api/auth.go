// ABOUTME: Authentication endpoints of the admin service
// ABOUTME: Implements session.AuthService; calls are quiet so the session store owns their notices

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/workshop/kgconsole/internal/session"
)

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrEmptyProfile is returned by Me when a successful response carries no user.
var ErrEmptyProfile = errors.New("empty profile")

// AuthService implements session.AuthService over a Client.
type AuthService struct {
	client *Client
}

var _ session.AuthService = (*AuthService)(nil)

// NewAuthService wraps c. The client's TokenSource is not consulted: token-bearing
// calls send the token they are given.
func NewAuthService(c *Client) *AuthService {
	return &AuthService{client: c}
}

// Login exchanges credentials for an access token and profile.
func (a *AuthService) Login(ctx context.Context, username, password string) (*session.LoginResult, error) {
	var result session.LoginResult
	err := a.client.post(ctx, "/v1/auth/login", LoginRequest{Username: username, Password: password}, &result, Quiet())
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

// Logout tells the server the token is being discarded.
func (a *AuthService) Logout(ctx context.Context, token string) error {
	if err := a.client.post(ctx, "/v1/auth/logout", nil, nil, Quiet(), WithToken(token)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Me fetches the profile that token belongs to.
func (a *AuthService) Me(ctx context.Context, token string) (*session.User, error) {
	var user session.User
	if err := a.client.get(ctx, "/v1/auth/me", &user, Quiet(), WithToken(token)); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("fetching current user: %w", ErrEmptyProfile)
	}
	return &user, nil
}
