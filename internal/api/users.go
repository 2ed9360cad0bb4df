// ABOUTME: User management endpoints of the admin service
// ABOUTME: List with filters and paging, plus get, create, update, and delete by id

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/workshop/kgconsole/internal/session"
)

// UserQuery filters GET /v1/users. Nil pointers and empty strings are omitted.
type UserQuery struct {
	Skip     int
	Limit    int
	Username string
	UserType *int
	Status   *int
}

func (q UserQuery) values() url.Values {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Username != "" {
		v.Set("username", q.Username)
	}
	if q.UserType != nil {
		v.Set("user_type", strconv.Itoa(*q.UserType))
	}
	if q.Status != nil {
		v.Set("status", strconv.Itoa(*q.Status))
	}
	return v
}

// UserList is one page of users.
type UserList struct {
	Total int            `json:"total"`
	Items []session.User `json:"items"`
}

// UserCreate is the body of POST /v1/users.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType int    `json:"user_type"`
}

// UserUpdate is the body of PUT /v1/users/{id}. Nil fields are left unchanged.
type UserUpdate struct {
	Password *string `json:"password,omitempty"`
	Status   *int    `json:"status,omitempty"`
}

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*UserList, error) {
	var list UserList
	if err := c.get(ctx, "/v1/users", &list, WithQuery(q.values())); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return &list, nil
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id int64) (*session.User, error) {
	var user session.User
	if err := c.get(ctx, userPath(id), &user); err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &user, nil
}

// CreateUser creates a user and returns it.
func (c *Client) CreateUser(ctx context.Context, in UserCreate) (*session.User, error) {
	var user session.User
	if err := c.post(ctx, "/v1/users", in, &user); err != nil {
		return nil, fmt.Errorf("creating user %q: %w", in.Username, err)
	}
	return &user, nil
}

// UpdateUser changes a user's password or status.
func (c *Client) UpdateUser(ctx context.Context, id int64, in UserUpdate) (*session.User, error) {
	var user session.User
	if err := c.Do(ctx, http.MethodPut, userPath(id), in, &user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	return &user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.Do(ctx, http.MethodDelete, userPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

func userPath(id int64) string {
	return "/v1/users/" + strconv.FormatInt(id, 10)
}
