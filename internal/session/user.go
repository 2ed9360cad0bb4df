// ABOUTME: User profile as returned by the admin service and persisted with the session
// ABOUTME: Unknown JSON fields are kept so a stored profile round-trips unchanged

package session

import (
	"encoding/json"
)

// User types defined by the admin service
const (
	UserTypeNormal = 0
	UserTypeAdmin  = 1
)

// User status values
const (
	UserStatusDisabled = 0
	UserStatusEnabled  = 1
)

// User is the signed-in user's profile
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	UserType  int    `json:"user_type"`
	Status    int    `json:"status"`
	CreatedAt string `json:"created_at,omitempty"` // ISO-8601 as sent by the server
	UpdatedAt string `json:"updated_at,omitempty"`

	// Extra holds fields this client does not model
	Extra map[string]json.RawMessage `json:"-"`
}

var userFields = []string{"id", "username", "user_type", "status", "created_at", "updated_at"}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range userFields {
		delete(raw, f)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*u = User(p)
	return nil
}

// MarshalJSON encodes the known fields plus Extra. Known fields win on collision.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	data, err := json.Marshal(plain(u))
	if err != nil || len(u.Extra) == 0 {
		return data, err
	}

	merged := make(map[string]json.RawMessage, len(u.Extra)+len(userFields))
	for k, v := range u.Extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}
