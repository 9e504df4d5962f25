package model

import "encoding/json"

// User is the identity attached to an authenticated request. The identity
// service owns the schema; fields beyond the stable core are kept raw so
// upstream additions never break token validation.
type User struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// AuthResult is the outcome of one token validation attempt. It is never
// persisted; each request produces a fresh result.
type AuthResult struct {
	Valid bool
	User  *User
	Error string
}
