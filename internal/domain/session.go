package domain

import "time"

// AuthMethodGoogle is the authentication-method tag recorded on a session
// after a successful Google login, connect, or upgrade
const AuthMethodGoogle = "google"

// Session represents a client session row. AccountID is nil until the
// session's first successful login.
type Session struct {
	SessionID  string    `json:"session_id"`
	AccountID  *string   `json:"account_id,omitempty"`
	AuthMethod *string   `json:"auth_method,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Authenticated reports whether the session currently owns an account
func (s *Session) Authenticated() bool {
	return s != nil && s.AccountID != nil && *s.AccountID != ""
}
