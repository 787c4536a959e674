package domain

import (
	"encoding/json"
	"time"
)

// AccountKind distinguishes anonymous placeholder accounts from fully
// credentialed ones
type AccountKind string

const (
	AccountKindAnonymous AccountKind = "anonymous"
	AccountKindFull      AccountKind = "full"
)

// DefaultRole is the access level assigned to newly created accounts
const DefaultRole = "member"

// Account represents a local user account
type Account struct {
	ID            string          `json:"id"`
	Kind          AccountKind     `json:"kind"`
	Username      *string         `json:"username,omitempty"`
	Email         *string         `json:"email,omitempty"`
	Name          *string         `json:"name,omitempty"`
	AvatarURL     *string         `json:"avatar_url,omitempty"`
	GoogleID      *string         `json:"google_id,omitempty"`
	GoogleProfile json.RawMessage `json:"-"`
	RecoveryCode  *string         `json:"-"`
	Role          string          `json:"role"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// HasGoogleLink reports whether the account is linked to a Google identity
func (a *Account) HasGoogleLink() bool {
	return a.GoogleID != nil && *a.GoogleID != ""
}

// GoogleSubject returns the linked Google subject id, or "" when unlinked
func (a *Account) GoogleSubject() string {
	if a.GoogleID == nil {
		return ""
	}
	return *a.GoogleID
}
