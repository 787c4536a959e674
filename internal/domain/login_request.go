package domain

import "time"

// ProviderGoogle is the only identity provider currently supported
const ProviderGoogle = "google"

// LoginRequestTTL bounds the lifetime of an in-flight OAuth attempt
const LoginRequestTTL = 15 * time.Minute

// LoginRequestStatus is the lifecycle state of a login request
type LoginRequestStatus string

const (
	LoginRequestPending   LoginRequestStatus = "pending"
	LoginRequestCompleted LoginRequestStatus = "completed"
	LoginRequestFailed    LoginRequestStatus = "failed"
)

// LoginRequest binds a client session to one pending OAuth attempt. Its id
// is a database-generated uuid and doubles as the OAuth state parameter, so
// it must never be client-supplied.
type LoginRequest struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	Provider    string             `json:"provider"`
	RedirectURI string             `json:"redirect_uri"`
	Status      LoginRequestStatus `json:"status"`
	Error       *string            `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Expired reports whether the request must no longer be honored.
// The boundary expiresAt == now counts as expired.
func (r *LoginRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Terminal reports whether the request reached a final status
func (r *LoginRequest) Terminal() bool {
	return r.Status == LoginRequestCompleted || r.Status == LoginRequestFailed
}
