package domain

import "time"

// FlagLoginEnabled is the global kill-switch checked before any provider
// configuration. When false, all login is disabled regardless of settings.
const FlagLoginEnabled = "login_enabled"

// ProviderSettings is the persisted OAuth configuration for one provider.
// It lives in the database rather than the environment so it can be toggled
// at runtime.
type ProviderSettings struct {
	Provider     string    `json:"provider"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Enabled      bool      `json:"enabled"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProviderStatus is the result of the capability check consumed by the
// auth flows. ClientSecret is blank when the caller is not allowed to read
// secrets.
type ProviderStatus struct {
	Enabled      bool   `json:"enabled"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"-"`
}
