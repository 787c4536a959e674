package service

import (
	"context"

	"chatbe/internal/domain"
)

// FlowType is the classification reported back to the client. It is always
// derived from server-observed session state, never requested.
type FlowType string

const (
	FlowLogin   FlowType = "login"
	FlowConnect FlowType = "connect"
)

// ReconcileOutcome tags how the external profile was reconciled against the
// local account table.
type ReconcileOutcome string

const (
	OutcomeLogin   ReconcileOutcome = "login"   // resolved or created an account
	OutcomeConnect ReconcileOutcome = "connect" // linked to the session's full account
	OutcomeUpgrade ReconcileOutcome = "upgrade" // anonymous account upgraded in place
)

// ReconcileResult is the outcome of one reconciliation attempt
type ReconcileResult struct {
	AccountID string
	Outcome   ReconcileOutcome
	Flow      FlowType
}

// CallbackResult is the uniform result produced by the callback orchestrator
type CallbackResult struct {
	Success    bool
	Message    string
	Error      string
	FlowType   FlowType
	StatusCode int
}

// SettingsService exposes the persisted provider configuration and global
// flags. Whether an instance may read client secrets is fixed at
// construction time.
type SettingsService interface {
	// ProviderStatus is the single capability check consumed by the auth
	// flows: enabled only when the global flag is on, the provider is
	// enabled, and credentials are present.
	ProviderStatus(ctx context.Context, provider string) (*domain.ProviderStatus, error)

	// GetProvider returns the stored settings; the client secret is blanked
	// for instances constructed without secret access.
	GetProvider(ctx context.Context, provider string) (*domain.ProviderSettings, error)

	UpdateProvider(ctx context.Context, settings *domain.ProviderSettings) error

	LoginEnabled(ctx context.Context) (bool, error)
	SetLoginEnabled(ctx context.Context, enabled bool) error
}

// GoogleOAuthService performs the protocol legs against the identity
// provider.
type GoogleOAuthService interface {
	// AuthCodeURL builds the authorization URL embedding state as the CSRF
	// token.
	AuthCodeURL(ctx context.Context, state, redirectURI string) (string, error)

	// Exchange swaps an authorization code for a verified external profile.
	// redirectURI must be the exact value used to initiate the flow.
	Exchange(ctx context.Context, code, redirectURI string) (*domain.ExternalProfile, error)
}

// LoginRequestService manages the short-lived records binding a session to
// one OAuth attempt.
type LoginRequestService interface {
	Create(ctx context.Context, sessionID, redirectURI string) (*domain.LoginRequest, error)
	Get(ctx context.Context, id string) (*domain.LoginRequest, error)
	Complete(ctx context.Context, id string, status domain.LoginRequestStatus, errMsg string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// ReconcilerService decides how a verified external profile maps onto the
// local account table.
type ReconcilerService interface {
	Reconcile(ctx context.Context, sessionID string, profile *domain.ExternalProfile) (*ReconcileResult, error)

	// Disconnect removes the Google link from the session's account. It is
	// refused when the account would be left unrecoverable.
	Disconnect(ctx context.Context, sessionID string) error
}

// CallbackService orchestrates one provider callback end to end
type CallbackService interface {
	HandleCallback(ctx context.Context, code, state string) *CallbackResult
}

// Services aggregates all service interfaces
type Services struct {
	Settings       SettingsService
	PublicSettings SettingsService
	Google         GoogleOAuthService
	LoginRequests  LoginRequestService
	Reconciler     ReconcilerService
	Callback       CallbackService
}
