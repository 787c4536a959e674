package repository

import (
	"context"
	"encoding/json"
	"time"

	"chatbe/internal/domain"
)

// AccountRepository defines account persistence operations. Lookups return
// (nil, nil) when no row matches.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	Create(ctx context.Context, account *domain.Account) error

	// UpdateGoogleProfile refreshes the profile fields of an already linked
	// account to the latest values from the provider.
	UpdateGoogleProfile(ctx context.Context, id string, profile *domain.ExternalProfile, raw json.RawMessage) error

	// LinkGoogle attaches a Google identity to an existing full account.
	// email is set only when non-nil (the account had none before).
	LinkGoogle(ctx context.Context, id string, googleID string, email *string, raw json.RawMessage) error

	// UpgradeAnonymous converts an anonymous account in place. Recovery code
	// and role columns are intentionally untouched.
	UpgradeAnonymous(ctx context.Context, id, username, email, name, googleID string, raw json.RawMessage) error

	// ClearGoogleLink removes the Google identity from an account.
	ClearGoogleLink(ctx context.Context, id string) error
}

// SessionRepository defines session persistence operations
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// Upsert inserts or patches the session row's account id and
	// authentication-method tag.
	Upsert(ctx context.Context, sessionID, accountID, method string) error

	// ClearAuthMethod clears the method tag only when it currently equals
	// method. The session row itself is kept.
	ClearAuthMethod(ctx context.Context, sessionID, method string) error
}

// LoginRequestRepository defines login-request persistence operations
type LoginRequestRepository interface {
	Create(ctx context.Context, req *domain.LoginRequest) error
	Get(ctx context.Context, id string) (*domain.LoginRequest, error)

	// Complete writes the terminal status, completion time, and optional
	// error string.
	Complete(ctx context.Context, id string, status domain.LoginRequestStatus, errMsg *string) error

	// DeleteExpired removes every non-completed request past its expiry.
	// The predicate runs in SQL so concurrent sweeps are safe.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SettingsRepository defines persisted-configuration operations
type SettingsRepository interface {
	GetProvider(ctx context.Context, provider string) (*domain.ProviderSettings, error)
	UpsertProvider(ctx context.Context, settings *domain.ProviderSettings) error

	// GetFlag reads a boolean application flag; absent flags default to
	// defaultValue.
	GetFlag(ctx context.Context, key string, defaultValue bool) (bool, error)
	SetFlag(ctx context.Context, key string, value bool) error
}
