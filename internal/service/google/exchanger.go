package google

import (
	"context"
	"net/http"
	"time"

	"chatbe/internal/domain"
	"chatbe/internal/service"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes requested on every authorization URL
var Scopes = []string{"openid", "email", "profile"}

// Exchanger implements the Google OAuth protocol legs. Credentials are read
// from persisted settings on every call, so admin changes apply without a
// restart.
type Exchanger struct {
	settings service.SettingsService

	// endpoint and userinfoBase are overridable for tests
	endpoint     oauth2.Endpoint
	userinfoBase string

	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Logger
}

// NewExchanger creates a new Google OAuth exchanger. settings must be a
// secret-capable instance.
func NewExchanger(settings service.SettingsService, log *logger.Logger) *Exchanger {
	return &Exchanger{
		settings: settings,
		endpoint: googleoauth.Endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		timeout: 15 * time.Second,
		logger:  log,
	}
}

// AuthCodeURL builds the provider authorization URL with the request id as
// the CSRF state
func (e *Exchanger) AuthCodeURL(ctx context.Context, state, redirectURI string) (string, error) {
	conf, err := e.config(ctx, redirectURI)
	if err != nil {
		return "", err
	}

	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange performs the two-leg exchange: code for token, token for
// profile. It has no side effects beyond the two outbound calls.
func (e *Exchanger) Exchange(ctx context.Context, code, redirectURI string) (*domain.ExternalProfile, error) {
	conf, err := e.config(ctx, redirectURI)
	if err != nil {
		return nil, err
	}

	// Bound both outbound calls; a stalled provider must not hold the
	// handler.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		e.logger.WithError(err).Error("Google token exchange failed")
		return nil, errors.NewExternalError(errors.CodeOAuthFailed, "OAuth failed", err)
	}

	profile, err := e.fetchProfile(ctx, conf, token)
	if err != nil {
		return nil, err
	}

	// A partially populated profile is as unusable as a rejected code;
	// both collapse to the same external error kind.
	if err := profile.Validate(); err != nil {
		e.logger.WithError(err).Error("Google profile missing required fields")
		return nil, errors.NewExternalError(errors.CodeOAuthFailed, "OAuth failed", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"subject":        profile.Subject,
		"email_verified": profile.EmailVerified,
	}).Debug("Google profile retrieved")

	return profile, nil
}

func (e *Exchanger) fetchProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*domain.ExternalProfile, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(conf.TokenSource(ctx, token)),
	}
	if e.userinfoBase != "" {
		opts = append(opts, option.WithEndpoint(e.userinfoBase))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		e.logger.WithError(err).Error("Failed to create userinfo client")
		return nil, errors.NewExternalError(errors.CodeOAuthFailed, "OAuth failed", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		e.logger.WithError(err).Error("Google userinfo request failed")
		return nil, errors.NewExternalError(errors.CodeOAuthFailed, "OAuth failed", err)
	}

	profile := &domain.ExternalProfile{
		Subject:      info.Id,
		Email:        info.Email,
		Name:         info.Name,
		GivenName:    info.GivenName,
		FamilyName:   info.FamilyName,
		AvatarURL:    info.Picture,
		Locale:       info.Locale,
		HostedDomain: info.Hd,
	}
	if info.VerifiedEmail != nil {
		profile.EmailVerified = *info.VerifiedEmail
	}

	return profile, nil
}

// config assembles an oauth2.Config from the current persisted settings.
// The redirect URI must be the exact value the flow was initiated with.
func (e *Exchanger) config(ctx context.Context, redirectURI string) (*oauth2.Config, error) {
	status, err := e.settings.ProviderStatus(ctx, domain.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if !status.Enabled {
		return nil, errors.NewConflictError(errors.CodeProviderDisabled, "Google login is not enabled")
	}

	return &oauth2.Config{
		ClientID:     status.ClientID,
		ClientSecret: status.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint:     e.endpoint,
	}, nil
}
