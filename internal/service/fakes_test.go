package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chatbe/internal/domain"
)

// fakeAccountRepo is an in-memory AccountRepository
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetByGoogleID(_ context.Context, googleID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email != nil && *a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username != nil && *a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	copied.CreatedAt = time.Now().UTC()
	copied.UpdatedAt = copied.CreatedAt
	r.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) UpdateGoogleProfile(_ context.Context, id string, profile *domain.ExternalProfile, raw json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	name := profile.Name
	a.Name = &name
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		a.AvatarURL = &avatar
	}
	a.GoogleProfile = raw
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) LinkGoogle(_ context.Context, id string, googleID string, email *string, raw json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.GoogleID = &googleID
	if email != nil {
		a.Email = email
	}
	a.GoogleProfile = raw
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) UpgradeAnonymous(_ context.Context, id, username, email, name, googleID string, raw json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.Kind != domain.AccountKindAnonymous {
		return fmt.Errorf("account %s is not anonymous", id)
	}
	a.Kind = domain.AccountKindFull
	a.Username = &username
	a.Email = &email
	a.Name = &name
	a.GoogleID = &googleID
	a.GoogleProfile = raw
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) ClearGoogleLink(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.GoogleID = nil
	a.GoogleProfile = nil
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) put(a *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
}

func (r *fakeAccountRepo) get(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

// fakeSessionRepo is an in-memory SessionRepository
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeSessionRepo) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) Upsert(_ context.Context, sessionID, accountID, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &domain.Session{SessionID: sessionID, CreatedAt: time.Now().UTC()}
		r.sessions[sessionID] = s
	}
	s.AccountID = &accountID
	s.AuthMethod = &method
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeSessionRepo) ClearAuthMethod(_ context.Context, sessionID, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.AuthMethod != nil && *s.AuthMethod == method {
		s.AuthMethod = nil
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeSessionRepo) put(s *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
}

func (r *fakeSessionRepo) get(sessionID string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}

// fakeLoginRequestRepo is an in-memory LoginRequestRepository
type fakeLoginRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.LoginRequest
}

func newFakeLoginRequestRepo() *fakeLoginRequestRepo {
	return &fakeLoginRequestRepo{requests: make(map[string]*domain.LoginRequest)}
}

func (r *fakeLoginRequestRepo) Create(_ context.Context, req *domain.LoginRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeLoginRequestRepo) Get(_ context.Context, id string) (*domain.LoginRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeLoginRequestRepo) Complete(_ context.Context, id string, status domain.LoginRequestStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("login request %s not found", id)
	}
	now := time.Now().UTC()
	req.Status = status
	req.Error = errMsg
	req.CompletedAt = &now
	return nil
}

func (r *fakeLoginRequestRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, req := range r.requests {
		if req.Status != domain.LoginRequestCompleted && req.ExpiresAt.Before(now) {
			delete(r.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeLoginRequestRepo) get(id string) *domain.LoginRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id]
}

// fakeSettingsRepo is an in-memory SettingsRepository
type fakeSettingsRepo struct {
	mu        sync.Mutex
	providers map[string]*domain.ProviderSettings
	flags     map[string]bool
	getCalls  int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		providers: make(map[string]*domain.ProviderSettings),
		flags:     make(map[string]bool),
	}
}

func (r *fakeSettingsRepo) GetProvider(_ context.Context, provider string) (*domain.ProviderSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if s, ok := r.providers[provider]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSettingsRepo) UpsertProvider(_ context.Context, settings *domain.ProviderSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *settings
	copied.UpdatedAt = time.Now().UTC()
	r.providers[settings.Provider] = &copied
	return nil
}

func (r *fakeSettingsRepo) GetFlag(_ context.Context, key string, defaultValue bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.flags[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (r *fakeSettingsRepo) SetFlag(_ context.Context, key string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[key] = value
	return nil
}

// fakeExchanger is a scripted GoogleOAuthService
type fakeExchanger struct {
	mu        sync.Mutex
	profile   *domain.ExternalProfile
	err       error
	exchanges int
}

func (f *fakeExchanger) AuthCodeURL(_ context.Context, state, redirectURI string) (string, error) {
	return "https://accounts.example.com/auth?state=" + state, nil
}

func (f *fakeExchanger) Exchange(_ context.Context, code, redirectURI string) (*domain.ExternalProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeExchanger) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

func strPtr(s string) *string {
	return &s
}

func testProfile() *domain.ExternalProfile {
	return &domain.ExternalProfile{
		Subject:       "sub-123",
		Email:         "b@y.com",
		EmailVerified: true,
		Name:          "B Y",
		AvatarURL:     "https://avatars.example.com/b.png",
	}
}
