package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"chatbe/internal/domain"
	"chatbe/internal/repository"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"

	"github.com/google/uuid"
)

type reconcilerService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	logger   *logger.Logger
}

// NewReconcilerService creates a new account reconciler
func NewReconcilerService(accounts repository.AccountRepository, sessions repository.SessionRepository, log *logger.Logger) ReconcilerService {
	return &reconcilerService{
		accounts: accounts,
		sessions: sessions,
		logger:   log,
	}
}

// Reconcile classifies the attempt from the session's live state and runs
// exactly one of the three paths. Flow intent is never taken from the
// client: a session holding a non-anonymous account is a connect, anything
// else is a login (an anonymous account is upgraded in place).
func (s *reconcilerService) Reconcile(ctx context.Context, sessionID string, profile *domain.ExternalProfile) (*ReconcileResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.NewExternalError(errors.CodeOAuthFailed, "OAuth failed", err)
	}

	current, err := s.currentAccount(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch {
	case current != nil && current.Kind != domain.AccountKindAnonymous:
		return s.connect(ctx, sessionID, current, profile)
	case current != nil:
		return s.upgrade(ctx, sessionID, current, profile)
	default:
		return s.login(ctx, sessionID, profile)
	}
}

// login resolves or creates an account for an unauthenticated session
func (s *reconcilerService) login(ctx context.Context, sessionID string, profile *domain.ExternalProfile) (*ReconcileResult, error) {
	existing, err := s.accounts.GetByGoogleID(ctx, profile.Subject)
	if err != nil {
		return nil, errors.NewInternalError("Failed to look up account", err)
	}

	var accountID string
	switch {
	case existing != nil:
		if existing.Kind != domain.AccountKindFull {
			return nil, errors.NewConflictError(errors.CodeTypeMismatch,
				"This Google account is linked to an incompatible account type")
		}
		if err := s.accounts.UpdateGoogleProfile(ctx, existing.ID, profile, rawProfile(profile)); err != nil {
			return nil, wrapReconcile("Failed to refresh account profile", err)
		}
		accountID = existing.ID

	default:
		byEmail, err := s.accounts.GetByEmail(ctx, profile.Email)
		if err != nil {
			return nil, errors.NewInternalError("Failed to look up account by email", err)
		}
		if byEmail != nil {
			// A different account already owns this email; never merge or
			// silently adopt.
			return nil, errors.NewConflictError(errors.CodeEmailExists,
				"An account with this email already exists")
		}

		account := &domain.Account{
			ID:            uuid.NewString(),
			Kind:          domain.AccountKindFull,
			Email:         ptr(profile.Email),
			Name:          ptr(profile.Name),
			AvatarURL:     optionalPtr(profile.AvatarURL),
			GoogleID:      ptr(profile.Subject),
			GoogleProfile: rawProfile(profile),
			Role:          domain.DefaultRole,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, wrapReconcile("Failed to create account", err)
		}
		accountID = account.ID

		s.logger.WithFields(map[string]interface{}{
			"account_id": account.ID,
			"subject":    profile.Subject,
		}).Info("Created account from Google profile")
	}

	if err := s.sessions.Upsert(ctx, sessionID, accountID, domain.AuthMethodGoogle); err != nil {
		return nil, errors.NewInternalError("Failed to link session", err)
	}

	return &ReconcileResult{AccountID: accountID, Outcome: OutcomeLogin, Flow: FlowLogin}, nil
}

// connect links the Google identity to the session's existing full account
func (s *reconcilerService) connect(ctx context.Context, sessionID string, account *domain.Account, profile *domain.ExternalProfile) (*ReconcileResult, error) {
	if account.Kind != domain.AccountKindFull {
		return nil, errors.NewConflictError(errors.CodeInvalidUserType,
			"This account type cannot connect a Google account")
	}

	if account.HasGoogleLink() {
		if account.GoogleSubject() == profile.Subject {
			// Already connected to this exact identity; succeed without
			// changes.
			return &ReconcileResult{AccountID: account.ID, Outcome: OutcomeConnect, Flow: FlowConnect}, nil
		}
		return nil, errors.NewConflictError(errors.CodeAlreadyConnected,
			"This account is already connected to a different Google account")
	}

	if err := s.checkCollisions(ctx, account.ID, profile); err != nil {
		return nil, err
	}

	var email *string
	if account.Email == nil || *account.Email == "" {
		email = ptr(profile.Email)
	}

	if err := s.accounts.LinkGoogle(ctx, account.ID, profile.Subject, email, rawProfile(profile)); err != nil {
		return nil, wrapReconcile("Failed to link Google account", err)
	}

	if err := s.sessions.Upsert(ctx, sessionID, account.ID, domain.AuthMethodGoogle); err != nil {
		return nil, errors.NewInternalError("Failed to update session", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id": account.ID,
		"subject":    profile.Subject,
	}).Info("Connected Google account")

	return &ReconcileResult{AccountID: account.ID, Outcome: OutcomeConnect, Flow: FlowConnect}, nil
}

// upgrade converts the session's anonymous account in place. The row
// identity continues: recovery code and role survive untouched.
func (s *reconcilerService) upgrade(ctx context.Context, sessionID string, account *domain.Account, profile *domain.ExternalProfile) (*ReconcileResult, error) {
	if err := s.checkCollisions(ctx, account.ID, profile); err != nil {
		return nil, err
	}

	username, err := s.pickUsername(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpgradeAnonymous(ctx, account.ID, username, profile.Email, profile.Name, profile.Subject, rawProfile(profile)); err != nil {
		return nil, wrapReconcile("Failed to upgrade account", err)
	}

	if err := s.sessions.Upsert(ctx, sessionID, account.ID, domain.AuthMethodGoogle); err != nil {
		return nil, errors.NewInternalError("Failed to update session", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id": account.ID,
		"username":   username,
	}).Info("Upgraded anonymous account")

	return &ReconcileResult{AccountID: account.ID, Outcome: OutcomeUpgrade, Flow: FlowLogin}, nil
}

// Disconnect removes the Google link from the session's account
func (s *reconcilerService) Disconnect(ctx context.Context, sessionID string) error {
	account, err := s.currentAccount(ctx, sessionID)
	if err != nil {
		return err
	}
	if account == nil {
		return errors.NewAuthenticationError("Session is not authenticated")
	}

	if !account.HasGoogleLink() {
		return errors.NewConflictError(errors.CodeNotConnected,
			"No Google account is connected")
	}

	hasEmail := account.Email != nil && *account.Email != ""
	hasRecovery := account.RecoveryCode != nil && *account.RecoveryCode != ""
	if !hasEmail && !hasRecovery {
		// Removing the only credential would strand the account.
		return errors.NewConflictError(errors.CodeUnsafeDisconnect,
			"Disconnecting would leave this account with no way to sign in")
	}

	if err := s.accounts.ClearGoogleLink(ctx, account.ID); err != nil {
		return errors.NewInternalError("Failed to disconnect Google account", err)
	}

	if err := s.sessions.ClearAuthMethod(ctx, sessionID, domain.AuthMethodGoogle); err != nil {
		return errors.NewInternalError("Failed to update session", err)
	}

	s.logger.WithField("account_id", account.ID).Info("Disconnected Google account")
	return nil
}

// checkCollisions verifies no other account holds this subject id or email
func (s *reconcilerService) checkCollisions(ctx context.Context, accountID string, profile *domain.ExternalProfile) error {
	bySubject, err := s.accounts.GetByGoogleID(ctx, profile.Subject)
	if err != nil {
		return errors.NewInternalError("Failed to check subject collision", err)
	}
	if bySubject != nil && bySubject.ID != accountID {
		return errors.NewConflictError(errors.CodeSubjectInUse,
			"This Google account is already linked to another account")
	}

	byEmail, err := s.accounts.GetByEmail(ctx, profile.Email)
	if err != nil {
		return errors.NewInternalError("Failed to check email collision", err)
	}
	if byEmail != nil && byEmail.ID != accountID {
		return errors.NewConflictError(errors.CodeEmailExists,
			"An account with this email already exists")
	}

	return nil
}

// pickUsername derives a username from the email and suffixes it until free
func (s *reconcilerService) pickUsername(ctx context.Context, email string) (string, error) {
	base := deriveUsername(email)
	candidate := base

	for attempt := 0; attempt < 10; attempt++ {
		taken, err := s.accounts.GetByUsername(ctx, candidate)
		if err != nil {
			return "", errors.NewInternalError("Failed to check username", err)
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, rand.Intn(100000))
	}

	return "", errors.NewInternalError("Failed to find a free username", nil)
}

// deriveUsername normalizes an email into a username candidate
func deriveUsername(email string) string {
	replaced := strings.NewReplacer("@", "_", ".", "_").Replace(email)
	return strings.ToLower(replaced)
}

func (s *reconcilerService) currentAccount(ctx context.Context, sessionID string) (*domain.Account, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load session", err)
	}
	if !session.Authenticated() {
		return nil, nil
	}

	account, err := s.accounts.GetByID(ctx, *session.AccountID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load account", err)
	}

	return account, nil
}

func rawProfile(profile *domain.ExternalProfile) json.RawMessage {
	data, err := json.Marshal(profile)
	if err != nil {
		return nil
	}
	return data
}

// wrapReconcile keeps repository-level conflict errors intact and wraps the
// rest as internal failures.
func wrapReconcile(message string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.NewInternalError(message, err)
}

func ptr(s string) *string {
	return &s
}

func optionalPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
