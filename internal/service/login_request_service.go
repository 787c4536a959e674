package service

import (
	"context"
	"time"

	"chatbe/internal/domain"
	"chatbe/internal/repository"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"

	"github.com/google/uuid"
)

type loginRequestService struct {
	repo   repository.LoginRequestRepository
	now    func() time.Time
	logger *logger.Logger
}

// NewLoginRequestService creates a new login request service
func NewLoginRequestService(repo repository.LoginRequestRepository, log *logger.Logger) LoginRequestService {
	return &loginRequestService{
		repo:   repo,
		now:    time.Now,
		logger: log,
	}
}

// Create opens a new pending request. The generated uuid is the OAuth state
// parameter, so it must come from this side and never from the client.
func (s *loginRequestService) Create(ctx context.Context, sessionID, redirectURI string) (*domain.LoginRequest, error) {
	if sessionID == "" {
		return nil, errors.NewValidationError("Session id is required", nil)
	}
	if redirectURI == "" {
		return nil, errors.NewValidationError("Redirect URI is required", nil)
	}

	now := s.now().UTC()
	req := &domain.LoginRequest{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Provider:    domain.ProviderGoogle,
		RedirectURI: redirectURI,
		Status:      domain.LoginRequestPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(domain.LoginRequestTTL),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.WithError(err).Error("Failed to create login request")
		return nil, errors.NewInternalError("Failed to create login request", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"session_id": req.SessionID,
	}).Debug("Login request created")

	return req, nil
}

func (s *loginRequestService) Get(ctx context.Context, id string) (*domain.LoginRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load login request", err)
	}
	return req, nil
}

func (s *loginRequestService) Complete(ctx context.Context, id string, status domain.LoginRequestStatus, errMsg string) error {
	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}

	if err := s.repo.Complete(ctx, id, status, msg); err != nil {
		s.logger.WithError(err).WithField("request_id", id).Error("Failed to finalize login request")
		return errors.NewInternalError("Failed to finalize login request", err)
	}

	return nil
}

func (s *loginRequestService) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, errors.NewInternalError("Failed to sweep expired login requests", err)
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Swept expired login requests")
	}

	return deleted, nil
}
