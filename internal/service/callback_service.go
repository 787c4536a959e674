package service

import (
	"context"
	"net/http"
	"time"

	"chatbe/internal/domain"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"
)

type callbackService struct {
	requests   LoginRequestService
	google     GoogleOAuthService
	reconciler ReconcilerService
	now        func() time.Time
	logger     *logger.Logger
}

// NewCallbackService creates the callback orchestrator
func NewCallbackService(requests LoginRequestService, google GoogleOAuthService, reconciler ReconcilerService, log *logger.Logger) CallbackService {
	return &callbackService{
		requests:   requests,
		google:     google,
		reconciler: reconciler,
		now:        time.Now,
		logger:     log,
	}
}

// HandleCallback runs one provider callback to a terminal state. It is the
// only place an error turns into a login-request mutation; every lower
// component just returns typed errors.
func (s *callbackService) HandleCallback(ctx context.Context, code, state string) *CallbackResult {
	// Without state there is nothing to mark; without code nothing to
	// exchange. Neither touches any record.
	if code == "" || state == "" {
		return &CallbackResult{
			Success:    false,
			Error:      "Missing code or state parameter",
			StatusCode: http.StatusBadRequest,
		}
	}

	req, err := s.requests.Get(ctx, state)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve login request")
		return s.failure(err, "")
	}
	if req == nil {
		return &CallbackResult{
			Success:    false,
			Error:      "Login request not found",
			StatusCode: http.StatusNotFound,
		}
	}

	if req.Provider != domain.ProviderGoogle {
		return s.fail(ctx, req, errors.NewRequestError(errors.CodeRequestNotFound,
			"Login request belongs to a different provider"))
	}

	// Replays of a finished callback are rejected before any provider
	// call; the record stays exactly as the first invocation left it.
	if req.Terminal() {
		return &CallbackResult{
			Success:    false,
			Error:      "Login request was already completed",
			StatusCode: http.StatusConflict,
		}
	}

	if req.Expired(s.now().UTC()) {
		return s.fail(ctx, req, errors.NewRequestError(errors.CodeRequestExpired,
			"Login request has expired"))
	}

	profile, err := s.google.Exchange(ctx, code, req.RedirectURI)
	if err != nil {
		return s.fail(ctx, req, err)
	}

	result, err := s.reconciler.Reconcile(ctx, req.SessionID, profile)
	if err != nil {
		return s.fail(ctx, req, err)
	}

	if err := s.requests.Complete(ctx, req.ID, domain.LoginRequestCompleted, ""); err != nil {
		s.logger.WithError(err).WithField("request_id", req.ID).Error("Failed to mark login request completed")
		return s.failure(err, result.Flow)
	}

	s.logger.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"account_id": result.AccountID,
		"flow":       string(result.Flow),
		"outcome":    string(result.Outcome),
	}).Info("Google callback completed")

	return &CallbackResult{
		Success:    true,
		Message:    "Signed in with Google",
		FlowType:   result.Flow,
		StatusCode: http.StatusOK,
	}
}

// fail marks the request failed with the underlying message and turns the
// error into a uniform result. The persisted string keeps the wrapped cause
// for operator diagnosis; the user-facing message stays generic.
func (s *callbackService) fail(ctx context.Context, req *domain.LoginRequest, cause error) *CallbackResult {
	msg := diagnosticMessage(cause)

	if err := s.requests.Complete(ctx, req.ID, domain.LoginRequestFailed, msg); err != nil {
		s.logger.WithError(err).WithField("request_id", req.ID).Error("Failed to mark login request failed")
	}

	s.logger.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"error":      msg,
	}).Warn("Google callback failed")

	return s.failure(cause, "")
}

// failure converts an error to a result without touching any record
func (s *callbackService) failure(cause error, flow FlowType) *CallbackResult {
	result := &CallbackResult{
		Success:    false,
		FlowType:   flow,
		StatusCode: http.StatusInternalServerError,
	}

	if appErr, ok := errors.AsAppError(cause); ok {
		result.StatusCode = appErr.StatusCode
		result.Error = appErr.Message
		return result
	}

	result.Error = errorMessage(cause)
	return result
}

// diagnosticMessage includes the wrapped cause, for the persisted error
// column only
func diagnosticMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

func errorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	if appErr, ok := errors.AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
