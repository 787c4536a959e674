package handler

import (
	"encoding/json"
	"html/template"
	"net/http"

	"chatbe/internal/container"
	"chatbe/internal/domain"
	"chatbe/pkg/errors"
)

// AuthHandler handles the Google OAuth endpoints
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// InitiateRequest is the body of POST /api/auth/google/initiate
type InitiateRequest struct {
	SessionID   string `json:"session_id"`
	RedirectURI string `json:"redirect_uri"`
}

// InitiateResponse carries the state value and the provider URL to redirect
// to
type InitiateResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	AuthURL   string `json:"auth_url"`
}

// Initiate handles POST /api/auth/google/initiate
func (h *AuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var body InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}

	ctx := r.Context()

	// Refuse before creating any record when the provider is unusable.
	status, err := h.container.GetSettingsService().ProviderStatus(ctx, domain.ProviderGoogle)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	if !status.Enabled {
		writeErrorResponse(w, errors.NewConflictError(errors.CodeProviderDisabled, "Google login is not enabled"), logger)
		return
	}

	req, err := h.container.GetLoginRequestService().Create(ctx, body.SessionID, body.RedirectURI)
	if err != nil {
		writeError(w, err, logger)
		return
	}

	authURL, err := h.container.GetGoogleService().AuthCodeURL(ctx, req.ID, req.RedirectURI)
	if err != nil {
		writeError(w, err, logger)
		return
	}

	logger.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"session_id": req.SessionID,
	}).Debug("Google login initiated")

	writeJSON(w, http.StatusOK, InitiateResponse{
		Success:   true,
		RequestID: req.ID,
		AuthURL:   authURL,
	}, logger)
}

// Callback handles GET /auth/google/callback and the legacy connect
// callback path. Both arrive here; the flow type is derived from the
// session, never from the URL.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	query := r.URL.Query()
	result := h.container.GetCallbackService().HandleCallback(r.Context(), query.Get("code"), query.Get("state"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if result.Success {
		w.WriteHeader(http.StatusOK)
		if err := callbackSuccessPage.Execute(w, map[string]string{
			"Message":  result.Message,
			"FlowType": string(result.FlowType),
		}); err != nil {
			logger.WithError(err).Error("Failed to render callback success page")
		}
		return
	}

	w.WriteHeader(result.StatusCode)
	if err := callbackErrorPage.Execute(w, map[string]string{
		"Error": result.Error,
	}); err != nil {
		logger.WithError(err).Error("Failed to render callback error page")
	}
}

// DisconnectRequest is the body of POST /api/auth/google/disconnect
type DisconnectRequest struct {
	SessionID string `json:"session_id"`
}

// Disconnect handles POST /api/auth/google/disconnect
func (h *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var body DisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}
	if body.SessionID == "" {
		writeErrorResponse(w, errors.NewValidationError("Session id is required", nil), logger)
		return
	}

	if err := h.container.GetReconcilerService().Disconnect(r.Context(), body.SessionID); err != nil {
		writeError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Google account disconnected",
	}, logger)
}

// The success page closes the OAuth popup; the opener polls the login
// request or session state for the outcome.
var callbackSuccessPage = template.Must(template.New("callback_success").Parse(`<!DOCTYPE html>
<html>
<head><title>Signed in</title></head>
<body>
<p>{{.Message}}. You can close this window.</p>
<script>window.close();</script>
</body>
</html>`))

var callbackErrorPage = template.Must(template.New("callback_error").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign-in failed</title></head>
<body>
<p>Sign-in failed: {{.Error}}</p>
<p>You can close this window and try again.</p>
</body>
</html>`))
