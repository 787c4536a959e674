package handler

import (
	"encoding/json"
	"net/http"

	"chatbe/internal/container"
	"chatbe/internal/domain"
	"chatbe/pkg/errors"
)

// AdminHandler handles runtime configuration endpoints
type AdminHandler struct {
	container *container.Container
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(container *container.Container) *AdminHandler {
	return &AdminHandler{
		container: container,
	}
}

// GoogleSettingsResponse never includes the stored secret, only whether one
// is present
type GoogleSettingsResponse struct {
	Success      bool   `json:"success"`
	Provider     string `json:"provider"`
	ClientID     string `json:"client_id"`
	HasSecret    bool   `json:"has_secret"`
	Enabled      bool   `json:"enabled"`
	LoginEnabled bool   `json:"login_enabled"`
}

// GetGoogleSettings handles GET /api/admin/settings/google
func (h *AdminHandler) GetGoogleSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	ctx := r.Context()

	// The public settings instance cannot read secrets; HasSecret is
	// derived from the secret-capable instance below.
	settings, err := h.container.GetPublicSettingsService().GetProvider(ctx, domain.ProviderGoogle)
	if err != nil {
		writeError(w, err, logger)
		return
	}

	loginEnabled, err := h.container.GetPublicSettingsService().LoginEnabled(ctx)
	if err != nil {
		writeError(w, err, logger)
		return
	}

	response := GoogleSettingsResponse{
		Success:      true,
		Provider:     domain.ProviderGoogle,
		LoginEnabled: loginEnabled,
	}

	if settings != nil {
		response.ClientID = settings.ClientID
		response.Enabled = settings.Enabled
	}

	if stored, err := h.container.GetSettingsService().GetProvider(ctx, domain.ProviderGoogle); err == nil && stored != nil {
		response.HasSecret = stored.ClientSecret != ""
	}

	writeJSON(w, http.StatusOK, response, logger)
}

// UpdateGoogleSettingsRequest is the body of PUT /api/admin/settings/google
type UpdateGoogleSettingsRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Enabled      bool   `json:"enabled"`
}

// UpdateGoogleSettings handles PUT /api/admin/settings/google
func (h *AdminHandler) UpdateGoogleSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var body UpdateGoogleSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}

	if body.Enabled && (body.ClientID == "" || body.ClientSecret == "") {
		writeErrorResponse(w, errors.NewValidationError("Client id and secret are required to enable Google login", nil), logger)
		return
	}

	err := h.container.GetSettingsService().UpdateProvider(r.Context(), &domain.ProviderSettings{
		Provider:     domain.ProviderGoogle,
		ClientID:     body.ClientID,
		ClientSecret: body.ClientSecret,
		Enabled:      body.Enabled,
	})
	if err != nil {
		writeError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Google settings updated",
	}, logger)
}

// UpdateLoginFlagRequest is the body of PUT /api/admin/settings/login
type UpdateLoginFlagRequest struct {
	Enabled bool `json:"enabled"`
}

// UpdateLoginFlag handles PUT /api/admin/settings/login, the global
// kill-switch
func (h *AdminHandler) UpdateLoginFlag(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var body UpdateLoginFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}

	if err := h.container.GetSettingsService().SetLoginEnabled(r.Context(), body.Enabled); err != nil {
		writeError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"enabled": body.Enabled,
	}, logger)
}
