package handler

import (
	"encoding/json"
	"net/http"

	"chatbe/pkg/errors"
	"chatbe/pkg/logger"
)

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, body interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError converts any error into the JSON error envelope
func writeError(w http.ResponseWriter, err error, logger *logger.Logger) {
	if appErr, ok := errors.AsAppError(err); ok {
		writeErrorResponse(w, appErr, logger)
		return
	}
	writeErrorResponse(w, errors.NewInternalError("Internal server error", err), logger)
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Error("Request error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	errorBody := map[string]interface{}{
		"type":    string(appErr.Type),
		"message": appErr.Message,
	}
	if appErr.Code != "" {
		errorBody["code"] = appErr.Code
	}
	if appErr.Details != nil {
		errorBody["details"] = appErr.Details
	}

	response := map[string]interface{}{
		"success": false,
		"error":   errorBody,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
