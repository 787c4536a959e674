package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatbe/pkg/errors"
	"chatbe/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, http.StatusOK, map[string]interface{}{"success": true}, logger.NewNop())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestWriteErrorWithAppError(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, errors.NewConflictError(errors.CodeAlreadyConnected, "Already connected"), logger.NewNop())

	assert.Equal(t, http.StatusConflict, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])

	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "conflict", errBody["type"])
	assert.Equal(t, errors.CodeAlreadyConnected, errBody["code"])
	assert.Equal(t, "Already connected", errBody["message"])
}

func TestWriteErrorWrapsPlainError(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, assert.AnError, logger.NewNop())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "internal", errBody["type"])
	// The wrapped cause never leaks into the response body.
	assert.NotContains(t, errBody["message"], assert.AnError.Error())
}

func TestWriteErrorResponseIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	appErr := errors.NewValidationError("Invalid request", map[string]interface{}{"field": "session_id"})
	writeErrorResponse(rec, appErr, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]interface{})
	details := errBody["details"].(map[string]interface{})
	assert.Equal(t, "session_id", details["field"])
}
