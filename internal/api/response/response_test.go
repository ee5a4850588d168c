package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis/llm-feedback-service/internal/api/response"
)

func TestJSON_WritesFlatBody(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"tone": "positive"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "positive", body["tone"])
	assert.NotContains(t, body, "data")
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusBadRequest, response.CodeValidation, "overall_score debe estar entre 0 y 100")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "overall_score debe estar entre 0 y 100", body["detail"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestError_InternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Error generando feedback: boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Error generando feedback: boom","code":"INTERNAL_ERROR"}`, w.Body.String())
}
