package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantumfork/whatif/services/governor"
	"github.com/quantumfork/whatif/utils"
)

func TestHealthHandler_HandleHealth(t *testing.T) {
	h := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response utils.SuccessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHealthHandler_HandleReadiness(t *testing.T) {
	t.Run("database healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		h := NewHealthHandler(db, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		h.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response utils.SuccessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response.Data.(map[string]interface{})
		assert.Equal(t, "healthy", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database unreachable", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		h := NewHealthHandler(db, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		h.HandleReadiness(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response utils.SuccessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response.Data.(map[string]interface{})
		assert.Equal(t, "unhealthy", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "unhealthy", checks["database"])
	})

	t.Run("no database configured", func(t *testing.T) {
		h := NewHealthHandler(nil, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		h.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleServiceError_RateLimited(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, &governor.RateLimitedError{RetryAfter: 2 * time.Second}, zap.NewNop())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "rate_limit_exceeded", response.Error)
	assert.Equal(t, 2.0, response.Details["retry_after_seconds"])
}
