package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/pkg/api"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		ping           pingerFunc
		name           string
		expectedState  string
		expectedStatus int
	}{
		{
			name:           "store reachable",
			ping:           func(context.Context) error { return nil },
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "store down",
			ping:           func(context.Context) error { return errors.New("dial tcp: refused") },
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(setupTestLogger(), tt.ping, "test")

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

			resp := w.Result()
			defer func() {
				assert.NoError(t, resp.Body.Close())
			}()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var health api.HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
			assert.Equal(t, tt.expectedState, health.Status)
			assert.Equal(t, "test", health.Version)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err            error
		name           string
		expectedMsg    string
		expectedStatus int
	}{
		{name: "typed", err: apperr.New(apperr.KindForbidden, "not yours"), expectedStatus: http.StatusForbidden, expectedMsg: "not yours"},
		{name: "token failure", err: apperr.ErrInvalidAccessToken, expectedStatus: http.StatusUnauthorized, expectedMsg: "invalid access token"},
		{name: "internal hides cause", err: apperr.Internal("db down", errors.New("password=hunter2")), expectedStatus: http.StatusInternalServerError, expectedMsg: "internal server error"},
		{name: "unclassified", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), setupTestLogger(), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, http.StatusText(tt.expectedStatus), resp.Error)
			assert.Equal(t, tt.expectedMsg, resp.Message)
		})
	}
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserFromContext(WithUser(context.Background(), nil))
	assert.False(t, ok)
}
