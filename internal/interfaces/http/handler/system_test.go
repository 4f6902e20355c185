package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("advisory-backoffice", "1.2.3", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		db             DatabasePinger
		expectedStatus int
		expectedDB     string
	}{
		{
			name:           "database reachable",
			db:             pingerFunc(func(context.Context) error { return nil }),
			expectedStatus: http.StatusOK,
			expectedDB:     "ok",
		},
		{
			name:           "database down",
			db:             pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			expectedStatus: http.StatusServiceUnavailable,
			expectedDB:     "unavailable",
		},
		{
			name:           "no database configured",
			expectedStatus: http.StatusOK,
			expectedDB:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("advisory-backoffice", "1.2.3", tt.db)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			h.Health(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Equal(t, tt.expectedDB, resp.Database)
		})
	}
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("advisory-backoffice", "1.2.3", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/system/info", nil)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "advisory-backoffice", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}
