package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/internal/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil engine returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingEngine)
	})

	t.Run("valid engine creates server", func(t *testing.T) {
		server, err := NewServer(&mockKnowledge{})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		state  domain.EngineState
		status string
	}{
		{domain.StateUninitialized, "starting"},
		{domain.StateBuilding, "starting"},
		{domain.StateReady, "ok"},
		{domain.StateDegraded, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			server, err := NewServer(&mockKnowledge{status: domain.Status{State: tt.state, CorpusSize: 27}})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var out HealthOutput
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.state.String(), out.State)
			assert.Equal(t, 27, out.CorpusSize)
		})
	}
}
