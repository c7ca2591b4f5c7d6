package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/pkg/types/common"
)

func pingOK(context.Context) error { return nil }

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil, CheckFunc{Component: "postgres", Fn: func(context.Context) error {
		t.Fatal("liveness must not check dependencies")
		return nil
	}})

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Run("no components", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("dev", nil).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler("dev", nil,
			CheckFunc{Component: "postgres", Fn: pingOK},
			CheckFunc{Component: "redis", Fn: pingOK})

		w := httptest.NewRecorder()
		h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Len(t, resp.Components, 2)
	})

	t.Run("one down", func(t *testing.T) {
		h := NewHealthHandler("dev", nil,
			CheckFunc{Component: "postgres", Fn: pingOK},
			CheckFunc{Component: "milvus", Fn: func(context.Context) error { return fmt.Errorf("connection refused") }})

		w := httptest.NewRecorder()
		h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, common.HealthUp, resp.Components["postgres"].Status)
		assert.Equal(t, common.HealthDown, resp.Components["milvus"].Status)
		assert.Equal(t, "connection refused", resp.Components["milvus"].Error)
	})
}

//Personal.AI order the ending
