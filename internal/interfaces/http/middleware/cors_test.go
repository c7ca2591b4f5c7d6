package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func corsRequest(config CORSConfig, method, origin string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "/api/v1/descriptors/calculate", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	CORS(config)(okHandler()).ServeHTTP(w, r)
	return w
}

func TestCORS_Preflight(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://lab.example.com"}
	config.MaxAge = 3600

	w := corsRequest(config, http.MethodOptions, "https://lab.example.com")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://lab.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		wildcard bool
		origin   string
		want     string
	}{
		{"exact", []string{"https://a.com", "https://b.com"}, false, "https://B.com", "https://B.com"},
		{"rejected", []string{"https://a.com"}, false, "https://evil.com", ""},
		{"any", []string{"*"}, false, "https://x.org", "*"},
		{"subdomain", []string{"*.example.com"}, true, "https://app.example.com", "https://app.example.com"},
		{"subdomain disabled", []string{"*.example.com"}, false, "https://app.example.com", ""},
		{"no origin", []string{"*"}, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCORSConfig()
			config.AllowedOrigins = tt.allowed
			config.AllowWildcard = tt.wildcard

			w := corsRequest(config, http.MethodGet, tt.origin)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", w.Body.String())
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_CredentialsEchoOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}
	config.AllowCredentials = true

	w := corsRequest(config, http.MethodGet, "https://specific.com")
	assert.Equal(t, "https://specific.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ResponseHeaders(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://lab.example.com"}

	w := corsRequest(config, http.MethodPost, "https://lab.example.com")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Location")
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig(t *testing.T) {
	config := DefaultCORSConfig()
	assert.Empty(t, config.AllowedOrigins)
	assert.NotContains(t, config.AllowedMethods, http.MethodDelete)
	assert.False(t, config.AllowCredentials)
	assert.Equal(t, 86400, config.MaxAge)
}

//Personal.AI order the ending
