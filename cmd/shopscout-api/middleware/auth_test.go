package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authedStatus(t *testing.T, cfg AuthConfig, header string) int {
	t.Helper()

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuth_DisabledPassesThrough(t *testing.T) {
	assert.Equal(t, http.StatusOK, authedStatus(t, AuthConfig{Enabled: false}, ""))
}

func TestAuth_ValidToken(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Tokens: []string{"tok-1", "tok-2"}}
	assert.Equal(t, http.StatusOK, authedStatus(t, cfg, "Bearer tok-2"))
}

func TestAuth_Rejections(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Tokens: []string{"tok-1"}}

	assert.Equal(t, http.StatusUnauthorized, authedStatus(t, cfg, ""))
	assert.Equal(t, http.StatusUnauthorized, authedStatus(t, cfg, "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, authedStatus(t, cfg, "Basic tok-1"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
