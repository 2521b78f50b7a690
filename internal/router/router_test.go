package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/testutil"
	"github.com/windoze95/reme-voice/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T, jwtSecret string) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			JwtSecretKey:   jwtSecret,
			VoiceTransport: config.TransportBrowser,
			ClassifierMode: config.ClassifierHeuristic,
			RateLimitRPS:   100,
			CORSOrigins:    []string{"http://localhost:3000"},
		},
	}
	svc := service.NewVoiceService(cfg, &testutil.MockChatProvider{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)
	return SetupRouter(ctx, cfg, svc, hub)
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	r := setupTestRouter(t, "")

	for _, path := range []string{"/ping", "/health", "/", "/metrics", "/v1/status"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func TestSetupRouter_RequestID(t *testing.T) {
	r := setupTestRouter(t, "")

	req := httptest.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID")
	}
}

func TestSetupRouter_AuthWhenSecretSet(t *testing.T) {
	r := setupTestRouter(t, "secret")

	req := httptest.NewRequest("GET", "/v1/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// The voice session needs its token as a query parameter.
	req = httptest.NewRequest("GET", "/v1/ws", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("ws status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// Health stays public.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}
