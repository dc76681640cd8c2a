package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	sievecore "github.com/rawblock/sieve"
	"github.com/rawblock/sieve/internal/config"
)

func TestSetupRouter_HealthIsUnauthenticated(t *testing.T) {
	engine := sievecore.New(zerolog.Nop())
	hub := NewHub(zerolog.Nop())
	r := SetupRouter(config.AdminConfig{AuthToken: "secret"}, engine, hub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected /health to be reachable without auth, got status %d", w.Code)
	}
}

func TestSetupRouter_ChainsRequiresAuthToken(t *testing.T) {
	engine := sievecore.New(zerolog.Nop())
	hub := NewHub(zerolog.Nop())
	r := SetupRouter(config.AdminConfig{AuthToken: "secret"}, engine, hub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chains", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected a protected route without a token to be rejected, got status %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chains", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected the protected route to succeed with the correct bearer token, got status %d", w.Code)
	}
}

func TestSetupRouter_MetricsIsUnauthenticated(t *testing.T) {
	engine := sievecore.New(zerolog.Nop())
	hub := NewHub(zerolog.Nop())
	r := SetupRouter(config.AdminConfig{AuthToken: "secret"}, engine, hub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected /metrics to be reachable without auth, got status %d", w.Code)
	}
}
