package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixlocal/fixlocal-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	handler := HealthLive(cfg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-FixLocal-Env") != "dev" {
		t.Fatalf("env header missing")
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"

	handler := HealthReady(cfg, nil, &stubPinger{}, &stubPinger{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when stores answer, got %d", rec.Code)
	}

	handler = HealthReady(cfg, nil, &stubPinger{err: errors.New("down")}, &stubPinger{})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when database is down, got %d", rec.Code)
	}

	handler = HealthReady(cfg, nil, &stubPinger{}, &stubPinger{err: errors.New("down")})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", rec.Code)
	}
}
