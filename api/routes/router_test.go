package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixlocal/fixlocal-backend/pkg/config"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	return NewRouter(RouterParams{
		Config: cfg,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:     okPinger{},
		Redis:  okPinger{},
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestRouterWebhookRouteRequiresWiredPipeline(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader("{}")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unwired webhook pipeline, got %d", rec.Code)
	}
}

func TestRouterMetricsDisabledWithoutGatherer(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without gatherer, got %d", rec.Code)
	}
}
