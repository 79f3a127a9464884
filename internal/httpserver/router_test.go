package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/handler"
	"taskboard/internal/repository"
	"taskboard/pkg/trace"
)

func newTestRouter(checks map[string]ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryTaskRepository(zap.NewNop())
	return NewRouter(handler.NewTaskHandler(repo, zap.NewNop()), zap.NewNop(), checks)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = serve(r, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for HEAD, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	ok := newTestRouter(map[string]ReadinessCheck{
		"db": func(context.Context) error { return nil },
	})
	if rec := serve(ok, httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	down := newTestRouter(map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := serve(down, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "redis_not_ready") {
		t.Fatalf("expected 503 redis_not_ready, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTraceIDPropagated(t *testing.T) {
	r := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set(trace.HeaderName, "abc123")
	rec := serve(r, req)
	if got := rec.Header().Get(trace.HeaderName); got != "abc123" {
		t.Fatalf("expected incoming trace id to be echoed, got %q", got)
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	if got := rec.Header().Get(trace.HeaderName); len(got) != 32 {
		t.Fatalf("expected generated trace id, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(nil)
	serve(r, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatal("expected http duration histogram to be exported")
	}
}

func TestTaskRoutesWired(t *testing.T) {
	r := newTestRouter(nil)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"x"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = serve(r, httptest.NewRequest(http.MethodPatch, "/tasks/1", strings.NewReader(`{"status":"done"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected PATCH alias to update, got %d", rec.Code)
	}
	rec = serve(r, httptest.NewRequest(http.MethodDelete, "/tasks/1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRecoveryReturnsGenericBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("unexpected recovery response %d %s", rec.Code, rec.Body.String())
	}
}
