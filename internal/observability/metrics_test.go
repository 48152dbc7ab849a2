package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesRuntimeMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go runtime collector output, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/products/{id}")

	req := httptest.NewRequest(http.MethodGet, "/api/products/7", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_http_requests_total{code="418",route="/api/products/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `storefront_http_request_duration_seconds_bucket{route="/api/products/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveOrderPlacement(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveOrderPlacement("placed")
	metrics.ObserveOrderPlacement("placed")
	metrics.ObserveOrderPlacement("insufficient_stock")

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_order_placements_total{outcome="placed"} 2`) {
		t.Fatalf("expected placed counter, got: %s", body)
	}
	if !strings.Contains(body, `storefront_order_placements_total{outcome="insufficient_stock"} 1`) {
		t.Fatalf("expected shortfall counter, got: %s", body)
	}
}

func TestJobMetricsShareRegistry(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("catalog:warmup").End(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_jobs_total{job="catalog:warmup",status="success"} 1`) {
		t.Fatalf("expected job run to be exported, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveOrderPlacement("placed")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
	if metrics.Jobs() != nil {
		t.Fatal("expected nil job metrics")
	}
}
