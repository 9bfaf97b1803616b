package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestGinMiddlewareRecordsSpanPerRequest(t *testing.T) {
	recorder := setupRecorder(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())
	router.GET("/p/:slug", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/p/corner-bakery", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if got := spans[0].Name(); got != "HTTP GET /p/:slug" {
		t.Fatalf("expected span named by route, got %q", got)
	}

	found := false
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "http.status_code" && attr.Value.AsInt64() == int64(http.StatusOK) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected http.status_code attribute on span")
	}
}

func TestGinMiddlewareNamesUnmatchedRoutes(t *testing.T) {
	recorder := setupRecorder(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if got := spans[0].Name(); got != "HTTP GET unknown" {
		t.Fatalf("expected unmatched route name, got %q", got)
	}
}
