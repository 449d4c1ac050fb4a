package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric"
)

func TestProvider_ExportsToPrometheus(t *testing.T) {
	ctx := context.Background()
	p, err := NewMetricProvider(ctx, Settings{ServiceName: "defi-optimizer"})
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer p.Shutdown(ctx)

	counter, err := p.Meter("test").Int64Counter("optimizer_cycles_total",
		metric.WithDescription("cycles"))
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(ctx, 3)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "optimizer_cycles_total") {
		t.Errorf("counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("go collector missing from scrape")
	}
}
