package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per family so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveSyncRun("google", "success")
	observability.ObserveSyncReviews("google", 2, 1)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "reviewhub_http_requests_total") {
		t.Fatalf("expected reviewhub_http_requests_total in output")
	}
	if !strings.Contains(out, `reviewhub_sync_runs_total{platform="google",status="success"}`) {
		t.Fatalf("expected sync run counter in output")
	}
	if !strings.Contains(out, `reviewhub_sync_reviews_total{kind="new",platform="google"} 2`) {
		t.Fatalf("expected sync reviews counter in output")
	}
}
