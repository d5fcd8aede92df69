package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

func TestFilingMetricsCountsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewFilingMetrics("test", registry)

	m.ObserveFile(domain.FileStatusFiled, "HR")
	m.ObserveFile(domain.FileStatusFiled, "HR")
	m.ObserveFile(domain.FileStatusSkippedUnsupported, "")
	m.ObserveBatch(3, 2, 10*time.Millisecond)
	m.ObserveBatch(1, 0, time.Millisecond)

	if got := testutil.ToFloat64(m.filesTotal.WithLabelValues("test", "filed")); got != 2 {
		t.Fatalf("expected 2 filed, got %v", got)
	}
	if got := testutil.ToFloat64(m.categoryTotal.WithLabelValues("test", "HR")); got != 2 {
		t.Fatalf("expected 2 HR, got %v", got)
	}
	if got := testutil.ToFloat64(m.emptyBatches); got != 1 {
		t.Fatalf("expected 1 empty batch, got %v", got)
	}
	if got := testutil.CollectAndCount(m.categoryTotal); got != 1 {
		t.Fatalf("skipped files must not create category series, got %d", got)
	}
}

func TestHTTPMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("test")
	handler := m.Middleware("test", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/v1/resumes/categorize", "/random/1", "/random/2"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("test", http.MethodPost, "other", "418")); got != 2 {
		t.Fatalf("expected unknown paths folded into other, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestInFlight); got != 0 {
		t.Fatalf("expected no in-flight requests, got %v", got)
	}

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), "resume_categorizer_http_requests_total") {
		t.Fatalf("expected exposition to contain request counter")
	}
}

func TestFilingMetricsShareHTTPRegistry(t *testing.T) {
	m := NewHTTPServerMetrics("test")
	filing := NewFilingMetrics("test", m.Registerer())
	filing.ObserveFile(domain.FileStatusFailedWrite, "")

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), `resume_categorizer_filing_files_total{service="test",status="failed_write"} 1`) {
		t.Fatalf("expected filing counter in exposition, got:\n%s", res.Body.String())
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartBatch()
	m.FinishBatch("worker", time.Second, errors.New("boom"))
	m.ObservePickupLag("worker", -time.Second)

	if got := testutil.ToFloat64(m.processTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected one failed batch, got %v", got)
	}
	if got := testutil.ToFloat64(m.processInFlight); got != 0 {
		t.Fatalf("expected gauge back to zero, got %v", got)
	}
	if got := testutil.CollectAndCount(m.pickupLag); got != 0 {
		t.Fatalf("negative lag must be ignored, got %d series", got)
	}
}
