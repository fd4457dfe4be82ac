package prometheus

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func vectorResponse(values ...float64) string {
	out := `{"status":"success","data":{"resultType":"vector","result":[`
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"metric":{},"value":[1756468800,"%g"]}`, v)
	}
	return out + `]}}`
}

func fakePrometheus(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		query := r.URL.Query().Get("query")
		body, ok := responses[query]
		if !ok {
			t.Errorf("unexpected query %q", query)
			http.Error(w, "unknown query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testQueries() Queries {
	return Queries{
		TotalRequests:  "total_q",
		FailedRequests: "failed_q",
		LatencyP95Ms:   "p95_q",
		LatencyP99Ms:   "p99_q",
		HourlyBurnRate: "burn_q",
	}
}

func TestCollectorMetrics(t *testing.T) {
	srv := fakePrometheus(t, map[string]string{
		"total_q":  vectorResponse(2_592_000),
		"failed_q": vectorResponse(500),
		"p95_q":    vectorResponse(480),
		"p99_q":    vectorResponse(890),
		"burn_q":   vectorResponse(1.0, 1.2, 0.8),
	})

	c := NewCollector(DefaultConfig(srv.URL), testQueries(), "checkout-api")

	m, err := c.Metrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Service != "checkout-api" {
		t.Errorf("expected service checkout-api, got %s", m.Service)
	}
	if m.TotalRequests != 2_592_000 {
		t.Errorf("expected 2592000 total requests, got %d", m.TotalRequests)
	}
	if m.FailedRequests != 500 {
		t.Errorf("expected 500 failed requests, got %d", m.FailedRequests)
	}
	if m.LatencyPercentiles.P95Ms != 480 || m.LatencyPercentiles.P99Ms != 890 {
		t.Errorf("unexpected percentiles: %+v", m.LatencyPercentiles)
	}
	if len(m.HourlyBurnRate) != 3 || m.HourlyBurnRate[1] != 1.2 {
		t.Errorf("unexpected burn series: %v", m.HourlyBurnRate)
	}
}

func TestCollectorSumsMultipleSamples(t *testing.T) {
	// Per-instance counters are summed into one scalar.
	srv := fakePrometheus(t, map[string]string{
		"total_q":  vectorResponse(1000, 2000, 3000),
		"failed_q": vectorResponse(5, 10),
		"p95_q":    vectorResponse(480),
	})

	q := Queries{TotalRequests: "total_q", FailedRequests: "failed_q", LatencyP95Ms: "p95_q"}
	c := NewCollector(DefaultConfig(srv.URL), q, "svc")

	m, err := c.Metrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.TotalRequests != 6000 {
		t.Errorf("expected summed total 6000, got %d", m.TotalRequests)
	}
	if m.FailedRequests != 15 {
		t.Errorf("expected summed failures 15, got %d", m.FailedRequests)
	}
}

func TestCollectorOptionalQueriesDegrade(t *testing.T) {
	// Without p99 and burn queries the snapshot falls back to p95 and the
	// steady-state baseline.
	srv := fakePrometheus(t, map[string]string{
		"total_q":  vectorResponse(100),
		"failed_q": vectorResponse(0),
		"p95_q":    vectorResponse(480),
	})

	q := Queries{TotalRequests: "total_q", FailedRequests: "failed_q", LatencyP95Ms: "p95_q"}
	c := NewCollector(DefaultConfig(srv.URL), q, "svc")

	m, err := c.Metrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.LatencyPercentiles.P99Ms != 480 {
		t.Errorf("expected p99 fallback to p95, got %v", m.LatencyPercentiles.P99Ms)
	}
	if len(m.HourlyBurnRate) != 1 || m.HourlyBurnRate[0] != 1.0 {
		t.Errorf("expected default burn series, got %v", m.HourlyBurnRate)
	}
}

func TestCollectorRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, vectorResponse(42))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.RetryCount = 2
	cfg.RetryDelay = 0

	q := Queries{TotalRequests: "q", FailedRequests: "q", LatencyP95Ms: "q"}
	c := NewCollector(cfg, q, "svc")

	m, err := c.Metrics()
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if m.TotalRequests != 42 {
		t.Errorf("expected 42 total requests, got %d", m.TotalRequests)
	}
}

func TestCollectorSurfacesPrometheusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","error":"query parse error"}`)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.RetryCount = 0

	c := NewCollector(cfg, testQueries(), "svc")
	if _, err := c.Metrics(); err == nil {
		t.Error("expected error from failing endpoint, got nil")
	}
}

func TestSamplePairValue(t *testing.T) {
	tests := []struct {
		name     string
		pair     SamplePair
		expected float64
	}{
		{name: "string value", pair: SamplePair{1756468800.0, "480.5"}, expected: 480.5},
		{name: "numeric value", pair: SamplePair{1756468800.0, 99.9}, expected: 99.9},
		{name: "unparseable string", pair: SamplePair{1756468800.0, "bogus"}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pair.Value(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
