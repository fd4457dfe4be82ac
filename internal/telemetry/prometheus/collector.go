// Package prometheus snapshots service telemetry from a Prometheus
// endpoint so the reliability evaluator can run against live data instead
// of a pre-collected file.
package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/deployguard/deployguard/internal/telemetry"
)

// Config holds collector configuration.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxConcurrency int64
	RetryCount     int
	RetryDelay     time.Duration
}

// DefaultConfig returns default configuration for the given endpoint.
func DefaultConfig(prometheusURL string) Config {
	return Config{
		URL:            prometheusURL,
		Timeout:        10 * time.Second,
		MaxConcurrency: 10,
		RetryCount:     1,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Queries are the instant queries the collector runs to assemble one
// metrics snapshot. HourlyBurnRate may return a vector; every sample
// becomes one entry of the burn-rate series.
type Queries struct {
	TotalRequests  string
	FailedRequests string
	LatencyP95Ms   string
	LatencyP99Ms   string
	HourlyBurnRate string
}

// Collector implements telemetry.MetricsSource against a Prometheus API.
type Collector struct {
	config  Config
	queries Queries
	service string
	client  *http.Client
	sem     *semaphore.Weighted
}

// NewCollector creates a collector for one service.
func NewCollector(config Config, queries Queries, service string) *Collector {
	return &Collector{
		config:  config,
		queries: queries,
		service: service,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		sem: semaphore.NewWeighted(config.MaxConcurrency),
	}
}

// Metrics implements telemetry.MetricsSource. The counter and latency
// queries are required; an empty burn-rate query degrades to the steady
// state baseline.
func (c *Collector) Metrics() (*telemetry.Metrics, error) {
	total, err := c.queryScalar(c.queries.TotalRequests)
	if err != nil {
		return nil, fmt.Errorf("query total requests: %w", err)
	}

	failed, err := c.queryScalar(c.queries.FailedRequests)
	if err != nil {
		return nil, fmt.Errorf("query failed requests: %w", err)
	}

	p95, err := c.queryScalar(c.queries.LatencyP95Ms)
	if err != nil {
		return nil, fmt.Errorf("query p95 latency: %w", err)
	}

	p99 := p95
	if c.queries.LatencyP99Ms != "" {
		p99, err = c.queryScalar(c.queries.LatencyP99Ms)
		if err != nil {
			return nil, fmt.Errorf("query p99 latency: %w", err)
		}
	}

	burn := []float64{1.0}
	if c.queries.HourlyBurnRate != "" {
		burn, err = c.queryVector(c.queries.HourlyBurnRate)
		if err != nil {
			return nil, fmt.Errorf("query burn rate series: %w", err)
		}
		if len(burn) == 0 {
			burn = []float64{1.0}
		}
	}

	return &telemetry.Metrics{
		Service:        c.service,
		TotalRequests:  int64(total),
		FailedRequests: int64(failed),
		LatencyPercentiles: telemetry.LatencyPercentiles{
			P95Ms: p95,
			P99Ms: p99,
		},
		HourlyBurnRate: burn,
	}, nil
}

// queryScalar runs an instant query and sums all returned samples.
func (c *Collector) queryScalar(query string) (float64, error) {
	resp, err := c.query(query)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, result := range resp.Data.Result {
		sum += result.Value.Value()
	}
	return sum, nil
}

// queryVector runs an instant query and returns every sample value.
func (c *Collector) queryVector(query string) ([]float64, error) {
	resp, err := c.query(query)
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(resp.Data.Result))
	for _, result := range resp.Data.Result {
		values = append(values, result.Value.Value())
	}
	return values, nil
}

// query executes an instant query with bounded concurrency and retry.
func (c *Collector) query(query string) (*QueryResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("semaphore acquire: %w", err)
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(c.config.RetryDelay)
		}

		result, err := c.executeQuery(ctx, query)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", c.config.RetryCount+1, lastErr)
}

// executeQuery performs a single Prometheus query.
func (c *Collector) executeQuery(ctx context.Context, query string) (*QueryResponse, error) {
	queryURL := fmt.Sprintf("%s/api/v1/query", strings.TrimSuffix(c.config.URL, "/"))

	params := url.Values{}
	params.Add("query", query)

	fullURL := queryURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var result QueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("prometheus error: %s", result.Error)
	}

	return &result, nil
}
