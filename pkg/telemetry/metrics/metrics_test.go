package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                 true,
		Namespace:               "test",
		Subsystem:               "limiter",
		DecisionDurationBuckets: []float64{0.00001, 0.0001, 0.001},
	}
}

// ==================== Collector ====================

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Expected namespace %q, got %q", config.DefaultMetricsNamespace, cfg.Namespace)
	}
	if cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("Expected subsystem %q, got %q", config.DefaultMetricsSubsystem, cfg.Subsystem)
	}
	if len(cfg.DecisionDurationBuckets) == 0 {
		t.Error("Expected default decision buckets")
	}
}

func TestCollector_ObserveRequest(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveRequest(true, 5*time.Microsecond)
	collector.ObserveRequest(true, 5*time.Microsecond)
	collector.ObserveRequest(false, 2*time.Microsecond)

	allowed := testutil.ToFloat64(collector.decisionMetrics.requestsTotal.WithLabelValues(ResultAllowed))
	denied := testutil.ToFloat64(collector.decisionMetrics.requestsTotal.WithLabelValues(ResultDenied))

	if allowed != 2 {
		t.Errorf("Expected 2 allowed, got %v", allowed)
	}
	if denied != 1 {
		t.Errorf("Expected 1 denied, got %v", denied)
	}
	if n := testutil.CollectAndCount(collector.decisionMetrics.decisionDuration); n != 2 {
		t.Errorf("Expected 2 duration series, got %d", n)
	}
}

func TestCollector_ObserveEviction(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveEviction(ratelimit.EvictReasonCapacity, 3)
	collector.ObserveEviction(ratelimit.EvictReasonIdle, 2)
	collector.ObserveEviction(ratelimit.EvictReasonIdle, 0)

	tests := []struct {
		reason string
		want   float64
	}{
		{ratelimit.EvictReasonCapacity, 3},
		{ratelimit.EvictReasonIdle, 2},
		{ratelimit.EvictReasonReset, 0},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			got := testutil.ToFloat64(collector.limiterMetrics.evictionsTotal.WithLabelValues(tt.reason))
			if got != tt.want {
				t.Errorf("Expected %v evictions, got %v", tt.want, got)
			}
		})
	}
}

func TestCollector_ObserveVIPUpdate(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveVIPUpdate()
	collector.ObserveVIPUpdate()

	if got := testutil.ToFloat64(collector.limiterMetrics.vipUpdates); got != 2 {
		t.Errorf("Expected 2 VIP updates, got %v", got)
	}
}

func TestCollector_ObserveHTTP(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveHTTP("POST", "/v1/requests/{key}", 200, time.Millisecond)
	collector.ObserveHTTP("POST", "/v1/requests/{key}", 429, time.Millisecond)
	collector.ObserveHTTP("GET", "", 404, time.Millisecond)

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("POST", "/v1/requests/{key}", "429")); got != 1 {
		t.Errorf("Expected 1 throttled request, got %v", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("Expected unmatched route label, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.ObserveRequest(true, time.Microsecond)
	collector.ObserveEviction(ratelimit.EvictReasonIdle, 4)
	collector.ObserveVIPUpdate()
	collector.ObserveHTTP("GET", "/", 200, time.Millisecond)

	if got := testutil.ToFloat64(collector.decisionMetrics.requestsTotal.WithLabelValues(ResultAllowed)); got != 0 {
		t.Errorf("Expected disabled collector to record nothing, got %v", got)
	}
	if got := testutil.ToFloat64(collector.limiterMetrics.vipUpdates); got != 0 {
		t.Errorf("Expected disabled collector to record nothing, got %v", got)
	}
}

// ==================== Limiter integration ====================

func TestCollector_WithLimiter(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	limiter, err := ratelimit.New[string](
		ratelimit.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour},
		ratelimit.WithObserver(collector),
		ratelimit.WithMaxBuckets(1),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := collector.RegisterStats(limiter.Stats); err != nil {
		t.Fatalf("RegisterStats failed: %v", err)
	}

	limiter.Request("a")
	limiter.Request("a")
	limiter.Request("b")
	if err := limiter.SetVIP("vip", 5, 5); err != nil {
		t.Fatalf("SetVIP failed: %v", err)
	}

	if got := testutil.ToFloat64(collector.decisionMetrics.requestsTotal.WithLabelValues(ResultAllowed)); got != 2 {
		t.Errorf("Expected 2 allowed, got %v", got)
	}
	if got := testutil.ToFloat64(collector.decisionMetrics.requestsTotal.WithLabelValues(ResultDenied)); got != 1 {
		t.Errorf("Expected 1 denied, got %v", got)
	}
	if got := testutil.ToFloat64(collector.limiterMetrics.evictionsTotal.WithLabelValues(ratelimit.EvictReasonCapacity)); got != 1 {
		t.Errorf("Expected 1 capacity eviction, got %v", got)
	}
	if got := testutil.ToFloat64(collector.limiterMetrics.vipUpdates); got != 1 {
		t.Errorf("Expected 1 VIP update, got %v", got)
	}

	expected := `
# HELP test_limiter_vips Current number of VIP overrides
# TYPE test_limiter_vips gauge
test_limiter_vips 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_limiter_vips"); err != nil {
		t.Errorf("Unexpected vips gauge: %v", err)
	}
}

func TestCollector_RegisterStatsTwice(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	stats := func() ratelimit.Stats { return ratelimit.Stats{} }

	if err := collector.RegisterStats(stats); err != nil {
		t.Fatalf("First RegisterStats failed: %v", err)
	}
	if err := collector.RegisterStats(stats); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}

// ==================== Handler ====================

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	if err := collector.RegisterRuntime(); err != nil {
		t.Fatalf("RegisterRuntime failed: %v", err)
	}
	collector.ObserveRequest(true, time.Microsecond)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"test_limiter_requests_total", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Expected %s in metrics output", name)
		}
	}
}
