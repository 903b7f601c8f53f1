// Package metrics provides Prometheus metrics for the rhythm rate limiter.
//
// # Overview
//
// Collector implements ratelimit.Observer, so passing it to
// ratelimit.WithObserver is all that is needed to count decisions,
// evictions and VIP updates. Bucket and VIP counts are exported as gauge
// functions that read limiter stats at scrape time.
//
// # Metrics
//
//   - rhythm_limiter_requests_total{result}: decisions by result (allowed, denied)
//   - rhythm_limiter_decision_duration_seconds{result}: decision latency
//   - rhythm_limiter_evictions_total{reason}: dropped buckets (capacity, idle, reset)
//   - rhythm_limiter_vip_updates_total: VIP overrides set or removed
//   - rhythm_limiter_buckets: live buckets
//   - rhythm_limiter_vips: configured VIP overrides
//   - rhythm_limiter_http_requests_total{method,route,status}: HTTP requests served
//   - rhythm_limiter_http_request_duration_seconds{method,route}: HTTP latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	limiter, _ := ratelimit.New[string](rlCfg, ratelimit.WithObserver(collector))
//	collector.RegisterStats(limiter.Stats)
//	http.Handle("/metrics", collector.Handler())
//
// All metrics live in the collector's own registry, never the global one.
package metrics
