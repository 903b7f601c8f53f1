// Package server exposes a rate limiter over HTTP.
//
// # Routes
//
//	POST   /v1/requests/{key}  consume a token: 200 allowed, 429 denied
//	GET    /v1/buckets/{key}   bucket snapshot, 404 when absent
//	DELETE /v1/buckets/{key}   drop the bucket, 404 when absent
//	GET    /v1/vips            all VIP overrides
//	GET    /v1/vips/{key}      one VIP override, 404 when absent
//	PUT    /v1/vips/{key}      set an override: 204, 400 on invalid values
//	DELETE /v1/vips/{key}      remove an override: 204, 404 when absent
//	GET    /v1/stats           limiter counters
//
// Liveness, readiness, version and (when enabled) Prometheus metrics are
// mounted at their configured paths.
//
// VIP writes go to the VIP store first, when one is configured, and are only
// applied to the limiter after the store accepted them.
//
// # Middleware
//
// Every request gets an X-Request-ID (taken from the request or generated),
// a server span, an access log line and panic recovery.
package server
