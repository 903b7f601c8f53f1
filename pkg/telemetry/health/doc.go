// Package health provides liveness and readiness probes for rhythm.
//
// Liveness only reports that the process is serving HTTP. Readiness runs
// every registered check concurrently, each bounded by the check timeout,
// and fails with 503 when any check fails or the server is draining.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("limiter", health.LimiterCheck(limiter))
//	checker.RegisterCheck("vipstore", health.PingCheck(store))
//
//	r.Get("/healthz", checker.LivenessHandler())
//	r.Get("/readyz", checker.ReadinessHandler())
package health
