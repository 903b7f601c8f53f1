// Package telemetry bundles the observability components of rhythm.
//
// # Components
//
//   - logging: structured slog logging with client address redaction
//   - metrics: Prometheus collector implementing ratelimit.Observer
//   - tracing: OpenTelemetry tracer exporting over OTLP/gRPC
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry)
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	limiter, _ := ratelimit.New[string](rlCfg,
//		ratelimit.WithObserver(tel.Metrics()),
//		ratelimit.WithLogger(tel.Logger().Slog()),
//	)
package telemetry
