// Package tracing configures OpenTelemetry tracing for rhythm.
//
// Spans are exported over OTLP/gRPC to the configured collector. When
// tracing is disabled a no-op tracer is returned so callers never need to
// check.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "limiter.request")
//	tracing.SetDecisionAttributes(span, key, allowed)
//	span.End()
//
// # Sampling
//
//   - always: record every trace
//   - never: record nothing
//   - ratio: record sample_ratio of new traces by trace ID
//   - parent_ratio: follow the caller's decision, ratio for root spans
//
// W3C trace context and baggage are used for propagation.
package tracing
