package tracing

import (
	"mercator-hq/rhythm/pkg/ratelimit"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys in the "rhythm.*" namespace.
const (
	AttrKey         = "rhythm.key"
	AttrAllowed     = "rhythm.allowed"
	AttrRequestID   = "rhythm.request_id"
	AttrTokens      = "rhythm.bucket.tokens"
	AttrCapacity    = "rhythm.bucket.capacity"
	AttrRefillRate  = "rhythm.bucket.refill_rate"
	AttrVIP         = "rhythm.vip"
	AttrErrorType   = "rhythm.error.type"
	AttrErrorReason = "error.message"
)

// SetDecisionAttributes records a limiter decision on span.
func SetDecisionAttributes(span trace.Span, key string, allowed bool) {
	span.SetAttributes(
		attribute.String(AttrKey, key),
		attribute.Bool(AttrAllowed, allowed),
	)
}

// SetBucketAttributes records a bucket snapshot on span.
func SetBucketAttributes(span trace.Span, snap ratelimit.BucketSnapshot) {
	span.SetAttributes(
		attribute.Int64(AttrTokens, snap.Tokens),
		attribute.Int64(AttrCapacity, snap.Capacity),
		attribute.Int64(AttrRefillRate, snap.RefillRate),
	)
}

// SetVIPAttributes records a VIP override on span.
func SetVIPAttributes(span trace.Span, key string, vip ratelimit.VipConfig) {
	span.SetAttributes(
		attribute.String(AttrKey, key),
		attribute.Bool(AttrVIP, true),
		attribute.Int64(AttrCapacity, vip.Capacity),
		attribute.Int64(AttrRefillRate, vip.RefillRate),
	)
}

// SetError marks span as failed with err.
func SetError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorReason, err.Error()),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
