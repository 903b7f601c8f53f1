// Package logging provides structured logging with redaction of client
// identifiers.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text and console formats
//   - Redaction of IP addresses, bearer tokens and API keys
//   - Context-aware logging with request IDs and limiter keys
//   - A level that can be changed at runtime
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	logger.Info("request refused", "key", "203.0.113.7") // key logged as 203.*.*.*
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "processing") // includes request_id
//
// # Library Use
//
// Slog returns a *slog.Logger backed by the same handler, so packages that
// accept a plain *slog.Logger (such as ratelimit) get redaction and context
// fields as well.
package logging
