// Rhythm is a per-key token-bucket rate limiter service.
//
// It admits or refuses requests per key, supports VIP overrides with their
// own capacity and refill rate, and exposes decisions over HTTP with
// Prometheus metrics, OpenTelemetry tracing and health probes.
//
// Usage:
//
//	# Start the server with the default configuration
//	rhythm run
//
//	# Start with a custom configuration file
//	rhythm run --config /etc/rhythm/config.yaml
//
//	# Replay a traffic scenario against an in-process limiter
//	rhythm simulate ddos
//
//	# Manage persisted VIP overrides
//	rhythm vip set premium-user --capacity 100 --refill-rate 10
//	rhythm vip list --output json
//
//	# Check a configuration file
//	rhythm validate --config config.yaml
package main

func main() {
	Execute()
}
