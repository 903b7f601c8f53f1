// Package config loads, validates and watches the rhythm configuration file.
//
// # Loading
//
// Configuration is read from YAML, completed with defaults and validated:
//
//	cfg, err := config.LoadConfig("rhythm.yaml")
//
// LoadConfigWithEnvOverrides additionally applies environment variables named
// RHYTHM_SECTION_FIELD, which always take precedence over the file:
//
//	RHYTHM_LIMITER_CAPACITY=20
//	RHYTHM_LIMITER_REFILL_INTERVAL=500ms
//	RHYTHM_SERVER_LISTEN_ADDRESS=0.0.0.0:8080
//	RHYTHM_TELEMETRY_LOGGING_LEVEL=debug
//
// # Validation
//
// Validate collects every problem it finds and returns them together as a
// ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - limiter.capacity: capacity must be positive
//	  - vips[1].key: duplicate VIP key "12.34.56.78"
//
// # Hot Reload
//
// Watcher observes the configuration file and invokes a callback after
// changes settle. The run command uses it to reconcile VIP overrides without
// a restart.
package config
