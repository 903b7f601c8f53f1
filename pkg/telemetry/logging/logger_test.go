package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"console", Config{Level: "warn", Format: "console", Redact: true}, false},
		{"defaults", Config{}, false},
		{"upper case", Config{Level: "ERROR", Format: "JSON"}, false},
		{"invalid level", Config{Level: "loud"}, true},
		{"invalid format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected logger, got nil")
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn to be written, got %q", buf.String())
	}
}

func TestLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("before")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	logger.Debug("after")

	if strings.Contains(buf.String(), "before") {
		t.Error("Expected debug message before SetLevel to be filtered")
	}
	if !strings.Contains(buf.String(), "after") {
		t.Error("Expected debug message after SetLevel to be written")
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", logger.Level())
	}

	if err := logger.SetLevel("chatty"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithKey(ctx, "tenant-a")
	logger.InfoContext(ctx, "decided", "allowed", true)

	entry := decodeLine(t, buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id req-123, got %v", entry["request_id"])
	}
	if entry["key"] != "tenant-a" {
		t.Errorf("Expected key tenant-a, got %v", entry["key"])
	}
	if entry["allowed"] != true {
		t.Errorf("Expected allowed=true, got %v", entry["allowed"])
	}
}

func TestLogger_RedactsThroughSlog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Redact: true, Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Libraries log through the plain *slog.Logger.
	logger.Slog().With("component", "ratelimit").Info("vip override set",
		"key", "203.0.113.7",
		"capacity", 10,
		"api_key", "sk-abcdefghijkl",
	)

	entry := decodeLine(t, buf)
	if entry["key"] != "203.*.*.*" {
		t.Errorf("Expected redacted key, got %v", entry["key"])
	}
	if entry["api_key"] != "***" {
		t.Errorf("Expected api_key to be masked, got %v", entry["api_key"])
	}
	if entry["capacity"] != float64(10) {
		t.Errorf("Expected capacity to pass through, got %v", entry["capacity"])
	}
	if entry["component"] != "ratelimit" {
		t.Errorf("Expected component attribute, got %v", entry["component"])
	}
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Redact: true, Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("client", "198.51.100.23").Info("hello")

	entry := decodeLine(t, buf)
	if entry["client"] != "198.*.*.*" {
		t.Errorf("Expected With attributes to be redacted, got %v", entry["client"])
	}
}
