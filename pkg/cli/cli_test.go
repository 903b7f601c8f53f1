package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// ==================== Errors ====================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitError},
		{"command", NewCommandError("run", errors.New("boom")), ExitError},
		{"config", NewConfigError("limiter.capacity", "must be positive"), ExitConfig},
		{"wrapped config", fmt.Errorf("startup: %w", WrapConfigError(errors.New("bad yaml"))), ExitConfig},
		{"config inside command", NewCommandError("run", NewConfigError("x", "y")), ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("file not found")

	if got := NewConfigError("vipstore.sqlite.path", "required").Error(); got != "config error in vipstore.sqlite.path: required" {
		t.Errorf("Unexpected message: %q", got)
	}
	wrapped := WrapConfigError(inner)
	if !errors.Is(wrapped, inner) {
		t.Error("Expected WrapConfigError to unwrap to inner error")
	}
	if got := wrapped.Error(); got != "config error: file not found" {
		t.Errorf("Unexpected message: %q", got)
	}
	cmdErr := NewCommandError("vip set", inner)
	if !errors.Is(cmdErr, inner) {
		t.Error("Expected CommandError to unwrap to inner error")
	}
	if got := cmdErr.Error(); got != "command vip set failed: file not found" {
		t.Errorf("Unexpected message: %q", got)
	}
}

// ==================== Output ====================

func testTable() Table {
	table := Table{Headers: []string{"KEY", "CAPACITY"}}
	table.Append("10.0.0.1", "50")
	table.Append("vip,b", "7")
	return table
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, testTable()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "KEY") || !strings.Contains(lines[0], "CAPACITY") {
		t.Errorf("Unexpected header line: %q", lines[0])
	}
	if strings.Index(lines[0], "CAPACITY") != strings.Index(lines[1], "50") {
		t.Errorf("Expected aligned columns, got %q", buf.String())
	}
}

func TestTextFormatter_Value(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, "ok"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "ok\n" {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), "ok\n")
	}
}

func TestJSONFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).FormatTo(&buf, testTable()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(rows) != 2 || rows[0]["key"] != "10.0.0.1" || rows[1]["capacity"] != "7" {
		t.Errorf("Unexpected rows: %v", rows)
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatCSV).FormatTo(&buf, testTable()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	want := "KEY,CAPACITY\n10.0.0.1,50\n\"vip,b\",7\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := NewFormatter(FormatCSV).FormatTo(&buf, "not a table"); err == nil {
		t.Error("Expected error for non-table CSV output")
	}
}

// ==================== Progress ====================

func TestProgress_ConcurrentAdd(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(1000)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.Add(1)
			}
		}()
	}
	wg.Wait()
	p.Finish()
	p.Finish()

	if p.Current() != 1000 {
		t.Errorf("Expected 1000, got %d", p.Current())
	}
	if !strings.Contains(buf.String(), "(1000/1000)") {
		t.Errorf("Expected final count in output, got %q", buf.String())
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Error("Expected Finish to end the line exactly once")
	}
}

func TestProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Error(errors.New("limiter closed"))

	if !strings.Contains(buf.String(), "error: limiter closed") {
		t.Errorf("Unexpected output: %q", buf.String())
	}
}

// ==================== Signals ====================

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be cancelled initially")
	default:
	}

	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("Expected stop to cancel the context")
	}
}

func TestNotifyReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := NotifyReload(ctx)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}

	select {
	case <-reload:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected reload notification")
	}
}
