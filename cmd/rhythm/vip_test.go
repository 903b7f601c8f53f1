package main

import (
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/rhythm/pkg/cli"
)

func TestVIPCommandsLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vips.db")

	out, err := executeCommand(t, "vip", "set", "premium", "--capacity", "100", "--refill-rate", "10", "--db", db)
	if err != nil {
		t.Fatalf("vip set failed: %v", err)
	}
	if !strings.Contains(out, `VIP "premium" set`) {
		t.Errorf("Unexpected set output: %q", out)
	}

	if _, err := executeCommand(t, "vip", "set", "basic", "--capacity", "5", "--refill-rate", "1", "--db", db); err != nil {
		t.Fatalf("vip set failed: %v", err)
	}

	out, err = executeCommand(t, "vip", "get", "premium", "--db", db)
	if err != nil {
		t.Fatalf("vip get failed: %v", err)
	}
	if !strings.Contains(out, "premium") || !strings.Contains(out, "100") {
		t.Errorf("Unexpected get output: %q", out)
	}

	out, err = executeCommand(t, "vip", "list", "--db", db, "--output", "json")
	if err != nil {
		t.Fatalf("vip list failed: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("Failed to decode list output %q: %v", out, err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["key"] != "basic" || rows[1]["key"] != "premium" {
		t.Errorf("Expected rows ordered by key, got %v", rows)
	}
	if rows[1]["refill_rate"] != "10" {
		t.Errorf("Expected refill_rate 10, got %q", rows[1]["refill_rate"])
	}

	if _, err := executeCommand(t, "vip", "delete", "basic", "--db", db); err != nil {
		t.Fatalf("vip delete failed: %v", err)
	}

	out, err = executeCommand(t, "vip", "list", "--db", db, "--output", "csv")
	if err != nil {
		t.Fatalf("vip list failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse csv %q: %v", out, err)
	}
	if len(records) != 2 || records[1][0] != "premium" {
		t.Errorf("Expected header and premium row, got %v", records)
	}
}

func TestVIPCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vips.db")

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"get missing", []string{"vip", "get", "nobody", "--db", db}, cli.ExitError},
		{"delete missing", []string{"vip", "delete", "nobody", "--db", db}, cli.ExitError},
		{"invalid capacity", []string{"vip", "set", "k", "--capacity", "0", "--refill-rate", "1", "--db", db}, cli.ExitError},
		{"missing flags", []string{"vip", "set", "k", "--db", db}, cli.ExitError},
		{"bad output", []string{"vip", "list", "--db", db, "--output", "xml"}, cli.ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d", tt.wantCode, code)
			}
		})
	}
}

func TestVIPCommandNeedsSQLiteBackend(t *testing.T) {
	path := writeConfig(t, "vip_store:\n  backend: memory\n")

	_, err := executeCommand(t, "vip", "list", "--config", path)
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("Expected exit code %d, got %d (err: %v)", cli.ExitConfig, code, err)
	}
}

func TestVIPCommandUsesConfiguredStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "configured.db")
	path := writeConfig(t, "vip_store:\n  backend: sqlite\n  sqlite:\n    path: "+db+"\n")

	if _, err := executeCommand(t, "vip", "set", "k", "--capacity", "3", "--refill-rate", "1", "--config", path); err != nil {
		t.Fatalf("vip set failed: %v", err)
	}

	out, err := executeCommand(t, "vip", "list", "--db", db)
	if err != nil {
		t.Fatalf("vip list failed: %v", err)
	}
	if !strings.Contains(out, "k ") {
		t.Errorf("Expected key k in %q", out)
	}
}
