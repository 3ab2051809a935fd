package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_defaults(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"server.host", "0.0.0.0"},
		{"server.port", 8089},
		{"logging.level", "info"},
		{"logging.format", "json"},
		{"sme.backend", "simulated"},
		{"telemetry.buffer", 256},
		{"telemetry.journal", "./wlanix-telemetry.db"},
	}
	for _, tt := range tests {
		switch want := tt.want.(type) {
		case string:
			if got := v.GetString(tt.key); got != want {
				t.Errorf("%s = %q, want %q", tt.key, got, want)
			}
		case int:
			if got := v.GetInt(tt.key); got != want {
				t.Errorf("%s = %d, want %d", tt.key, got, want)
			}
		}
	}
}

func TestLoad_from_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlanix.yaml")
	content := []byte("server:\n  port: 9090\nsme:\n  backend: simulated\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := v.GetInt("server.port"); got != 9090 {
		t.Errorf("server.port = %d, want 9090", got)
	}
	// Untouched keys keep their defaults.
	if got := v.GetString("logging.level"); got != "info" {
		t.Errorf("logging.level = %q, want info", got)
	}
}

func TestLoad_rejects_malformed_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlanix.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("no error for malformed config")
	}
}

func TestLoad_env_override(t *testing.T) {
	t.Setenv("WLANIX_SME_BACKEND", "none")

	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := v.GetString("sme.backend"); got != "none" {
		t.Errorf("sme.backend = %q, want none", got)
	}
}

func TestNewLogger_formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		v, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		v.Set("logging.format", format)
		logger, err := NewLogger(v)
		if err != nil {
			t.Fatalf("NewLogger(%s): %v", format, err)
		}
		logger.Sync()
	}
}

func TestNewLogger_rejects_bad_settings(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	v.Set("logging.level", "loud")
	if _, err := NewLogger(v); err == nil {
		t.Error("no error for invalid level")
	}

	v.Set("logging.level", "info")
	v.Set("logging.format", "xml")
	if _, err := NewLogger(v); err == nil {
		t.Error("no error for invalid format")
	}
}
