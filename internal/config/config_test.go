package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Device.PollInterval != 200*time.Millisecond {
		t.Errorf("poll interval = %v, want 200ms", cfg.Device.PollInterval)
	}
	if cfg.Device.MaxAttempts != 50 {
		t.Errorf("max attempts = %d, want 50", cfg.Device.MaxAttempts)
	}
	if !cfg.Features.Capture || !cfg.Features.PDFExport {
		t.Error("all features should be enabled by default")
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	t.Parallel()

	data := []byte(`
server:
  port: 9001
device:
  host: 10.0.0.5
  poll_interval: 100ms
  max_attempts: 20
features:
  pdf_export: false
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host should keep default, got %q", cfg.Server.Host)
	}
	if cfg.Device.Host != "10.0.0.5" {
		t.Errorf("device host = %q", cfg.Device.Host)
	}
	if cfg.Device.PollInterval != 100*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Device.PollInterval)
	}
	if cfg.Device.MaxAttempts != 20 {
		t.Errorf("max attempts = %d", cfg.Device.MaxAttempts)
	}
	if cfg.Features.PDFExport {
		t.Error("pdf export should be disabled")
	}
	if !cfg.Features.CSVExport {
		t.Error("csv export should keep default")
	}
}

func TestParse_NormalizesInvalidValues(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("device:\n  max_attempts: -3\n  sensor_capacity: 1\nfeatures:\n  capture: false\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Device.MaxAttempts != 50 {
		t.Errorf("max attempts = %d, want default 50", cfg.Device.MaxAttempts)
	}
	if cfg.Device.SensorCapacity != 1000 {
		t.Errorf("sensor capacity = %d, want default 1000", cfg.Device.SensorCapacity)
	}
	if cfg.Features.Enrollment {
		t.Error("enrollment must be disabled when capture is disabled")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("server: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"STATION_PORT":              "7000",
		"STATION_DEVICE_HOST":       "192.168.4.1",
		"STATION_POLL_INTERVAL":     "50ms",
		"STATION_MAX_ATTEMPTS":      "not-a-number",
		"STATION_DISABLED_FEATURES": "pdf, xlsx ,chart",
		"STATION_SLOTS_FILE":        "/var/lib/station/slots.yaml",
	}

	cfg := Default()
	applyEnv(cfg, func(k string) string { return env[k] })

	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Device.Host != "192.168.4.1" {
		t.Errorf("device host = %q", cfg.Device.Host)
	}
	if cfg.Device.PollInterval != 50*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Device.PollInterval)
	}
	if cfg.Device.MaxAttempts != 50 {
		t.Errorf("invalid override should be ignored, got %d", cfg.Device.MaxAttempts)
	}
	if cfg.Features.PDFExport || cfg.Features.XLSXExport || cfg.Features.Chart {
		t.Errorf("features not disabled: %+v", cfg.Features)
	}
	if !cfg.Features.CSVExport {
		t.Error("csv export should stay enabled")
	}
	if cfg.Device.SlotsFile != "/var/lib/station/slots.yaml" {
		t.Errorf("slots file = %q", cfg.Device.SlotsFile)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Device.Host = "10.1.1.1"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	loaded, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if loaded.Device.Host != "10.1.1.1" {
		t.Errorf("device host = %q after round trip", loaded.Device.Host)
	}
}
