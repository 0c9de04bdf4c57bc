package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gousb"

	"github.com/tmclab/usbtmc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.timeout != usbtmc.DefaultTimeout {
		t.Fatalf("unexpected timeout: %v", cfg.timeout)
	}
	if _, ok := cfg.filter.(usbtmc.Any); !ok {
		t.Fatalf("expected Any filter, got %T", cfg.filter)
	}
}

func TestLoadConfigFullSelection(t *testing.T) {
	path := writeConfig(t, `
vendor_id = "0x1ab1"
product_id = "04ce"
bus = 1
address = 7
timeout = "5s"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.timeout)
	}

	desc := &gousb.DeviceDesc{Vendor: 0x1ab1, Product: 0x04ce, Bus: 1, Address: 7}
	if !cfg.filter.Matches(desc) {
		t.Fatalf("configured filter rejected the described device")
	}
	desc.Address = 8
	if cfg.filter.Matches(desc) {
		t.Fatalf("configured filter ignored the bus position")
	}
}

func TestLoadConfigPartialIdentifiers(t *testing.T) {
	path := writeConfig(t, `vendor_id = "1ab1"`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for vendor_id without product_id")
	}

	path = writeConfig(t, `bus = 1`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for bus without address")
	}
}

func TestLoadConfigBadValues(t *testing.T) {
	path := writeConfig(t, `
vendor_id = "zzzz"
product_id = "04ce"
`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for malformed vendor_id")
	}

	path = writeConfig(t, `timeout = "soon"`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for malformed timeout")
	}
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load example config: %v", err)
	}
	if cfg.timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.timeout)
	}
}
