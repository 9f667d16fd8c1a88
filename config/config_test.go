package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// WHAT: an empty path yields the documented defaults.
	// WHY: the binary must start with zero configuration.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.Slots != 3 {
		t.Errorf("Slots = %d, want 3", cfg.Slots)
	}
	if !cfg.AllowPrivate() {
		t.Error("AllowPrivate should default to true for the demo")
	}
	if cfg.Browser.ViewportWidth != 2000 || cfg.Browser.ViewportHeight != 6000 {
		t.Errorf("viewport = %dx%d, want 2000x6000", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
}

func TestLoad_YAMLAndOverrides(t *testing.T) {
	// WHAT: YAML values are applied and PORT env wins over the file.
	path := filepath.Join(t.TempDir(), "xrld.yaml")
	if err := os.WriteFile(path, []byte(`
port: 8080
images_dir: /var/lib/xrld/images
slots: 5
allow_private_urls: false
browser:
  recycle_interval: 1h
  resource_blocking: [fonts, media]
`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want env override 9000", cfg.Port)
	}
	if cfg.ImagesDir != "/var/lib/xrld/images" {
		t.Errorf("ImagesDir = %q", cfg.ImagesDir)
	}
	if cfg.Slots != 5 {
		t.Errorf("Slots = %d", cfg.Slots)
	}
	if cfg.AllowPrivate() {
		t.Error("allow_private_urls: false not honored")
	}
	if cfg.Browser.RecycleInterval != time.Hour {
		t.Errorf("RecycleInterval = %v", cfg.Browser.RecycleInterval)
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("ResourceBlocking = %v", cfg.Browser.ResourceBlocking)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/xrld.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
