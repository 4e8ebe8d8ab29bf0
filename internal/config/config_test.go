package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8090" {
		t.Errorf("expected default addr :8090, got %s", cfg.Server.Addr)
	}
	if cfg.Viseme.ResetDelay != 1*time.Second {
		t.Errorf("expected 1s reset delay, got %v", cfg.Viseme.ResetDelay)
	}
	if cfg.Viseme.Property != "mouth" || cfg.Viseme.SubComponent != "Face" {
		t.Errorf("unexpected viseme lookup defaults: %+v", cfg.Viseme)
	}
	if !cfg.Asset.Watch {
		t.Error("expected asset watching enabled by default")
	}
	if cfg.Surface.PixelRatio != 1.0 {
		t.Errorf("expected pixel ratio 1.0, got %v", cfg.Surface.PixelRatio)
	}
}

func TestLoad_CreatesConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("expected defaults on first load, got addr %s", cfg.Server.Addr)
	}

	if _, err := os.Stat(filepath.Join(home, ".rigpanel", "config.yaml")); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
}
