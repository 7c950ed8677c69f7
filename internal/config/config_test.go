package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
surface:
  max_zoom: 10
  default_center: [-3.7, -38.5]
search:
  delay: 1500ms
names:
  keys: [nome, name]
color: "#ff0000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Surface.MaxZoom != 10 {
		t.Errorf("MaxZoom = %d, want 10", cfg.Surface.MaxZoom)
	}
	if cfg.Surface.MinZoom != 5 {
		t.Errorf("MinZoom = %d, want default 5", cfg.Surface.MinZoom)
	}
	if cfg.Surface.DefaultCenter != [2]float64{-3.7, -38.5} {
		t.Errorf("DefaultCenter = %v", cfg.Surface.DefaultCenter)
	}
	if cfg.Search.Delay != 1500*time.Millisecond {
		t.Errorf("Search.Delay = %v, want 1.5s", cfg.Search.Delay)
	}
	if len(cfg.Names.Keys) != 2 || cfg.Names.Keys[0] != "nome" {
		t.Errorf("Names.Keys = %v", cfg.Names.Keys)
	}
	if cfg.Names.Placeholder != "Município" {
		t.Errorf("Placeholder = %q, want default", cfg.Names.Placeholder)
	}
	if cfg.Color != "#ff0000" {
		t.Errorf("Color = %q", cfg.Color)
	}
	if cfg.Dataset.URL != DefaultDatasetURL {
		t.Errorf("Dataset.URL = %q", cfg.Dataset.URL)
	}
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load with allowMissing failed: %v", err)
	}
	if cfg.Style.Weight != 0.8 {
		t.Errorf("Style.Weight = %v, want 0.8", cfg.Style.Weight)
	}

	if _, err := Load(path, false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("surface: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("expected parse error")
	}
}
