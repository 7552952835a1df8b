package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"pool_size": 3, "filter": "nearest"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.PoolSize != 3 || cfg.Filter != "nearest" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Width != 320 || !cfg.LimitSpeed {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if f, _ := cfg.filter(); f != mailbox.FilterNearest {
		t.Errorf("filter() = %v, want nearest", f)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax":  `{"pool_size": }`,
		"pool":    `{"pool_size": 1}`,
		"filter":  `{"filter": "cubic"}`,
		"fit":     `{"fit": "zoom"}`,
		"level":   `{"log_level": "loud"}`,
		"speed":   `{"speed_limit": 0}`,
		"size":    `{"width": 0}`,
		"scaling": `{"scale": -1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("LoadConfig(%s) succeeded, want error", body)
			}
		})
	}
}

func TestConfigConversions(t *testing.T) {
	cfg := DefaultConfig()
	if l, _ := cfg.level(); l != slog.LevelInfo {
		t.Errorf("level() = %v, want info", l)
	}
	if f, _ := cfg.fit(); f != surface.FitAspect {
		t.Errorf("fit() = %v, want aspect", f)
	}
	if got := cfg.Layout(); got != (surface.Layout{Width: 320, Height: 240}) {
		t.Errorf("Layout() = %v", got)
	}
}
