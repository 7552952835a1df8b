package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

// Config holds the demo settings. Fields absent from the config file keep
// their defaults; command-line flags override both.
type Config struct {
	Backend       string `json:"backend"`
	PoolSize      int    `json:"pool_size"`
	SpeedLimit    int    `json:"speed_limit"`
	LimitSpeed    bool   `json:"limit_speed"`
	PresentThread bool   `json:"present_thread"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Scale         int    `json:"scale"`
	Filter        string `json:"filter"`
	Fit           string `json:"fit"`
	LogLevel      string `json:"log_level"`
	Headless      bool   `json:"headless"`
	Frames        int    `json:"frames"`
}

// DefaultConfig returns the settings used without a config file.
func DefaultConfig() Config {
	return Config{
		Backend:       "software",
		PoolSize:      mailbox.DefaultPoolSize,
		SpeedLimit:    100,
		LimitSpeed:    true,
		PresentThread: true,
		Width:         320,
		Height:        240,
		Scale:         2,
		Filter:        "linear",
		Fit:           "aspect",
		LogLevel:      "info",
		Frames:        300,
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.PoolSize < 2:
		return fmt.Errorf("pool_size must be at least 2, got %d", c.PoolSize)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	case c.SpeedLimit <= 0:
		return fmt.Errorf("speed_limit must be positive, got %d", c.SpeedLimit)
	}
	if _, err := c.filter(); err != nil {
		return err
	}
	if _, err := c.fit(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) filter() (mailbox.Filter, error) {
	switch strings.ToLower(c.Filter) {
	case "linear", "":
		return mailbox.FilterLinear, nil
	case "nearest":
		return mailbox.FilterNearest, nil
	}
	return 0, fmt.Errorf("unknown filter %q", c.Filter)
}

func (c Config) fit() (surface.FitMode, error) {
	switch strings.ToLower(c.Fit) {
	case "aspect", "":
		return surface.FitAspect, nil
	case "stretch":
		return surface.FitStretch, nil
	}
	return 0, fmt.Errorf("unknown fit %q", c.Fit)
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// Layout returns the producer's render size.
func (c Config) Layout() surface.Layout {
	return surface.Layout{Width: uint32(c.Width), Height: uint32(c.Height)}
}
