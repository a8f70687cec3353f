// Package config loads service configuration: a YAML file for the truck
// catalog and packing defaults, environment variables for deployment knobs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"loadplan/internal/model"
	"loadplan/internal/pack"
)

// Config holds all configuration for the service.
type Config struct {
	Strategy     string          `yaml:"strategy"`
	TruckCatalog []CatalogTruck  `yaml:"truckCatalog"`
	Server       ServerConfig    `yaml:"server"`
	Webhooks     WebhooksConfig  `yaml:"webhooks"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// CatalogTruck is one reusable truck template. maxVolume defaults to
// length*width*height when omitted.
type CatalogTruck struct {
	Name      string  `yaml:"name"`
	Length    float64 `yaml:"length"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	MaxWeight float64 `yaml:"maxWeight"`
	MaxVolume float64 `yaml:"maxVolume"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type WebhooksConfig struct {
	MaxAttempts int `yaml:"maxAttempts"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default is the configuration used when no file is supplied: the three
// original truck tiers and the flat strategy.
func Default() Config {
	return Config{
		Strategy: "flat",
		TruckCatalog: []CatalogTruck{
			{Name: "light", Length: 2.7, Width: 1.5, Height: 1.4, MaxWeight: 1.5},
			{Name: "medium", Length: 4.2, Width: 2.0, Height: 1.8, MaxWeight: 5},
			{Name: "heavy", Length: 7.6, Width: 2.3, Height: 2.4, MaxWeight: 15},
		},
		Server:    ServerConfig{Addr: ":8080"},
		Webhooks:  WebhooksConfig{MaxAttempts: 10},
		RateLimit: RateLimitConfig{RPS: 50, Burst: 100},
	}
}

// Load reads the config file named by CONFIG_FILE (falling back to defaults
// when unset) and applies environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("PACK_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Webhooks.MaxAttempts = n
		}
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Burst = n
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the catalog and strategy.
func (c Config) Validate() error {
	if _, err := pack.ByName(c.Strategy); err != nil {
		return err
	}
	if len(c.TruckCatalog) == 0 {
		return fmt.Errorf("truck catalog must not be empty")
	}
	for _, t := range c.Catalog() {
		if err := pack.ValidateProfile(t); err != nil {
			return err
		}
	}
	return nil
}

// Catalog converts the configured templates into truck profiles.
func (c Config) Catalog() []model.TruckProfile {
	out := make([]model.TruckProfile, 0, len(c.TruckCatalog))
	for _, t := range c.TruckCatalog {
		maxV := t.MaxVolume
		if maxV == 0 {
			maxV = t.Length * t.Width * t.Height
		}
		out = append(out, model.TruckProfile{
			Name:      t.Name,
			Length:    t.Length,
			Width:     t.Width,
			Height:    t.Height,
			MaxWeight: t.MaxWeight,
			MaxVolume: maxV,
		})
	}
	return out
}
