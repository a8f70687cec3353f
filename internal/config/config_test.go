package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	catalog := cfg.Catalog()
	if len(catalog) != 3 {
		t.Fatalf("got %d catalog entries, want 3", len(catalog))
	}
	// maxVolume derives from dimensions when not stated
	light := catalog[0]
	want := 2.7 * 1.5 * 1.4
	if light.MaxVolume != want {
		t.Fatalf("light maxVolume %g, want %g", light.MaxVolume, want)
	}
	// catalog entries must not look like fleet records
	for _, p := range catalog {
		if p.ID != "" {
			t.Fatalf("catalog entry %s has an id", p.Name)
		}
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
strategy: spatial
truckCatalog:
  - name: van
    length: 3
    width: 1.8
    height: 1.6
    maxWeight: 2
server:
  addr: ":9090"
webhooks:
  maxAttempts: 5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy != "spatial" {
		t.Fatalf("strategy %s", cfg.Strategy)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("env override lost: %s", cfg.Server.Addr)
	}
	if cfg.Webhooks.MaxAttempts != 5 {
		t.Fatalf("maxAttempts %d", cfg.Webhooks.MaxAttempts)
	}
	if len(cfg.TruckCatalog) != 1 || cfg.TruckCatalog[0].Name != "van" {
		t.Fatalf("catalog: %+v", cfg.TruckCatalog)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PACK_STRATEGY", "bogus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestValidateRejectsEmptyCatalog(t *testing.T) {
	cfg := Default()
	cfg.TruckCatalog = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
