package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("empty path must return defaults: %+v", cfg)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.yaml")
	raw := "lookahead_window_hours: 24\nmin_occurrences: 3\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LookaheadWindowHours != 24 {
		t.Fatalf("lookahead not overridden: %v", cfg.LookaheadWindowHours)
	}
	if cfg.MinOccurrences != 3 {
		t.Fatalf("min_occurrences not overridden: %v", cfg.MinOccurrences)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxPersistedPerRun != DefaultConfig().MaxPersistedPerRun {
		t.Fatalf("unset key must keep its default: %v", cfg.MaxPersistedPerRun)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.yaml")
	if err := os.WriteFile(path, []byte("lookahead_window_hours: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("negative lookahead must be rejected")
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
}
