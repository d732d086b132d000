package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neuro-synapse/bridged/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridged.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServiceConfigEmptyPathUsesDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadServiceConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeID != "bridged.local" || cfg.ListenAddr != ":8080" || cfg.SyncInterval != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServiceConfigOverridesDefinedFieldsOnly(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
node_id = "bridged.test"
sync_interval = "250ms"
inbox_limit = 10
cors_origins = ["http://localhost:5173", "  "]
`)
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeID != "bridged.test" {
		t.Fatalf("node_id not applied: %+v", cfg)
	}
	if cfg.SyncInterval != 250*time.Millisecond || cfg.InboxLimit != 10 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("origins not normalized: %v", cfg.CORSOrigins)
	}
	// Undefined fields keep their defaults.
	if cfg.ListenAddr != ":8080" || cfg.CleanupGrace != 60*time.Second {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadServiceConfigRejectsBadDuration(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `cleanup_grace = "sixty seconds"`)
	if _, err := loadServiceConfig(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadServiceConfigRejectsMissingFile(t *testing.T) {
	testlog.Start(t)
	if _, err := loadServiceConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected file error")
	}
}

func TestLoadServiceConfigIgnoresBlankOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
node_id = "   "
listen_addr = ""
inbox_limit = 0
`)
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeID != "bridged.local" || cfg.ListenAddr != ":8080" || cfg.InboxLimit != 30 {
		t.Fatalf("blank values must keep defaults: %+v", cfg)
	}
}
