package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
http_addr = ":8080"
soft_deadline_seconds = 45

[machines.press_a]
usable_width_mm = 600
max_length_mm = 2500
min_dpi = 300

[storage]
mongo_uri = "mongodb://localhost:27017"
mongo_database = "printer_queue"
artifact_dir = "/var/lib/printer-queue/outputs"

[cache]
redis_addr = "localhost:6379"
ttl_seconds = 120

[tenants.acme]
machine = "press_a"

[[tenants.acme.profiles]]
sku_prefix = "ACME-BANNER"
target_width_mm = 500

[[tenants.acme.profiles]]
sku_prefix = ""
target_width_mm = 300
is_default = true
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "worker.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_ParsesMachinesTenantsStorageCache(t *testing.T) {
	cfg, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.SoftDeadline().Seconds() != 45 {
		t.Errorf("SoftDeadline() = %v, want 45s", cfg.SoftDeadline())
	}
	if cfg.Cache.TTL().Seconds() != 120 {
		t.Errorf("Cache.TTL() = %v, want 120s", cfg.Cache.TTL())
	}

	machine, err := cfg.MachineFor("acme")
	if err != nil {
		t.Fatalf("MachineFor() error = %v", err)
	}
	if machine.UsableWidthMM != 600 || machine.MaxLengthMM != 2500 || machine.MinDPI != 300 {
		t.Errorf("MachineFor() = %+v, want usable=600 max=2500 dpi=300", machine)
	}

	profiles, err := cfg.ProfileSetFor("acme")
	if err != nil {
		t.Fatalf("ProfileSetFor() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("len(profiles) = %d, want 2", len(profiles))
	}
	if !profiles[1].IsDefault {
		t.Error("second profile should be the tenant default")
	}
}

func TestLoad_UnknownTenant(t *testing.T) {
	cfg, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := cfg.MachineFor("nonexistent"); err == nil {
		t.Error("expected an error for an unconfigured tenant")
	}
}

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	var cfg Config
	if cfg.SoftDeadline().Seconds() != 30 {
		t.Errorf("zero-value SoftDeadline() = %v, want 30s default", cfg.SoftDeadline())
	}
	if cfg.Cache.TTL().Minutes() != 5 {
		t.Errorf("zero-value Cache.TTL() = %v, want 5m default", cfg.Cache.TTL())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error loading a nonexistent file")
	}
}
