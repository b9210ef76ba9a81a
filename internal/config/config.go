// Package config loads the worker's operational configuration — machine
// definitions, sizing profiles, and storage/cache endpoints — from a TOML
// file, using BurntSushi/toml for the same style of parsing used
// elsewhere in the tree.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// MachineConfig is the TOML representation of a print machine's fixed
// physical limits, keyed by machine name in the config file.
type MachineConfig struct {
	UsableWidthMM float64 `toml:"usable_width_mm"`
	MaxLengthMM   float64 `toml:"max_length_mm"`
	MinDPI        int     `toml:"min_dpi"`
}

// ToMachine converts a MachineConfig into the sizing.Machine value the
// core operates on.
func (m MachineConfig) ToMachine() sizing.Machine {
	return sizing.Machine{
		UsableWidthMM: m.UsableWidthMM,
		MaxLengthMM:   m.MaxLengthMM,
		MinDPI:        m.MinDPI,
	}
}

// ProfileConfig is the TOML representation of one tenant sizing profile.
type ProfileConfig struct {
	SKUPrefix     string  `toml:"sku_prefix"`
	TargetWidthMM float64 `toml:"target_width_mm"`
	IsDefault     bool    `toml:"is_default"`
}

// ToProfile converts a ProfileConfig into the sizing.SizingProfile value
// the core operates on.
func (p ProfileConfig) ToProfile() sizing.SizingProfile {
	return sizing.SizingProfile{
		SKUPrefix:     p.SKUPrefix,
		TargetWidthMM: p.TargetWidthMM,
		IsDefault:     p.IsDefault,
	}
}

// TenantConfig is the TOML representation of one tenant's profile set.
type TenantConfig struct {
	Machine  string          `toml:"machine"`
	Profiles []ProfileConfig `toml:"profiles"`
}

// StorageConfig holds connection settings for the manifest store and
// artifact bucket.
type StorageConfig struct {
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	ArtifactDir   string `toml:"artifact_dir"`
}

// CacheConfig holds connection settings for the sizing-profile cache.
type CacheConfig struct {
	RedisAddr string `toml:"redis_addr"`
	TTLSecs   int    `toml:"ttl_seconds"`
}

// TTL returns the configured cache TTL, defaulting to 5 minutes when unset.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSecs) * time.Second
}

// Config is the top-level worker configuration, loaded from a single
// TOML file at startup.
type Config struct {
	Machines         map[string]MachineConfig `toml:"machines"`
	Tenants          map[string]TenantConfig  `toml:"tenants"`
	Storage          StorageConfig            `toml:"storage"`
	Cache            CacheConfig              `toml:"cache"`
	SoftDeadlineSecs int                      `toml:"soft_deadline_seconds"`
	HTTPAddr         string                   `toml:"http_addr"`
}

// SoftDeadline returns the configured per-job soft deadline, defaulting
// to 30 seconds when unset.
func (c Config) SoftDeadline() time.Duration {
	if c.SoftDeadlineSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SoftDeadlineSecs) * time.Second
}

// MachineFor resolves the sizing.Machine a tenant prints on, failing if
// the tenant or its referenced machine is not configured.
func (c Config) MachineFor(tenantID string) (sizing.Machine, error) {
	tenant, ok := c.Tenants[tenantID]
	if !ok {
		return sizing.Machine{}, fmt.Errorf("config: unknown tenant %q", tenantID)
	}
	machine, ok := c.Machines[tenant.Machine]
	if !ok {
		return sizing.Machine{}, fmt.Errorf("config: tenant %q references unknown machine %q", tenantID, tenant.Machine)
	}
	return machine.ToMachine(), nil
}

// ProfileSetFor resolves the SizingProfile set a tenant resolves SKUs
// against, failing if the tenant is not configured.
func (c Config) ProfileSetFor(tenantID string) ([]sizing.SizingProfile, error) {
	tenant, ok := c.Tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("config: unknown tenant %q", tenantID)
	}
	profiles := make([]sizing.SizingProfile, 0, len(tenant.Profiles))
	for _, p := range tenant.Profiles {
		profiles = append(profiles, p.ToProfile())
	}
	return profiles, nil
}

// Load reads and parses the TOML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
