// Package config loads fleetdeck's own configuration: a YAML file with a
// narrow set of environment overrides, grounded on netxfw-netxfw's
// ConfigManager/GlobalConfig pattern but scoped to what this console needs.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fleetdeck/fleetdeck/internal/logging"
	"github.com/fleetdeck/fleetdeck/internal/metrics"
)

// Config is fleetdeck's full runtime configuration.
type Config struct {
	// RootDir is the directory containing one subdirectory per service.
	RootDir string `yaml:"rootDir"`
	// Timezone is the IANA zone used to interpret locale-form timestamps
	// lacking a zone (spec §4.1, Open Question decided in SPEC_FULL §4).
	Timezone string `yaml:"timezone"`
	// HostIP is exposed to the compose generator; unused by the core engine.
	HostIP string `yaml:"hostIP"`
	// ListenAddr is the HTTP server's bind address.
	ListenAddr string `yaml:"listenAddr"`
	// SoftCapBytes bounds a single readTimeRange's materialized byte range.
	SoftCapBytes int64 `yaml:"softCapBytes"`
	// ServiceRescanInterval controls how often the enumerator rescans RootDir.
	ServiceRescanInterval time.Duration `yaml:"serviceRescanInterval"`
	// ServicePollInterval controls how often service status is polled.
	ServicePollInterval time.Duration `yaml:"servicePollInterval"`
	// SidecarJanitorInterval controls how often orphaned .timecache files
	// are garbage collected.
	SidecarJanitorInterval time.Duration `yaml:"sidecarJanitorInterval"`

	Logging logging.Config `yaml:"logging"`
	Metrics metrics.Config `yaml:"metrics"`
}

// Default returns the configuration used when no file is supplied. RootDir
// is deliberately left empty: it has no safe default (spec §6 requires
// CONTAINER_DIR or an equivalent rootDir to be set, fatal otherwise) and
// must come from the YAML file or the CONTAINER_DIR override applied in
// Load.
func Default() Config {
	return Config{
		Timezone:               "Local",
		ListenAddr:             ":8090",
		SoftCapBytes:           64 * 1024 * 1024,
		ServiceRescanInterval:  30 * time.Second,
		ServicePollInterval:    15 * time.Second,
		SidecarJanitorInterval: 1 * time.Hour,
		Logging: logging.Config{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Metrics: metrics.Config{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path (if non-empty) over Default, then applies the
// CONTAINER_DIR / HOST_IP / TZ environment overrides (spec §6). A service
// root directory is mandatory: if neither the YAML file's rootDir nor
// CONTAINER_DIR resolves one, Load fails fatally rather than falling back
// to a guessed default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.RootDir == "" {
		return Config{}, fmt.Errorf("config: no service root directory configured; set CONTAINER_DIR or rootDir in the config file")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTAINER_DIR"); v != "" {
		cfg.RootDir = v
	}
	if v := os.Getenv("HOST_IP"); v != "" {
		cfg.HostIP = v
	}
	if v := os.Getenv("TZ"); v != "" {
		cfg.Timezone = v
	}
}

// Manager guards a live Config behind a mutex so it can be read and
// replaced concurrently and saved back to its file.
type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

// NewManager wraps an already-loaded Config for path (used for Save).
func NewManager(path string, cfg Config) *Manager {
	return &Manager{path: path, cfg: cfg}
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Update replaces the in-memory configuration without persisting it.
func (m *Manager) Update(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Save persists the current configuration back to path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := yaml.Marshal(m.cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}
