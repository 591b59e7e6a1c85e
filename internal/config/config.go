package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all componentforge configuration.
type Config struct {
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Verify    VerifyConfig    `yaml:"verify"`
	Harness   HarnessConfig   `yaml:"harness"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SynthesisConfig configures where artifacts are written.
type SynthesisConfig struct {
	ArtifactDir string `yaml:"artifact_dir"`
}

// VerifyConfig configures the verifier.
type VerifyConfig struct {
	LoadTimeout string `yaml:"load_timeout"`
	Workers     int    `yaml:"workers"` // concurrent verifications in VerifyAll
}

// HarnessConfig configures entry-point execution.
type HarnessConfig struct {
	ExecTimeout string   `yaml:"exec_timeout"`
	SearchDirs  []string `yaml:"search_dirs"` // extra bases for relative artifact paths
}

// CatalogConfig configures the SQLite catalog. An empty path disables it.
type CatalogConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Synthesis: SynthesisConfig{
			ArtifactDir: "components",
		},
		Verify: VerifyConfig{
			LoadTimeout: "30s",
			Workers:     4,
		},
		Harness: HarnessConfig{
			ExecTimeout: "60s",
		},
		Catalog: CatalogConfig{
			DatabasePath: filepath.Join(".forge", "catalog.db"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; env overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("FORGE_ARTIFACT_DIR"); dir != "" {
		c.Synthesis.ArtifactDir = dir
	}
	if db, ok := os.LookupEnv("FORGE_CATALOG_DB"); ok {
		// explicitly empty disables the catalog
		c.Catalog.DatabasePath = db
	}
	if timeout := os.Getenv("FORGE_EXEC_TIMEOUT"); timeout != "" {
		c.Harness.ExecTimeout = timeout
	}
	if debug := os.Getenv("FORGE_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// GetExecTimeout returns the entry-point execution timeout.
func (c *Config) GetExecTimeout() time.Duration {
	return parseDuration(c.Harness.ExecTimeout, 60*time.Second)
}

// GetLoadTimeout returns the interpreter load timeout.
func (c *Config) GetLoadTimeout() time.Duration {
	return parseDuration(c.Verify.LoadTimeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Synthesis.ArtifactDir == "" {
		return fmt.Errorf("synthesis.artifact_dir is required")
	}
	if c.Verify.Workers < 0 {
		return fmt.Errorf("verify.workers must not be negative")
	}
	if c.Harness.ExecTimeout != "" {
		if _, err := time.ParseDuration(c.Harness.ExecTimeout); err != nil {
			return fmt.Errorf("invalid harness.exec_timeout: %w", err)
		}
	}
	if c.Verify.LoadTimeout != "" {
		if _, err := time.ParseDuration(c.Verify.LoadTimeout); err != nil {
			return fmt.Errorf("invalid verify.load_timeout: %w", err)
		}
	}
	return nil
}

// ResolvePaths makes relative paths absolute against the workspace root.
func (c *Config) ResolvePaths(workspace string) {
	if c.Synthesis.ArtifactDir != "" && !filepath.IsAbs(c.Synthesis.ArtifactDir) {
		c.Synthesis.ArtifactDir = filepath.Join(workspace, c.Synthesis.ArtifactDir)
	}
	if c.Catalog.DatabasePath != "" && !filepath.IsAbs(c.Catalog.DatabasePath) {
		c.Catalog.DatabasePath = filepath.Join(workspace, c.Catalog.DatabasePath)
	}
	for i, dir := range c.Harness.SearchDirs {
		if !filepath.IsAbs(dir) {
			c.Harness.SearchDirs[i] = filepath.Join(workspace, dir)
		}
	}
}
