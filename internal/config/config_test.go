package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("FORGE_ARTIFACT_DIR", "")
	t.Setenv("FORGE_EXEC_TIMEOUT", "")
	t.Setenv("FORGE_DEBUG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	want := DefaultConfig()
	if _, ok := os.LookupEnv("FORGE_CATALOG_DB"); ok {
		want.Catalog.DatabasePath = os.Getenv("FORGE_CATALOG_DB")
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("FORGE_ARTIFACT_DIR", "")
	t.Setenv("FORGE_EXEC_TIMEOUT", "")
	t.Setenv("FORGE_DEBUG", "")

	path := filepath.Join(t.TempDir(), "nested", "forge.yaml")
	cfg := DefaultConfig()
	cfg.Synthesis.ArtifactDir = "out"
	cfg.Harness.SearchDirs = []string{"extra"}
	cfg.Logging.Categories = map[string]bool{"verify": true}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", loaded.Synthesis.ArtifactDir)
	assert.Equal(t, []string{"extra"}, loaded.Harness.SearchDirs)
	assert.True(t, loaded.Logging.Categories["verify"])
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("synthesis: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationGetters(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 60*time.Second, cfg.GetExecTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetLoadTimeout())

	cfg.Harness.ExecTimeout = "5s"
	cfg.Verify.LoadTimeout = "bogus"
	assert.Equal(t, 5*time.Second, cfg.GetExecTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetLoadTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty artifact dir", func(c *Config) { c.Synthesis.ArtifactDir = "" }, true},
		{"negative workers", func(c *Config) { c.Verify.Workers = -1 }, true},
		{"bad exec timeout", func(c *Config) { c.Harness.ExecTimeout = "soon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harness.SearchDirs = []string{"lib", "/abs"}
	cfg.ResolvePaths("/ws")

	assert.Equal(t, filepath.Join("/ws", "components"), cfg.Synthesis.ArtifactDir)
	assert.Equal(t, filepath.Join("/ws", ".forge", "catalog.db"), cfg.Catalog.DatabasePath)
	assert.Equal(t, []string{filepath.Join("/ws", "lib"), "/abs"}, cfg.Harness.SearchDirs)
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("verify"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("verify"))

	lc.Categories = map[string]bool{"verify": false}
	assert.False(t, lc.IsCategoryEnabled("verify"))
	assert.True(t, lc.IsCategoryEnabled("harness"))
}
