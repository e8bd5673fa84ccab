package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netnuke/internal/config"
	"netnuke/internal/wipe"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, config.Validate(cfg))
	assert.True(t, cfg.Wipe.TestMode)

	wc, err := cfg.WipeConfig()
	require.NoError(t, err)
	assert.Equal(t, wipe.DefaultConfig(), wc)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netnuke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wipe:
  nuke_level: random-slow
  passes: 3
  block_size: 4096
  write_mode: async
security:
  excluded_devices: ["/dev/nvme*"]
catalog:
  source: legacy
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "random-slow", cfg.Wipe.NukeLevel)
	assert.Equal(t, 3, cfg.Wipe.Passes)
	assert.Equal(t, config.CatalogLegacy, cfg.Catalog.Source)
	assert.Equal(t, []string{"/dev/nvme*"}, cfg.Security.ExcludedDevices)

	// не указанные в файле поля остаются по умолчанию
	assert.True(t, cfg.Wipe.TestMode)
	assert.Equal(t, "INFO", cfg.Logging.Level)

	wc, err := cfg.WipeConfig()
	require.NoError(t, err)
	assert.Equal(t, wipe.LevelRandomSlow, wc.Level)
	assert.Equal(t, wipe.WriteAsync, wc.WriteMode)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"bad yaml":       "wipe: [",
		"zero block":     "wipe:\n  block_size: 0\n",
		"bad level":      "wipe:\n  nuke_level: shred\n",
		"bad catalog":    "catalog:\n  source: udev\n",
		"bad log level":  "logging:\n  level: TRACE\n",
		"bad progress":   "ui:\n  progress: fancy\n",
		"empty excluded": "security:\n  excluded_devices: [\" \"]\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "netnuke.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := config.Default()
	cfg.Wipe.Passes = 0
	cfg.Wipe.NukeLevel = "4"
	cfg.Logging.Level = "debug"

	notes := cfg.Normalize()

	assert.Len(t, notes, 2)
	assert.Equal(t, 1, cfg.Wipe.Passes)
	assert.Equal(t, "pattern", cfg.Wipe.NukeLevel)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	require.NoError(t, config.Validate(cfg))

	cfg.Wipe.NukeLevel = "17"
	assert.Empty(t, cfg.Normalize())
	assert.Equal(t, "pattern", cfg.Wipe.NukeLevel)
}

func TestLoadNormalizesBeforeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netnuke.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wipe:\n  passes: 0\n  nuke_level: rewrite\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Wipe.Passes)
	assert.Equal(t, "pattern", cfg.Wipe.NukeLevel)

	// заметки загрузки отдаются один раз
	assert.Len(t, cfg.Normalize(), 2)
	assert.Empty(t, cfg.Normalize())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.ApplyProfile(cfg, "thorough"))

	path := filepath.Join(t.TempDir(), "nested", "netnuke.yaml")
	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Wipe.BlockSize = -1

	assert.Error(t, config.Save(cfg, filepath.Join(t.TempDir(), "netnuke.yaml")))
}

func TestApplyProfile(t *testing.T) {
	for _, profile := range []string{"quick", "standard", "thorough", "paranoid"} {
		t.Run(profile, func(t *testing.T) {
			cfg := config.Default()
			require.NoError(t, config.ApplyProfile(cfg, profile))

			_, err := cfg.WipeConfig()
			assert.NoError(t, err)
		})
	}

	cfg := config.Default()
	require.NoError(t, config.ApplyProfile(cfg, "paranoid"))
	assert.Equal(t, 7, cfg.Wipe.Passes)
	assert.Equal(t, "persist", cfg.Wipe.BlockSizePolicy)

	assert.Error(t, config.ApplyProfile(cfg, "sdelete"))
}
