package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Assets", cfg.TrackedRoot)
	assert.Equal(t, ".meta", cfg.SidecarSuffix)
	assert.Equal(t, DefaultRefreshIntervalSeconds, cfg.RefreshIntervalSeconds)
	assert.False(t, cfg.RemoteTracking)
	assert.Equal(t, DefaultFetchIntervalSeconds, cfg.FetchIntervalSeconds)
	assert.True(t, cfg.ShowPushAvailable)
	assert.True(t, cfg.DetectConflicts)
	assert.True(t, cfg.FolderOverlay)
	assert.True(t, cfg.ShowIcons)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
tracked_root: Content/
sidecar_suffix: uasset-meta
refresh_interval_seconds: 30
remote_tracking: true
fetch_interval_seconds: 120
show_push_available: false
detect_conflicts: "yes"
folder_overlay: off
flag_mask:
  - modified
  - untracked
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Content", cfg.TrackedRoot)
	assert.Equal(t, ".uasset-meta", cfg.SidecarSuffix)
	assert.Equal(t, 30, cfg.RefreshIntervalSeconds)
	assert.True(t, cfg.RemoteTracking)
	assert.Equal(t, 120, cfg.FetchIntervalSeconds)
	assert.False(t, cfg.ShowPushAvailable)
	assert.True(t, cfg.DetectConflicts)
	assert.False(t, cfg.FolderOverlay)
	assert.Equal(t, []string{"modified", "untracked"}, cfg.FlagMask)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "tracked_root: [unterminated")
	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestFetchIntervalClamped(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "fetch_interval_seconds: 5"))
	require.NoError(t, err)
	assert.Equal(t, MinFetchIntervalSeconds, cfg.FetchIntervalSeconds)

	cfg, err = LoadConfig(writeConfig(t, "fetch_interval_seconds: 999999"))
	require.NoError(t, err)
	assert.Equal(t, MaxFetchIntervalSeconds, cfg.FetchIntervalSeconds)
}

func TestMaskBits(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, models.AllFlags, cfg.MaskBits())

	cfg.FlagMask = []string{"modified", "Push-Available", "bogus"}
	mask := cfg.MaskBits()
	assert.True(t, mask.Has(models.FlagModified))
	assert.True(t, mask.Has(models.FlagPushAvailable))
	assert.False(t, mask.Has(models.FlagUntracked))

	cfg.FlagMask = []string{"bogus"}
	assert.Equal(t, models.AllFlags, cfg.MaskBits(), "all-unknown mask falls back to everything")
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOverrides([]string{
		"tracked_root=Game/Assets",
		"remote_tracking=on",
		"fetch_interval_seconds=90",
		"flag_mask=modified,staged",
	})
	require.NoError(t, err)

	assert.Equal(t, "Game/Assets", cfg.TrackedRoot)
	assert.True(t, cfg.RemoteTracking)
	assert.Equal(t, 90, cfg.FetchIntervalSeconds)
	assert.Equal(t, []string{"modified", "staged"}, cfg.FlagMask)
}

func TestApplyOverridesRejectsUnknownKey(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ApplyOverrides([]string{"nope=1"}))
	assert.Error(t, cfg.ApplyOverrides([]string{"missing-equals"}))
}
