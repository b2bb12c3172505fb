// Package config loads the gitoverlay configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chmouel/gitoverlay/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRefreshIntervalSeconds is the fixed status refresh period.
	DefaultRefreshIntervalSeconds = 10
	// DefaultFetchIntervalSeconds is the default background fetch period.
	DefaultFetchIntervalSeconds = 300
	// MinFetchIntervalSeconds and MaxFetchIntervalSeconds bound the
	// configurable fetch period.
	MinFetchIntervalSeconds = 60
	MaxFetchIntervalSeconds = 3600
)

// AppConfig defines the global gitoverlay configuration options.
type AppConfig struct {
	TrackedRoot            string   // Subtree eligible for status overlay, e.g. "Assets"
	SidecarSuffix          string   // Suffix of sidecar metadata files, e.g. ".meta"
	RefreshIntervalSeconds int      // Scheduled refresh period
	RemoteTracking         bool     // Enable ahead/behind remote comparison
	FetchIntervalSeconds   int      // Background fetch period, clamped to [60, 3600]
	ShowPushAvailable      bool     // Flag paths touched by unpushed commits
	DetectConflicts        bool     // Flag paths changed both locally and on the remote
	FolderOverlay          bool     // Enable folder-level aggregation
	FlagMask               []string // Flag names eligible to render; empty means all
	ShowIcons              bool     // Render Nerd Font icons in the diagnostics viewer
	DebugLog               string
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		TrackedRoot:            "Assets",
		SidecarSuffix:          ".meta",
		RefreshIntervalSeconds: DefaultRefreshIntervalSeconds,
		RemoteTracking:         false,
		FetchIntervalSeconds:   DefaultFetchIntervalSeconds,
		ShowPushAvailable:      true,
		DetectConflicts:        true,
		FolderOverlay:          true,
		ShowIcons:              true,
	}
}

// MaskBits resolves FlagMask names to a StatusFlags bitset. Unknown names are
// ignored; an empty mask renders everything.
func (c *AppConfig) MaskBits() models.StatusFlags {
	if len(c.FlagMask) == 0 {
		return models.AllFlags
	}
	var mask models.StatusFlags
	for _, name := range c.FlagMask {
		if flag, ok := models.ParseFlagName(name); ok {
			mask |= flag
		}
	}
	if mask == 0 {
		return models.AllFlags
	}
	return mask
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}
	switch v := value.(type) {
	case bool:
		return defaultVal
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	}
	return defaultVal
}

func coerceStringList(value any) []string {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		return strings.Fields(text)
	case []any:
		var list []string
		for _, item := range v {
			if item == nil {
				continue
			}
			text := strings.TrimSpace(fmt.Sprintf("%v", item))
			if text != "" {
				list = append(list, text)
			}
		}
		return list
	}
	return nil
}

func clampFetchInterval(seconds int) int {
	if seconds < MinFetchIntervalSeconds {
		return MinFetchIntervalSeconds
	}
	if seconds > MaxFetchIntervalSeconds {
		return MaxFetchIntervalSeconds
	}
	return seconds
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()

	if root, ok := data["tracked_root"].(string); ok {
		root = strings.Trim(strings.TrimSpace(root), "/")
		if root != "" {
			cfg.TrackedRoot = root
		}
	}
	if suffix, ok := data["sidecar_suffix"].(string); ok {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" {
			if !strings.HasPrefix(suffix, ".") {
				suffix = "." + suffix
			}
			cfg.SidecarSuffix = suffix
		}
	}
	if debugLog, ok := data["debug_log"].(string); ok {
		debugLog = strings.TrimSpace(debugLog)
		if debugLog != "" {
			cfg.DebugLog = debugLog
		}
	}

	cfg.RefreshIntervalSeconds = coerceInt(data["refresh_interval_seconds"], DefaultRefreshIntervalSeconds)
	if cfg.RefreshIntervalSeconds < 1 {
		cfg.RefreshIntervalSeconds = DefaultRefreshIntervalSeconds
	}
	cfg.RemoteTracking = coerceBool(data["remote_tracking"], false)
	cfg.FetchIntervalSeconds = clampFetchInterval(coerceInt(data["fetch_interval_seconds"], DefaultFetchIntervalSeconds))
	cfg.ShowPushAvailable = coerceBool(data["show_push_available"], true)
	cfg.DetectConflicts = coerceBool(data["detect_conflicts"], true)
	cfg.FolderOverlay = coerceBool(data["folder_overlay"], true)
	cfg.ShowIcons = coerceBool(data["show_icons"], true)
	cfg.FlagMask = coerceStringList(data["flag_mask"])

	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// LoadConfig reads the application configuration from a YAML file. When
// configPath is empty the XDG config directory is searched; a missing file
// yields defaults, not an error.
func LoadConfig(configPath string) (*AppConfig, error) {
	var paths []string
	if configPath != "" {
		expanded, err := expandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		paths = []string{expanded}
	} else {
		configBase := filepath.Join(getConfigDir(), "gitoverlay")
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path comes from the user's own config location
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return parseConfig(yamlData), nil
	}

	return DefaultConfig(), nil
}

// ApplyOverrides applies key=value pairs from the command line on top of the
// loaded configuration. Keys use the same names as the YAML file.
func (c *AppConfig) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		key, value, found := strings.Cut(override, "=")
		if !found {
			return fmt.Errorf("invalid override %q (want key=value)", override)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "tracked_root":
			c.TrackedRoot = strings.Trim(value, "/")
		case "sidecar_suffix":
			if value != "" && !strings.HasPrefix(value, ".") {
				value = "." + value
			}
			c.SidecarSuffix = value
		case "refresh_interval_seconds":
			c.RefreshIntervalSeconds = coerceInt(value, c.RefreshIntervalSeconds)
		case "remote_tracking":
			c.RemoteTracking = coerceBool(value, c.RemoteTracking)
		case "fetch_interval_seconds":
			c.FetchIntervalSeconds = clampFetchInterval(coerceInt(value, c.FetchIntervalSeconds))
		case "show_push_available":
			c.ShowPushAvailable = coerceBool(value, c.ShowPushAvailable)
		case "detect_conflicts":
			c.DetectConflicts = coerceBool(value, c.DetectConflicts)
		case "folder_overlay":
			c.FolderOverlay = coerceBool(value, c.FolderOverlay)
		case "show_icons":
			c.ShowIcons = coerceBool(value, c.ShowIcons)
		case "flag_mask":
			c.FlagMask = strings.Split(value, ",")
		case "debug_log":
			c.DebugLog = value
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
