// Package main is the entry point for the gitoverlay command.
package main

import (
	"fmt"
	"os"

	"github.com/chmouel/gitoverlay/internal/buildinfo"
	"github.com/chmouel/gitoverlay/internal/config"
	"github.com/chmouel/gitoverlay/internal/log"
	"github.com/chmouel/gitoverlay/internal/utils"
	urfavecli "github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	cliApp := &urfavecli.App{
		Name:                 "gitoverlay",
		Usage:                "Git status overlays for asset trees",
		Version:              buildinfo.String(),
		EnableBashCompletion: true,

		Flags: globalFlags(),

		Commands: []*urfavecli.Command{
			statusCommand(),
			folderCommand(),
			watchCommand(),
		},

		// Bare invocation behaves like "status".
		Action: runStatus,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadConfig assembles the effective configuration: debug log first so early
// failures are captured, then the config file, then --config overrides.
func loadConfig(c *urfavecli.Context) (*config.AppConfig, error) {
	if debugLog := c.String("debug-log"); debugLog != "" {
		expanded, err := utils.ExpandPath(debugLog)
		if err != nil {
			expanded = debugLog
		}
		if err := log.SetFile(expanded); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", expanded, err)
		}
	}

	cfg, err := config.LoadConfig(c.String("config-file"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if c.String("debug-log") == "" {
		if cfg.DebugLog != "" {
			path := cfg.DebugLog
			if expanded, err := utils.ExpandPath(path); err == nil {
				path = expanded
			}
			if err := log.SetFile(path); err != nil {
				fmt.Fprintf(os.Stderr, "Error opening debug log file from config %q: %v\n", path, err)
			}
		} else {
			_ = log.SetFile("")
		}
	}

	if overrides := c.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyOverrides(overrides); err != nil {
			return nil, fmt.Errorf("applying config overrides: %w", err)
		}
	}
	return cfg, nil
}
