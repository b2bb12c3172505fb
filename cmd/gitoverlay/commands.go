package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/gitoverlay/internal/config"
	"github.com/chmouel/gitoverlay/internal/git"
	"github.com/chmouel/gitoverlay/internal/log"
	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/chmouel/gitoverlay/internal/overlay"
	"github.com/chmouel/gitoverlay/internal/tui"
	"github.com/chmouel/gitoverlay/internal/watch"
	urfavecli "github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "status",
		Usage:     "Refresh once and print path statuses",
		ArgsUsage: "[path...]",
		Action:    runStatus,
	}
}

func folderCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "folder",
		Usage:     "Print the derived status of a folder",
		ArgsUsage: "<dir>",
		Action:    runFolder,
	}
}

func watchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "watch",
		Usage:  "Live diagnostics viewer",
		Action: runWatch,
	}
}

// engine bundles what every command needs after setup.
type engine struct {
	cfg     *config.AppConfig
	git     *git.Service
	monitor *overlay.Monitor
	repoDir string
}

func newEngine(c *urfavecli.Context) (*engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	notify := func(msg, severity string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", severity, msg)
	}
	seen := map[string]bool{}
	notifyOnce := func(key, msg, severity string) {
		if seen[key] {
			return
		}
		seen[key] = true
		notify(msg, severity)
	}
	gitSvc := git.NewService(git.ExecRunner{}, notify, notifyOnce)

	startDir := c.String("repo")
	if startDir == "" {
		startDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	repoDir, ok := gitSvc.TopLevel(c.Context, startDir)
	if !ok {
		return nil, fmt.Errorf("%s is not inside a git repository", startDir)
	}

	return &engine{
		cfg:     cfg,
		git:     gitSvc,
		monitor: overlay.NewMonitor(cfg, gitSvc, repoDir, log.Printf),
		repoDir: repoDir,
	}, nil
}

func colorEnabled(c *urfavecli.Context) bool {
	if c.Bool("no-color") {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func renderFlags(flags models.StatusFlags, colored bool) string {
	text := flags.String()
	if !colored {
		return text
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	if flags.HasAny(models.FlagConflicted | models.FlagWarning | models.FlagError) {
		style = style.Foreground(lipgloss.Color("196"))
	}
	return style.Render(text)
}

func runStatus(c *urfavecli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	if err := eng.monitor.Refresh(c.Context); err != nil {
		return err
	}
	colored := colorEnabled(c)

	if c.NArg() > 0 {
		for _, arg := range c.Args().Slice() {
			flags, ok := eng.monitor.Status(arg)
			if !ok {
				fmt.Printf("%s\tnone\n", arg)
				continue
			}
			fmt.Printf("%s\t%s\n", arg, renderFlags(eng.monitor.RenderableFlags(flags), colored))
		}
		return nil
	}

	statuses := eng.monitor.AllStatuses()
	paths := make([]string, 0, len(statuses))
	for p := range statuses {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		flags := eng.monitor.RenderableFlags(statuses[p])
		if flags == models.FlagNone {
			continue
		}
		fmt.Printf("%s\t%s\n", p, renderFlags(flags, colored))
	}
	return nil
}

func runFolder(c *urfavecli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gitoverlay folder <dir>")
	}
	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	if err := eng.monitor.Refresh(c.Context); err != nil {
		return err
	}

	dir := c.Args().First()
	status := eng.monitor.FolderStatus(dir)
	var parts []string
	if status.IsAllNew {
		parts = append(parts, "all-new")
	}
	if status.HasModifiedChild {
		parts = append(parts, "modified-children")
	}
	if len(parts) == 0 {
		parts = append(parts, "none")
	}
	fmt.Printf("%s\t%s\n", dir, strings.Join(parts, "|"))
	return nil
}

func runWatch(c *urfavecli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}

	watcher := watch.NewService(eng.git, eng.repoDir, eng.cfg.TrackedRoot, log.Printf)
	started, err := watcher.Start(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "filesystem watch unavailable: %v\n", err)
	}
	if !started {
		watcher = nil
	}

	model := tui.NewModel(eng.cfg, eng.monitor, watcher)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()

	if watcher != nil {
		watcher.Stop()
	}
	if closeErr := log.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing debug log: %v\n", closeErr)
	}
	return err
}
