package tui

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/gitoverlay/internal/models"
	devicons "github.com/epilande/go-devicons"
	"github.com/muesli/reflow/wrap"
)

var (
	colorAccent     = lipgloss.Color("62")
	colorMutedFg    = lipgloss.Color("245")
	colorSelectedFg = lipgloss.Color("232")

	headerStyle = lipgloss.NewStyle().
			Background(colorAccent).
			Foreground(lipgloss.Color("255")).
			Bold(true).
			Padding(0, 1)

	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle = lipgloss.NewStyle().Foreground(colorMutedFg)
)

// badgeDefs orders flags for rendering and carries their badge colors.
var badgeDefs = []struct {
	flag  models.StatusFlags
	label string
	color lipgloss.Color
}{
	{models.FlagConflicted, "conflicted", lipgloss.Color("196")},
	{models.FlagWarning, "warning", lipgloss.Color("208")},
	{models.FlagStaged, "staged", lipgloss.Color("39")},
	{models.FlagModified, "modified", lipgloss.Color("220")},
	{models.FlagUntracked, "untracked", lipgloss.Color("76")},
	{models.FlagDeleted, "deleted", lipgloss.Color("160")},
	{models.FlagRenamed, "renamed", lipgloss.Color("135")},
	{models.FlagMoved, "moved", lipgloss.Color("135")},
	{models.FlagCopied, "copied", lipgloss.Color("135")},
	{models.FlagIgnored, "ignored", lipgloss.Color("241")},
	{models.FlagPushAvailable, "push", lipgloss.Color("45")},
	{models.FlagOriginAvailable, "origin", lipgloss.Color("45")},
	{models.FlagError, "error", lipgloss.Color("196")},
}

func renderBadges(flags models.StatusFlags) string {
	var parts []string
	for _, def := range badgeDefs {
		if flags.Has(def.flag) {
			style := lipgloss.NewStyle().Foreground(def.color)
			parts = append(parts, style.Render(def.label))
		}
	}
	return strings.Join(parts, " ")
}

type iconFileInfo struct {
	name  string
	isDir bool
}

func (i iconFileInfo) Name() string { return i.name }

func (i iconFileInfo) Size() int64 { return 0 }

func (i iconFileInfo) Mode() os.FileMode {
	if i.isDir {
		return os.ModeDir | 0o755
	}
	return 0
}

func (i iconFileInfo) ModTime() time.Time { return time.Time{} }

func (i iconFileInfo) IsDir() bool { return i.isDir }

func (i iconFileInfo) Sys() any { return nil }

func deviconForName(name string, isDir bool) string {
	if name == "" {
		return ""
	}
	style := devicons.IconForInfo(iconFileInfo{name: name, isDir: isDir})
	return style.Icon
}

func (m *Model) pathCell(p string) string {
	if !m.cfg.ShowIcons {
		return p
	}
	icon := deviconForName(path.Base(p), false)
	if icon == "" {
		return p
	}
	return icon + " " + p
}

func (m *Model) renderRemote() string {
	state := m.monitor.RemoteState()
	if !m.cfg.RemoteTracking || state.Branch == "" {
		return ""
	}
	line := "branch " + state.Branch
	if !state.HasUpstream {
		return line + " (no upstream)"
	}
	if n := len(state.PushPaths); n > 0 {
		line += fmt.Sprintf(", %d path(s) to push", n)
	}
	if state.Incoming {
		line += fmt.Sprintf(", %d path(s) incoming", len(state.OriginPaths))
	}
	return line
}

// View renders the diagnostics window.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("gitoverlay"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if remote := m.renderRemote(); remote != "" {
		b.WriteString(footerStyle.Render(remote))
		b.WriteString("\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render(m.lastErr.Error()))
		b.WriteString("\n")
	}

	hints := "r: refresh now  q: quit"
	if !m.lastSync.IsZero() {
		hints += "  last sync " + m.lastSync.Format("15:04:05")
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	b.WriteString(footerStyle.Render(wrap.String(hints, width)))
	return b.String()
}
