// Package tui implements the diagnostics viewer behind "gitoverlay watch":
// a live table of overlay entries refreshed by the monitor's poll cycle and
// by filesystem events.
package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/gitoverlay/internal/config"
	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/chmouel/gitoverlay/internal/overlay"
	"github.com/chmouel/gitoverlay/internal/watch"
)

type tickMsg time.Time

type watchMsg struct{}

type refreshedMsg struct {
	err error
}

// Model drives the diagnostics view. The monitor owns all git state; the
// model only schedules its cycles and renders the published table.
type Model struct {
	cfg     *config.AppConfig
	monitor *overlay.Monitor
	watcher *watch.Service

	table    table.Model
	width    int
	height   int
	lastErr  error
	lastSync time.Time
	quitting bool
	ctx      context.Context
}

// NewModel creates the diagnostics model. watcher may be nil when filesystem
// watching is unavailable; the view then relies on the poll tick alone.
func NewModel(cfg *config.AppConfig, monitor *overlay.Monitor, watcher *watch.Service) *Model {
	columns := []table.Column{
		{Title: "Path", Width: 48},
		{Title: "Status", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(colorMutedFg).Bold(true)
	s.Selected = s.Selected.Foreground(colorSelectedFg).Background(colorAccent).Bold(true)
	t.SetStyles(s)

	return &Model{
		cfg:     cfg,
		monitor: monitor,
		watcher: watcher,
		table:   t,
		ctx:     context.Background(),
	}
}

// Init starts the poll tick, arms the watcher listener and kicks off the
// first refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd(), m.watchCmd())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		}

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.pollCmd(time.Time(msg)))

	case watchMsg:
		cmds := []tea.Cmd{}
		if m.watcher != nil {
			m.watcher.ResetWaiting()
			if m.watcher.ShouldRefresh(time.Now()) {
				cmds = append(cmds, m.refreshCmd())
			}
			cmds = append(cmds, m.watchCmd())
		}
		return m, tea.Batch(cmds...)

	case refreshedMsg:
		m.lastErr = msg.err
		m.lastSync = time.Now()
		m.rebuildRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.monitor.Refresh(m.ctx)}
	}
}

// pollCmd runs one monitor tick off the Update path; the monitor deduplicates
// overlapping cycles itself.
func (m *Model) pollCmd(now time.Time) tea.Cmd {
	return func() tea.Msg {
		if m.monitor.Tick(m.ctx, now) {
			return refreshedMsg{}
		}
		return nil
	}
}

// watchCmd blocks on the next filesystem event. NextEvent returns nil while a
// listener is already armed, which keeps at most one of these in flight.
func (m *Model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.NextEvent()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return watchMsg{}
	}
}

func (m *Model) rebuildRows() {
	statuses := m.monitor.AllStatuses()
	paths := make([]string, 0, len(statuses))
	for p := range statuses {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]table.Row, 0, len(paths))
	for _, p := range paths {
		flags := m.monitor.RenderableFlags(statuses[p])
		if flags == models.FlagNone {
			continue
		}
		rows = append(rows, table.Row{m.pathCell(p), renderBadges(flags)})
	}
	m.table.SetRows(rows)
}
