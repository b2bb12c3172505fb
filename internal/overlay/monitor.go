package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chmouel/gitoverlay/internal/config"
	"github.com/chmouel/gitoverlay/internal/git"
	"github.com/chmouel/gitoverlay/internal/models"
)

var statusArgs = []string{
	"git", "status", "--porcelain=v2", "-z", "--untracked-files=all", "--ignored",
}

// Monitor owns the refresh cycle and the published status table. A refresh
// builds a fresh table off to the side and publishes it with a pointer swap,
// so readers see either the previous complete table or the new one, never a
// half-built state. Published tables are treated as immutable.
type Monitor struct {
	cfg        *config.AppConfig
	git        *git.Service
	parser     *Parser
	resolver   *Resolver
	reconciler *Reconciler
	remote     *Tracker
	aggregator *Aggregator
	repoDir    string
	logf       func(string, ...any)

	// refreshMu collapses concurrent refresh requests to one in-flight run.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	published   *Table
	remoteState models.RemoteState
	nextRefresh time.Time
	nextFetch   time.Time
}

// NewMonitor wires the engine components for the working tree at repoDir.
func NewMonitor(cfg *config.AppConfig, gitSvc *git.Service, repoDir string, logf func(string, ...any)) *Monitor {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	parser := NewParser(cfg.TrackedRoot, cfg.SidecarSuffix)
	return &Monitor{
		cfg:        cfg,
		git:        gitSvc,
		parser:     parser,
		resolver:   NewResolver(gitSvc, repoDir, cfg.SidecarSuffix, logf),
		reconciler: NewReconciler(logf),
		remote:     NewTracker(gitSvc, parser, repoDir, logf),
		aggregator: NewAggregator(repoDir, cfg.SidecarSuffix),
		repoDir:    repoDir,
		logf:       logf,
	}
}

// Refresh runs one full cycle: status command, parse, reconcile, remote
// overlay, publish. It is synchronous, idempotent and safe to call
// repeatedly; a call arriving while another refresh is in flight returns
// immediately. On tool failure the previous table is retained (fail static)
// and the error is returned for logging only — no failure here is fatal.
func (m *Monitor) Refresh(ctx context.Context) error {
	if !m.refreshMu.TryLock() {
		// The in-flight refresh covers this request.
		return nil
	}
	defer m.refreshMu.Unlock()

	now := time.Now()
	m.mu.Lock()
	m.nextRefresh = now.Add(time.Duration(m.cfg.RefreshIntervalSeconds) * time.Second)
	m.mu.Unlock()

	out, ok := m.git.Output(ctx, statusArgs, m.repoDir)
	if !ok {
		m.mu.Lock()
		if m.published == nil {
			// Nothing to fall back to before the first successful refresh.
			m.published = NewTable()
		}
		m.mu.Unlock()
		return fmt.Errorf("status command failed, keeping previous table")
	}

	table := NewTable()
	pendingAdd := make(map[string]string)
	pendingDel := make(map[string]string)

	for _, entry := range m.parser.ParseStream(out) {
		table.Upsert(entry.Path, entry.Flags)
		if entry.Flags.Has(models.FlagDeleted) {
			if token := m.resolver.Resolve(ctx, entry.RawPath, true); token != "" {
				pendingDel[entry.Path] = token
			}
		}
		if entry.Flags.Has(models.FlagUntracked) {
			if token := m.resolver.Resolve(ctx, entry.RawPath, false); token != "" {
				pendingAdd[entry.Path] = token
			}
		}
	}

	if n := m.reconciler.Reconcile(table, pendingAdd, pendingDel); n > 0 {
		m.logf("refresh: collapsed %d rename/move pair(s)", n)
	}

	var remoteState models.RemoteState
	if m.cfg.RemoteTracking {
		remoteState = m.remote.Overlay(ctx, table, m.cfg.ShowPushAvailable, m.cfg.DetectConflicts)
	}

	m.mu.Lock()
	m.published = table
	m.remoteState = remoteState
	m.mu.Unlock()

	m.logf("refresh: published %d entries", table.Len())
	return nil
}

// Tick is the cooperative poll entry point. It triggers a fetch+refresh when
// the fetch deadline passed (remote tracking only) and a plain refresh when
// the status deadline passed. It reports whether a refresh ran.
func (m *Monitor) Tick(ctx context.Context, now time.Time) bool {
	refreshed := false

	if m.cfg.RemoteTracking && m.fetchDue(now) {
		if m.git.Fetch(ctx, m.repoDir) {
			if err := m.Refresh(ctx); err != nil {
				m.logf("tick: %v", err)
			}
			refreshed = true
		}
		// A failed fetch leaves the previous status untouched; the next
		// attempt waits a full interval rather than retrying immediately.
	}

	if !refreshed && m.refreshDue(now) {
		if err := m.Refresh(ctx); err != nil {
			m.logf("tick: %v", err)
		}
		refreshed = true
	}
	return refreshed
}

func (m *Monitor) refreshDue(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextRefresh.IsZero() || !now.Before(m.nextRefresh)
}

// fetchDue checks and re-arms the fetch deadline. The first tick only arms
// the timer: fetching immediately at startup would double the initial
// refresh work for no benefit.
func (m *Monitor) fetchDue(now time.Time) bool {
	interval := time.Duration(m.cfg.FetchIntervalSeconds) * time.Second

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nextFetch.IsZero() {
		m.nextFetch = now.Add(interval)
		return false
	}
	if now.Before(m.nextFetch) {
		return false
	}
	m.nextFetch = now.Add(interval)
	return true
}

func (m *Monitor) snapshot() *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published
}

// Status returns the flags for a path, ok=false when the path has no entry
// or no refresh has completed yet.
func (m *Monitor) Status(p string) (models.StatusFlags, bool) {
	t := m.snapshot()
	if t == nil {
		return 0, false
	}
	return t.Get(p)
}

// AllStatuses returns a copy of the published table for diagnostics.
func (m *Monitor) AllStatuses() map[string]models.StatusFlags {
	t := m.snapshot()
	if t == nil {
		return map[string]models.StatusFlags{}
	}
	return t.All()
}

// FolderStatus derives the folder-level signal for a repo-relative directory.
// It returns the zero value when folder overlay is disabled or nothing has
// been published.
func (m *Monitor) FolderStatus(folderPath string) models.DerivedFolderStatus {
	if !m.cfg.FolderOverlay {
		return models.DerivedFolderStatus{}
	}
	t := m.snapshot()
	if t == nil {
		return models.DerivedFolderStatus{}
	}
	return m.aggregator.Aggregate(folderPath, t.Get)
}

// RemoteState returns the remote comparison derived by the last refresh.
func (m *Monitor) RemoteState() models.RemoteState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remoteState
}

// RenderableFlags applies the configured flag mask, the rendering eligibility
// filter consumed by display layers.
func (m *Monitor) RenderableFlags(flags models.StatusFlags) models.StatusFlags {
	return flags.Masked(m.cfg.MaskBits())
}
