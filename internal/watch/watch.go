// Package watch turns filesystem activity in the working tree and the git
// directory into refresh signals for the overlay monitor.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is the minimum gap between two watcher-driven refreshes.
const Debounce = 600 * time.Millisecond

// CommonDirResolver resolves git metadata paths for a repository.
type CommonDirResolver interface {
	RunGit(ctx context.Context, args []string, cwd string, okReturncodes []int, strip, silent bool) string
}

// Service watches the tracked asset tree plus the parts of the git directory
// that change when status changes (index, HEAD, refs). Events are coalesced
// into a 1-buffered channel; consumers pair NextEvent with ShouldRefresh to
// debounce bursts like editor save storms or a rebase touching many refs.
type Service struct {
	Started     bool
	Waiting     bool
	CommonDir   string
	Roots       []string
	Events      chan struct{}
	Done        chan struct{}
	Paths       map[string]struct{}
	Mu          sync.Mutex
	Watcher     *fsnotify.Watcher
	LastRefresh time.Time

	repoDir     string
	trackedRoot string
	git         CommonDirResolver
	logf        func(string, ...any)
}

// NewService creates a watch service for the working tree at repoDir.
// trackedRoot is the repo-relative directory whose files carry overlays.
func NewService(git CommonDirResolver, repoDir, trackedRoot string, logf func(string, ...any)) *Service {
	return &Service{
		repoDir:     repoDir,
		trackedRoot: trackedRoot,
		git:         git,
		logf:        logf,
	}
}

// Start initialises the watcher and starts the background goroutine. It
// reports whether watching actually began; a repo without a resolvable git
// directory degrades to polling-only operation.
func (w *Service) Start(ctx context.Context) (bool, error) {
	if w.Started {
		return false, nil
	}
	commonDir := w.resolveGitCommonDir(ctx)
	if commonDir == "" {
		w.debugf("watch: unable to resolve git common dir")
		return false, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}

	w.Started = true
	w.Watcher = watcher
	w.CommonDir = commonDir
	w.Events = make(chan struct{}, 1)
	w.Done = make(chan struct{})
	w.Paths = make(map[string]struct{})
	w.Roots = []string{
		filepath.Join(w.repoDir, filepath.FromSlash(w.trackedRoot)),
		filepath.Join(commonDir, "refs"),
	}
	w.addWatchDir(commonDir)
	for _, root := range w.Roots {
		w.addWatchTree(root)
	}

	go w.run()
	return true, nil
}

// Stop stops the watcher and closes channels.
func (w *Service) Stop() {
	if !w.Started {
		return
	}
	close(w.Done)
	w.Started = false
	if w.Watcher != nil {
		_ = w.Watcher.Close()
	}
}

// NextEvent returns the event channel if waiting is not already active.
func (w *Service) NextEvent() <-chan struct{} {
	if w.Events == nil || w.Waiting {
		return nil
	}
	w.Waiting = true
	return w.Events
}

// ResetWaiting clears the waiting flag after an event is processed.
func (w *Service) ResetWaiting() {
	w.Waiting = false
}

// ShouldRefresh checks debounce timing for watcher events.
func (w *Service) ShouldRefresh(now time.Time) bool {
	if !w.LastRefresh.IsZero() && now.Sub(w.LastRefresh) < Debounce {
		return false
	}
	w.LastRefresh = now
	return true
}

// MaybeWatchNewDir registers newly created directories under watch roots.
func (w *Service) MaybeWatchNewDir(path string) {
	if !w.IsUnderRoot(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addWatchDir(path)
}

// Signal notifies listeners of watcher activity.
func (w *Service) Signal() {
	select {
	case <-w.Done:
		return
	default:
	}
	select {
	case w.Events <- struct{}{}:
	default:
	}
}

// IsUnderRoot reports whether the path is under any watch root.
func (w *Service) IsUnderRoot(path string) bool {
	if path == "" {
		return false
	}
	for _, root := range w.Roots {
		if root == "" {
			continue
		}
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// skipEvent filters the transient files git and editors churn through while
// the status outcome is unchanged.
func skipEvent(name string) bool {
	base := filepath.Base(name)
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	// Editor atomic-save temporaries.
	return strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#")
}

func (w *Service) run() {
	for {
		select {
		case <-w.Done:
			return
		case event, ok := <-w.Watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if skipEvent(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.MaybeWatchNewDir(event.Name)
			}
			w.Signal()
		case err, ok := <-w.Watcher.Errors:
			if !ok {
				return
			}
			w.debugf("watcher error: %v", err)
		}
	}
}

func (w *Service) addWatchDir(path string) {
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.Mu.Lock()
	defer w.Mu.Unlock()

	if _, ok := w.Paths[path]; ok {
		return
	}
	if err := w.Watcher.Add(path); err != nil {
		w.debugf("watcher add failed for %s: %v", path, err)
		return
	}
	w.Paths[path] = struct{}{}
}

func (w *Service) addWatchTree(root string) {
	if root == "" {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		w.addWatchDir(path)
		return nil
	})
}

func (w *Service) resolveGitCommonDir(ctx context.Context) string {
	if w.git == nil {
		return ""
	}
	commonDir := strings.TrimSpace(w.git.RunGit(ctx, []string{"git", "rev-parse", "--git-common-dir"}, w.repoDir, []int{0}, true, false))
	if commonDir == "" {
		return ""
	}
	if filepath.IsAbs(commonDir) {
		return commonDir
	}
	return filepath.Join(w.repoDir, commonDir)
}

func (w *Service) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}
