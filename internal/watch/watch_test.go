package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	commonDir string
}

func (f *fakeResolver) RunGit(_ context.Context, args []string, _ string, _ []int, _, _ bool) string {
	if len(args) >= 2 && args[1] == "rev-parse" {
		return f.commonDir
	}
	return ""
}

func newStartedService(t *testing.T) (*Service, string) {
	t.Helper()
	repoDir := t.TempDir()
	commonDir := filepath.Join(repoDir, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(commonDir, "refs", "heads"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "Assets"), 0o755))

	w := NewService(&fakeResolver{commonDir: commonDir}, repoDir, "Assets", nil)
	started, err := w.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	t.Cleanup(w.Stop)
	return w, repoDir
}

func waitForEvent(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
}

func TestSignalOnTrackedFileCreate(t *testing.T) {
	w, repoDir := newStartedService(t)
	ch := w.NextEvent()
	require.NotNil(t, ch)

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "Assets", "a.png"), []byte("x"), 0o644))
	waitForEvent(t, ch)
}

func TestSignalOnRefChange(t *testing.T) {
	w, repoDir := newStartedService(t)
	ch := w.NextEvent()
	require.NotNil(t, ch)

	ref := filepath.Join(repoDir, ".git", "refs", "heads", "main")
	require.NoError(t, os.WriteFile(ref, []byte("cafe\n"), 0o644))
	waitForEvent(t, ch)
}

func TestStartWithoutCommonDir(t *testing.T) {
	w := NewService(&fakeResolver{commonDir: ""}, t.TempDir(), "Assets", nil)
	started, err := w.Start(context.Background())
	assert.NoError(t, err)
	assert.False(t, started)
	assert.False(t, w.Started)
}

func TestStartTwice(t *testing.T) {
	w, _ := newStartedService(t)
	started, err := w.Start(context.Background())
	assert.NoError(t, err)
	assert.False(t, started)
}

func TestNextEventWaitGate(t *testing.T) {
	w, _ := newStartedService(t)

	ch := w.NextEvent()
	require.NotNil(t, ch)
	assert.Nil(t, w.NextEvent(), "only one listener at a time")

	w.ResetWaiting()
	assert.NotNil(t, w.NextEvent())
}

func TestShouldRefreshDebounce(t *testing.T) {
	w := NewService(nil, "", "Assets", nil)
	now := time.Now()

	assert.True(t, w.ShouldRefresh(now))
	assert.False(t, w.ShouldRefresh(now.Add(100*time.Millisecond)))
	assert.True(t, w.ShouldRefresh(now.Add(Debounce)))
}

func TestIsUnderRoot(t *testing.T) {
	w := &Service{Roots: []string{"/repo/Assets", "/repo/.git/refs"}}

	assert.True(t, w.IsUnderRoot("/repo/Assets"))
	assert.True(t, w.IsUnderRoot(filepath.Join("/repo/Assets", "sub", "a.png")))
	assert.True(t, w.IsUnderRoot(filepath.Join("/repo/.git/refs", "heads", "main")))
	assert.False(t, w.IsUnderRoot("/repo/AssetsBackup/a.png"))
	assert.False(t, w.IsUnderRoot("/repo/Library/a.png"))
	assert.False(t, w.IsUnderRoot(""))
}

func TestSkipEvent(t *testing.T) {
	assert.True(t, skipEvent("/repo/.git/index.lock"))
	assert.True(t, skipEvent("/repo/Assets/a.png~"))
	assert.True(t, skipEvent("/repo/Assets/.#a.png"))
	assert.False(t, skipEvent("/repo/Assets/a.png"))
	assert.False(t, skipEvent("/repo/Assets/a.png.meta"))
}

func TestSignalAfterStop(t *testing.T) {
	w, _ := newStartedService(t)
	w.Stop()
	w.Signal() // must not block or panic
}
