package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, repoDir, rel string) {
	t.Helper()
	full := filepath.Join(repoDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))
}

func lookupIn(entries map[string]models.StatusFlags) func(string) (models.StatusFlags, bool) {
	return func(p string) (models.StatusFlags, bool) {
		flags, ok := entries[p]
		return flags, ok
	}
}

func TestAggregateAllNew(t *testing.T) {
	repoDir := t.TempDir()
	touch(t, repoDir, "Assets/NewStuff/a.png")
	touch(t, repoDir, "Assets/NewStuff/b.png")
	touch(t, repoDir, "Assets/NewStuff/a.png.meta")

	agg := NewAggregator(repoDir, ".meta")
	status := agg.Aggregate("Assets/NewStuff", lookupIn(map[string]models.StatusFlags{
		"assets/newstuff/a.png": models.FlagUntracked,
		"assets/newstuff/b.png": models.FlagUntracked,
	}))

	assert.True(t, status.IsAllNew)
	assert.False(t, status.HasModifiedChild)
}

func TestAggregateModifiedChildFlipsAllNew(t *testing.T) {
	repoDir := t.TempDir()
	touch(t, repoDir, "Assets/NewStuff/a.png")
	touch(t, repoDir, "Assets/NewStuff/b.png")

	agg := NewAggregator(repoDir, ".meta")
	status := agg.Aggregate("Assets/NewStuff", lookupIn(map[string]models.StatusFlags{
		"assets/newstuff/a.png": models.FlagUntracked,
		"assets/newstuff/b.png": models.FlagModified,
	}))

	assert.False(t, status.IsAllNew)
	assert.True(t, status.HasModifiedChild)
}

func TestAggregateChildAbsentFromTableDisqualifiesAllNew(t *testing.T) {
	repoDir := t.TempDir()
	touch(t, repoDir, "Assets/Mixed/tracked.png")
	touch(t, repoDir, "Assets/Mixed/new.png")

	agg := NewAggregator(repoDir, ".meta")
	status := agg.Aggregate("Assets/Mixed", lookupIn(map[string]models.StatusFlags{
		"assets/mixed/new.png": models.FlagUntracked,
	}))

	assert.False(t, status.IsAllNew, "a clean child not in the table is not new")
	assert.False(t, status.HasModifiedChild)
}

func TestAggregateEmptyOrMissingFolder(t *testing.T) {
	repoDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "Assets", "Empty"), 0o750))

	agg := NewAggregator(repoDir, ".meta")
	assert.Equal(t, models.DerivedFolderStatus{}, agg.Aggregate("Assets/Empty", lookupIn(nil)))
	assert.Equal(t, models.DerivedFolderStatus{}, agg.Aggregate("Assets/Nope", lookupIn(nil)))
}

func TestAggregateIsNonRecursive(t *testing.T) {
	repoDir := t.TempDir()
	touch(t, repoDir, "Assets/Top/deep/nested.png")

	agg := NewAggregator(repoDir, ".meta")
	status := agg.Aggregate("Assets/Top", lookupIn(map[string]models.StatusFlags{
		"assets/top/deep/nested.png": models.FlagModified,
	}))

	// Only the immediate child "deep" is inspected; it has no table entry.
	assert.False(t, status.HasModifiedChild)
	assert.False(t, status.IsAllNew)
}
