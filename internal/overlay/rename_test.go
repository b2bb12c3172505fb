package overlay

import (
	"testing"

	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileDetectsMoveAcrossDirectories(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a.png", models.FlagStaged|models.FlagDeleted)
	table.Upsert("assets/sub/b.png", models.FlagUntracked)

	rc := NewReconciler(nil)
	n := rc.Reconcile(table,
		map[string]string{"assets/sub/b.png": guidA},
		map[string]string{"assets/a.png": guidA})

	assert.Equal(t, 1, n)
	_, ok := table.Get("assets/a.png")
	assert.False(t, ok, "stale deleted entry must be removed")

	flags, ok := table.Get("assets/sub/b.png")
	require.True(t, ok)
	assert.Equal(t, models.FlagMoved, flags, "parents differ, so the pair is a move")
	assert.Equal(t, 1, table.Len())
}

func TestReconcileDetectsRenameWithinDirectory(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/old.png", models.FlagDeleted)
	table.Upsert("assets/new.png", models.FlagUntracked)

	rc := NewReconciler(nil)
	n := rc.Reconcile(table,
		map[string]string{"assets/new.png": guidA},
		map[string]string{"assets/old.png": guidA})

	assert.Equal(t, 1, n)
	flags, ok := table.Get("assets/new.png")
	require.True(t, ok)
	assert.Equal(t, models.FlagRenamed, flags)
}

func TestReconcileNoMatchLeavesEntriesAlone(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a.png", models.FlagDeleted)
	table.Upsert("assets/b.png", models.FlagUntracked)

	rc := NewReconciler(nil)
	n := rc.Reconcile(table,
		map[string]string{"assets/b.png": guidA},
		map[string]string{"assets/a.png": guidB})

	assert.Equal(t, 0, n)
	flags, _ := table.Get("assets/a.png")
	assert.Equal(t, models.FlagDeleted, flags)
	flags, _ = table.Get("assets/b.png")
	assert.Equal(t, models.FlagUntracked, flags)
}

func TestReconcileEachDeletionPairsAtMostOnce(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/gone.png", models.FlagDeleted)
	table.Upsert("assets/one.png", models.FlagUntracked)
	table.Upsert("assets/two.png", models.FlagUntracked)

	rc := NewReconciler(nil)
	n := rc.Reconcile(table,
		map[string]string{"assets/one.png": guidA, "assets/two.png": guidA},
		map[string]string{"assets/gone.png": guidA})

	assert.Equal(t, 1, n)
	// Sorted scan order: "one" pairs first, "two" stays untracked.
	flags, ok := table.Get("assets/one.png")
	require.True(t, ok)
	assert.Equal(t, models.FlagRenamed, flags)
	flags, ok = table.Get("assets/two.png")
	require.True(t, ok)
	assert.Equal(t, models.FlagUntracked, flags)
}

func TestReconcileDeterministicAmongEqualTokens(t *testing.T) {
	build := func() *Table {
		table := NewTable()
		table.Upsert("assets/d1.png", models.FlagDeleted)
		table.Upsert("assets/d2.png", models.FlagDeleted)
		table.Upsert("assets/u1.png", models.FlagUntracked)
		return table
	}

	for range 20 {
		table := build()
		rc := NewReconciler(nil)
		rc.Reconcile(table,
			map[string]string{"assets/u1.png": guidA},
			map[string]string{"assets/d1.png": guidA, "assets/d2.png": guidA})

		// d1 sorts first, so it is always the consumed deletion.
		_, ok := table.Get("assets/d1.png")
		assert.False(t, ok)
		flags, _ := table.Get("assets/d2.png")
		assert.Equal(t, models.FlagDeleted, flags)
	}
}

func TestReconcileIgnoresEmptyTokens(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a.png", models.FlagDeleted)
	table.Upsert("assets/b.png", models.FlagUntracked)

	rc := NewReconciler(nil)
	n := rc.Reconcile(table,
		map[string]string{"assets/b.png": ""},
		map[string]string{"assets/a.png": ""})
	assert.Equal(t, 0, n)
}
