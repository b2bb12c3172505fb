package overlay

import (
	"testing"

	"github.com/chmouel/gitoverlay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertMergesFlags(t *testing.T) {
	table := NewTable()
	table.Upsert("Assets/a.png", models.FlagStaged)
	table.Upsert("assets/A.png", models.FlagModified)

	require.Equal(t, 1, table.Len(), "same path after normalization")
	flags, ok := table.Get("ASSETS/a.PNG")
	require.True(t, ok)
	assert.Equal(t, models.FlagStaged|models.FlagModified, flags)
}

func TestUpsertOrderIndependent(t *testing.T) {
	a := NewTable()
	a.Upsert("assets/x", models.FlagUntracked)
	a.Upsert("assets/x", models.FlagPushAvailable)

	b := NewTable()
	b.Upsert("assets/x", models.FlagPushAvailable)
	b.Upsert("assets/x", models.FlagUntracked)

	assert.Equal(t, a.All(), b.All())
}

func TestUpsertIgnoresEmptyPath(t *testing.T) {
	table := NewTable()
	table.Upsert("", models.FlagModified)
	assert.Equal(t, 0, table.Len())
}

func TestRemoveAndGet(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a", models.FlagDeleted)
	table.Remove("Assets/a")

	_, ok := table.Get("assets/a")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}

func TestClear(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a", models.FlagModified)
	table.Upsert("assets/b", models.FlagUntracked)
	table.Clear()

	assert.Equal(t, 0, table.Len())
	table.Upsert("assets/c", models.FlagStaged)
	assert.Equal(t, 1, table.Len())
}

func TestAllReturnsIndependentCopy(t *testing.T) {
	table := NewTable()
	table.Upsert("assets/a", models.FlagModified)

	snapshot := table.All()
	table.Upsert("assets/b", models.FlagUntracked)

	assert.Len(t, snapshot, 1, "snapshot must not see later writes")
	assert.Len(t, table.All(), 2)
}
