package overlay

import "github.com/chmouel/gitoverlay/internal/models"

// Table is the per-cycle map from normalized path to status flags. It is not
// safe for concurrent use; the Monitor owns a Table exclusively while
// rebuilding and publishes it by pointer swap.
type Table struct {
	entries map[string]models.StatusFlags
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]models.StatusFlags)}
}

// Upsert merges flags into the entry for path, creating it when absent. This
// is the single write primitive: OR-merge keeps flags set by earlier records
// for the same path within one cycle.
func (t *Table) Upsert(p string, flags models.StatusFlags) {
	key := NormalizePath(p)
	if key == "" {
		return
	}
	t.entries[key] = t.entries[key] | flags
}

// Get returns the flags for path, ok=false when absent.
func (t *Table) Get(p string) (models.StatusFlags, bool) {
	flags, ok := t.entries[NormalizePath(p)]
	return flags, ok
}

// Remove deletes the entry for path if present.
func (t *Table) Remove(p string) {
	delete(t.entries, NormalizePath(p))
}

// Clear drops every entry. The refresh cycle prefers building a fresh table
// and swapping pointers, but reusing a table is also valid.
func (t *Table) Clear() {
	t.entries = make(map[string]models.StatusFlags)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// All returns a copy of the table contents, safe to hold across cycles.
func (t *Table) All() map[string]models.StatusFlags {
	out := make(map[string]models.StatusFlags, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
