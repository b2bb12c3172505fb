package overlay

import (
	"sort"

	"github.com/chmouel/gitoverlay/internal/models"
)

// Reconciler pairs deleted paths with newly appeared untracked paths sharing
// the same identity token and collapses each pair into a single rename or
// move entry. Git's own rename heuristic is similarity-based and frequently
// misses binary or heavily edited assets; sidecar identity catches those.
type Reconciler struct {
	logf func(string, ...any)
}

// NewReconciler returns a Reconciler logging through logf.
func NewReconciler(logf func(string, ...any)) *Reconciler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Reconciler{logf: logf}
}

// Reconcile consumes the per-cycle pending sets (normalized path -> token)
// and rewrites matched pairs in the table: both stale entries are removed and
// a single entry is inserted at the new path, flagged Renamed when the parent
// directories match (case-insensitively) and Moved otherwise. Each deletion
// pairs with at most one addition. Candidates are visited in sorted path
// order so pairing among equal tokens is stable run to run. The number of
// pairs collapsed is returned.
func (rc *Reconciler) Reconcile(table *Table, additions, deletions map[string]string) int {
	if len(additions) == 0 || len(deletions) == 0 {
		return 0
	}

	addPaths := sortedKeys(additions)
	delPaths := sortedKeys(deletions)

	matched := 0
	for _, addPath := range addPaths {
		token := additions[addPath]
		if token == "" {
			continue
		}
		for _, delPath := range delPaths {
			if deletions[delPath] != token {
				continue
			}
			table.Remove(delPath)
			table.Remove(addPath)

			flag := models.FlagMoved
			if SameParent(addPath, delPath) {
				flag = models.FlagRenamed
			}
			table.Upsert(addPath, flag)

			rc.logf("reconcile: %s -> %s (%s)", delPath, addPath, flag)
			delete(deletions, delPath)
			delete(additions, addPath)
			matched++
			break
		}
	}
	return matched
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
