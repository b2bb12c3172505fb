package overlay

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chmouel/gitoverlay/internal/models"
)

// Aggregator derives folder-level status from the immediate children of a
// directory. One directory level only; deeper nesting is intentionally not
// inspected.
type Aggregator struct {
	repoDir string
	suffix  string
}

// NewAggregator builds an Aggregator for the working tree at repoDir,
// skipping sidecar files with the given suffix.
func NewAggregator(repoDir, sidecarSuffix string) *Aggregator {
	return &Aggregator{repoDir: repoDir, suffix: strings.ToLower(sidecarSuffix)}
}

// Aggregate lists the immediate children of folderPath (repo-relative) and
// folds their table entries into the two folder-level booleans. Children
// without a table entry disqualify IsAllNew and are otherwise ignored.
func (a *Aggregator) Aggregate(folderPath string, lookup func(string) (models.StatusFlags, bool)) models.DerivedFolderStatus {
	var status models.DerivedFolderStatus

	dir := filepath.Join(a.repoDir, filepath.FromSlash(folderPath))
	children, err := os.ReadDir(dir)
	if err != nil {
		return status
	}

	allNew := true
	untrackedSeen := 0
	for _, child := range children {
		name := child.Name()
		if a.suffix != "" && strings.HasSuffix(strings.ToLower(name), a.suffix) {
			continue
		}
		childPath := NormalizePath(folderPath) + "/" + strings.ToLower(name)

		flags, ok := lookup(childPath)
		if !ok {
			allNew = false
			continue
		}
		if flags.Has(models.FlagUntracked) {
			untrackedSeen++
		} else {
			allNew = false
		}
		if flags.Has(models.FlagModified) {
			status.HasModifiedChild = true
		}
	}

	status.IsAllNew = allNew && untrackedSeen > 0
	return status
}
