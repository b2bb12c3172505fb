// Package overlay implements the status reconciliation engine: it turns the
// porcelain v2 status stream into a queryable per-path flag table, upgrades
// deleted/untracked pairs sharing a sidecar identity into rename or move
// events, aggregates folder status and optionally overlays remote-tracking
// flags.
package overlay

import (
	"path"
	"strings"

	"github.com/chmouel/gitoverlay/internal/models"
)

// Parser turns NUL-delimited porcelain v2 records into typed entries scoped
// to the tracked root.
type Parser struct {
	root   string // normalized tracked root, e.g. "assets"
	suffix string // normalized sidecar suffix, e.g. ".meta"
}

// NewParser builds a Parser for the given tracked root and sidecar suffix.
func NewParser(trackedRoot, sidecarSuffix string) *Parser {
	return &Parser{
		root:   NormalizePath(trackedRoot),
		suffix: strings.ToLower(strings.TrimSpace(sidecarSuffix)),
	}
}

// NormalizePath converts a path to its table key form: forward slashes,
// case-folded, no leading "./" or trailing slash.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")
	return strings.ToLower(p)
}

// Accepts reports whether a path belongs in the table: it must lie under the
// tracked root and must not be a sidecar metadata file itself.
func (p *Parser) Accepts(rawPath string) bool {
	norm := NormalizePath(rawPath)
	if norm == "" || p.root == "" {
		return false
	}
	if !strings.HasPrefix(norm, p.root+"/") {
		return false
	}
	if p.suffix != "" && strings.HasSuffix(norm, p.suffix) {
		return false
	}
	return true
}

// ParseStream splits a whole porcelain v2 -z report and parses every record.
func (p *Parser) ParseStream(stream string) []models.Entry {
	fields := strings.Split(stream, "\x00")
	var entries []models.Entry
	for i := 0; i < len(fields); {
		entry, next, ok := p.ParseRecord(fields, i)
		i = next
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// ParseRecord parses the record at fields[i]. It returns the next cursor
// position (rename records consume the following field, which carries the old
// path) and ok=false when the record is malformed or out of scope. Skipped
// records are expected: the stream routinely names paths outside the tracked
// root.
func (p *Parser) ParseRecord(fields []string, i int) (models.Entry, int, bool) {
	rec := fields[i]
	next := i + 1
	if len(rec) < 3 {
		return models.Entry{}, next, false
	}

	switch rec[:2] {
	case "1 ":
		return p.parseOrdinary(rec, next)
	case "2 ":
		return p.parseRename(rec, fields, i)
	case "u ":
		return p.parseUnmerged(rec, next)
	case "? ":
		return p.entryFor(rec[2:], models.FlagUntracked, next)
	case "! ":
		return p.entryFor(rec[2:], models.FlagIgnored, next)
	}
	return models.Entry{}, next, false
}

// parseOrdinary handles "1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>".
// Trailing tokens are rejoined since the path may contain spaces.
func (p *Parser) parseOrdinary(rec string, next int) (models.Entry, int, bool) {
	tokens := strings.Split(rec, " ")
	if len(tokens) < 9 {
		return models.Entry{}, next, false
	}
	flags := flagsForXY(tokens[1])
	if flags == 0 {
		return models.Entry{}, next, false
	}
	rawPath := strings.Join(tokens[8:], " ")
	return p.entryFor(rawPath, flags, next)
}

// parseRename handles "2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <Xscore> <new>".
// The old path either follows a tab inside the path value or occupies the
// next NUL-delimited field, in which case that field is consumed too.
func (p *Parser) parseRename(rec string, fields []string, i int) (models.Entry, int, bool) {
	next := i + 1
	tokens := strings.Split(rec, " ")
	if len(tokens) < 10 {
		return models.Entry{}, next, false
	}

	pathValue := strings.Join(tokens[9:], " ")
	newPath, oldPath, tabbed := strings.Cut(pathValue, "\t")
	if !tabbed {
		if i+1 >= len(fields) {
			return models.Entry{}, next, false
		}
		oldPath = fields[i+1]
		next = i + 2
	}
	if newPath == "" || oldPath == "" {
		return models.Entry{}, next, false
	}

	flags := renameFlag(newPath, oldPath)
	if xy := tokens[1]; len(xy) > 0 && (xy[0] == 'A' || xy[0] == 'R') {
		flags |= models.FlagStaged
	}
	return p.entryFor(newPath, flags, next)
}

// parseUnmerged handles "u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>".
func (p *Parser) parseUnmerged(rec string, next int) (models.Entry, int, bool) {
	tokens := strings.Split(rec, " ")
	if len(tokens) < 11 {
		return models.Entry{}, next, false
	}
	rawPath := strings.Join(tokens[10:], " ")
	return p.entryFor(rawPath, models.FlagConflicted, next)
}

func (p *Parser) entryFor(rawPath string, flags models.StatusFlags, next int) (models.Entry, int, bool) {
	if !p.Accepts(rawPath) {
		return models.Entry{}, next, false
	}
	return models.Entry{
		Path:    NormalizePath(rawPath),
		RawPath: strings.ReplaceAll(rawPath, "\\", "/"),
		Flags:   flags,
	}, next, true
}

// flagsForXY maps the two-character index/worktree state field to flags. Both
// halves may contribute; "MM" collapses to Staged|Modified since flags are a
// set.
func flagsForXY(xy string) models.StatusFlags {
	if len(xy) < 2 {
		return 0
	}
	var flags models.StatusFlags
	switch xy[0] {
	case 'A':
		flags |= models.FlagStaged
	case 'M':
		flags |= models.FlagStaged | models.FlagModified
	case 'D':
		flags |= models.FlagStaged | models.FlagDeleted
	case 'R':
		flags |= models.FlagStaged | models.FlagRenamed
	case 'C':
		flags |= models.FlagStaged | models.FlagCopied
	case 'U':
		flags |= models.FlagConflicted
	}
	switch xy[1] {
	case 'M':
		flags |= models.FlagModified
	case 'D':
		flags |= models.FlagDeleted
	case 'U':
		flags |= models.FlagConflicted
	}
	return flags
}

// renameFlag distinguishes a rename (same parent directory, compared
// case-insensitively) from a move across directories.
func renameFlag(newPath, oldPath string) models.StatusFlags {
	if SameParent(newPath, oldPath) {
		return models.FlagRenamed
	}
	return models.FlagMoved
}

// SameParent reports whether two paths share a parent directory, ignoring
// case and separator style.
func SameParent(a, b string) bool {
	return path.Dir(NormalizePath(a)) == path.Dir(NormalizePath(b))
}
