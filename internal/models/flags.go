// Package models defines the data objects shared across gitoverlay packages.
package models

import "strings"

// StatusFlags is a bitset of per-path version-control states. Multiple flags
// may coexist on one path (e.g. Staged|Modified).
type StatusFlags uint16

const (
	// FlagUntracked marks a path git does not know about yet.
	FlagUntracked StatusFlags = 1 << iota
	// FlagModified marks a path with worktree changes.
	FlagModified
	// FlagStaged marks a path with index changes.
	FlagStaged
	// FlagDeleted marks a path removed from the worktree or index.
	FlagDeleted
	// FlagRenamed marks a path renamed within its parent directory.
	FlagRenamed
	// FlagCopied marks a path recorded as a copy in the index.
	FlagCopied
	// FlagConflicted marks an unmerged path.
	FlagConflicted
	// FlagIgnored marks a path matched by an ignore rule.
	FlagIgnored
	// FlagError marks a path whose status could not be determined.
	FlagError
	// FlagMoved marks a path renamed across parent directories.
	FlagMoved
	// FlagOriginAvailable marks a path changed on the remote tracking branch.
	FlagOriginAvailable
	// FlagPushAvailable marks a path touched by local commits not yet pushed.
	FlagPushAvailable
	// FlagWarning marks a path changed both locally and on the remote.
	FlagWarning
)

// FlagNone is the empty flag set.
const FlagNone StatusFlags = 0

// AllFlags is the union of every defined flag.
const AllFlags = FlagUntracked | FlagModified | FlagStaged | FlagDeleted |
	FlagRenamed | FlagCopied | FlagConflicted | FlagIgnored | FlagError |
	FlagMoved | FlagOriginAvailable | FlagPushAvailable | FlagWarning

var flagNames = []struct {
	flag StatusFlags
	name string
}{
	{FlagUntracked, "untracked"},
	{FlagModified, "modified"},
	{FlagStaged, "staged"},
	{FlagDeleted, "deleted"},
	{FlagRenamed, "renamed"},
	{FlagCopied, "copied"},
	{FlagConflicted, "conflicted"},
	{FlagIgnored, "ignored"},
	{FlagError, "error"},
	{FlagMoved, "moved"},
	{FlagOriginAvailable, "origin_available"},
	{FlagPushAvailable, "push_available"},
	{FlagWarning, "warning"},
}

// Has reports whether every flag in other is set.
func (f StatusFlags) Has(other StatusFlags) bool {
	return f&other == other
}

// HasAny reports whether at least one flag in other is set.
func (f StatusFlags) HasAny(other StatusFlags) bool {
	return f&other != 0
}

// With returns the union of f and other.
func (f StatusFlags) With(other StatusFlags) StatusFlags {
	return f | other
}

// Masked returns the flags of f that survive the given mask.
func (f StatusFlags) Masked(mask StatusFlags) StatusFlags {
	return f & mask
}

// String renders the set as "staged|modified" style text, "none" when empty.
func (f StatusFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlagName resolves a configuration flag name to its bit. Matching is
// case-insensitive and tolerates dashes in place of underscores.
func ParseFlagName(name string) (StatusFlags, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// Entry pairs a normalized repository-relative path with its status flags.
type Entry struct {
	// Path is the normalized table key: forward slashes, case-folded.
	Path string
	// RawPath is the path exactly as the status stream emitted it, kept for
	// filesystem and object-store lookups on case-sensitive systems.
	RawPath string
	Flags   StatusFlags
}

// DerivedFolderStatus is the folder-level signal derived from the immediate
// children of a directory.
type DerivedFolderStatus struct {
	// IsAllNew holds when every child has a table entry and all of them are
	// untracked, with at least one such child.
	IsAllNew bool
	// HasModifiedChild holds when any child carries the modified flag.
	HasModifiedChild bool
}

// RemoteState summarizes one remote-tracking comparison cycle. It is derived
// per refresh for diagnostics; only its flag overlay persists in the table.
type RemoteState struct {
	Branch      string
	HasRemote   bool
	HasUpstream bool
	// PushPaths are paths touched by commits not yet on the tracking branch.
	PushPaths []string
	// OriginPaths are paths differing between the tracking branch and HEAD.
	OriginPaths []string
	// Incoming holds when the tracking branch has commits HEAD lacks.
	Incoming bool
}
