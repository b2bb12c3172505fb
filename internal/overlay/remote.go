package overlay

import (
	"context"
	"strings"

	"github.com/chmouel/gitoverlay/internal/git"
	"github.com/chmouel/gitoverlay/internal/models"
)

// Tracker overlays remote-tracking flags (push-available, origin-available,
// warning) on top of the status table. Every step short-circuits to a no-op
// on failure or a missing precondition: remote state is advisory and must
// never disturb the core flags.
type Tracker struct {
	git     *git.Service
	parser  *Parser
	repoDir string
	logf    func(string, ...any)
}

// NewTracker builds a Tracker sharing the parser's path validity rules.
func NewTracker(gitSvc *git.Service, parser *Parser, repoDir string, logf func(string, ...any)) *Tracker {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Tracker{git: gitSvc, parser: parser, repoDir: repoDir, logf: logf}
}

// Overlay runs the remote comparison state machine and merges the resulting
// flags into table. The derived RemoteState is returned for diagnostics.
func (t *Tracker) Overlay(ctx context.Context, table *Table, showPush, detectConflicts bool) models.RemoteState {
	var state models.RemoteState

	branch, err := t.git.CurrentBranch(ctx, t.repoDir)
	if err != nil {
		t.logf("remote: %v", err)
		return state
	}
	state.Branch = branch

	if !t.git.HasRemote(ctx, t.repoDir) {
		t.logf("remote: no remote configured")
		return state
	}
	state.HasRemote = true

	upstream, ok := t.git.UpstreamRef(ctx, t.repoDir, branch)
	if !ok {
		t.logf("remote: branch %s has no tracking ref", branch)
		return state
	}
	state.HasUpstream = true

	if showPush {
		state.PushPaths = t.flagPaths(ctx, table,
			[]string{"git", "log", upstream + "..HEAD", "--name-only", "--pretty=format:"},
			models.FlagPushAvailable, models.FlagNone)
	}

	if detectConflicts {
		incoming, ok := t.git.Output(ctx, []string{"git", "rev-list", "HEAD.." + upstream}, t.repoDir)
		if !ok || strings.TrimSpace(incoming) == "" {
			// Nothing available from origin; skip the diff entirely.
			return state
		}
		state.Incoming = true
		state.OriginPaths = t.flagPaths(ctx, table,
			[]string{"git", "diff", "--name-only", "HEAD", upstream},
			models.FlagOriginAvailable, models.FlagModified)
	}

	return state
}

// flagPaths runs a path-listing command and flags each in-scope line. When
// warnOn is non-zero, paths already carrying those flags additionally get
// Warning: both sides changed them, a likely merge conflict.
func (t *Tracker) flagPaths(ctx context.Context, table *Table, args []string, flag, warnOn models.StatusFlags) []string {
	out, ok := t.git.Output(ctx, args, t.repoDir)
	if !ok {
		return nil
	}

	var flagged []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !t.parser.Accepts(line) {
			continue
		}
		if warnOn != models.FlagNone {
			if existing, present := table.Get(line); present && existing.HasAny(warnOn) {
				table.Upsert(line, models.FlagWarning)
			}
		}
		table.Upsert(line, flag)
		flagged = append(flagged, NormalizePath(line))
	}
	return flagged
}
