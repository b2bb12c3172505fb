// Package git wraps git commands and helpers used by gitoverlay.
package git

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/chmouel/gitoverlay/internal/log"
)

// NotifyFn receives ongoing notifications.
type NotifyFn func(message string, severity string)

// NotifyOnceFn reports deduplicated notification messages.
type NotifyOnceFn func(key string, message string, severity string)

// Service orchestrates git commands for the status engine.
type Service struct {
	runner     Runner
	notify     NotifyFn
	notifyOnce NotifyOnceFn
}

// NewService constructs a Service around the given runner. Nil callbacks are
// replaced with no-ops.
func NewService(runner Runner, notify NotifyFn, notifyOnce NotifyOnceFn) *Service {
	if notify == nil {
		notify = func(string, string) {}
	}
	if notifyOnce == nil {
		notifyOnce = func(string, string, string) {}
	}
	return &Service{runner: runner, notify: notify, notifyOnce: notifyOnce}
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

// RunGit executes a git command and optionally trims its output. Exit codes
// listed in okReturncodes are treated as success; any other failure yields ""
// and, unless silent, a deduplicated notification.
func (s *Service) RunGit(ctx context.Context, args []string, cwd string, okReturncodes []int, strip, silent bool) string {
	command := strings.Join(args, " ")
	if command == "" {
		command = "<empty>"
	}
	s.debugf("run: %s (cwd=%s)", command, cwd)

	res, err := s.runner.Run(ctx, args, cwd)
	if err != nil {
		if !silent {
			key := fmt.Sprintf("cmd_missing:%s", command)
			s.notifyOnce(key, fmt.Sprintf("Command not launchable: %s: %v", command, err), "error")
		}
		s.debugf("error: %s: %v", command, err)
		return ""
	}

	if res.ExitCode != 0 && !slices.Contains(okReturncodes, res.ExitCode) {
		if silent {
			s.debugf("error: %s (exit %d, silenced)", command, res.ExitCode)
			return ""
		}
		suffix := fmt.Sprintf(" (exit %d)", res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			suffix = ": " + stderr
		}
		key := fmt.Sprintf("git_fail:%s:%s", cwd, command)
		s.notifyOnce(key, fmt.Sprintf("Command failed: %s%s", command, suffix), "error")
		s.debugf("error: %s%s", command, suffix)
		return ""
	}

	out := res.Stdout
	if strip {
		out = strings.TrimSpace(out)
	}
	s.debugf("ok: %s", command)
	return out
}

// Output runs a git command silently and reports ok=true only on exit 0.
// Unlike RunGit it distinguishes "command succeeded with empty output" from
// "command failed", which the refresh cycle needs for its fail-static policy.
func (s *Service) Output(ctx context.Context, args []string, cwd string) (string, bool) {
	command := strings.Join(args, " ")
	s.debugf("run: %s (cwd=%s)", command, cwd)

	res, err := s.runner.Run(ctx, args, cwd)
	if err != nil {
		s.debugf("error: %s: %v", command, err)
		return "", false
	}
	if res.ExitCode != 0 {
		s.debugf("error: %s (exit %d): %s", command, res.ExitCode, strings.TrimSpace(res.Stderr))
		return "", false
	}
	s.debugf("ok: %s", command)
	return res.Stdout, true
}

// CurrentBranch returns the branch checked out in cwd. It returns an error
// when HEAD is detached or cwd is not a repository.
func (s *Service) CurrentBranch(ctx context.Context, cwd string) (string, error) {
	out, ok := s.Output(ctx, []string{"git", "rev-parse", "--abbrev-ref", "HEAD"}, cwd)
	if !ok {
		return "", fmt.Errorf("not a git repository or git unavailable")
	}
	branch := strings.TrimSpace(out)
	if branch == "" || branch == "HEAD" {
		return "", fmt.Errorf("not currently on a branch (detached HEAD)")
	}
	return branch, nil
}

// HasRemote reports whether at least one remote is configured in cwd.
func (s *Service) HasRemote(ctx context.Context, cwd string) bool {
	out, ok := s.Output(ctx, []string{"git", "remote"}, cwd)
	return ok && strings.TrimSpace(out) != ""
}

// UpstreamRef resolves the remote-tracking ref of branch, e.g. "origin/main".
// ok=false means the branch was never pushed or has no upstream configured.
func (s *Service) UpstreamRef(ctx context.Context, cwd, branch string) (string, bool) {
	out, ok := s.Output(ctx, []string{
		"git", "rev-parse", "--verify", "--quiet", "--abbrev-ref", branch + "@{upstream}",
	}, cwd)
	ref := strings.TrimSpace(out)
	if !ok || ref == "" {
		return "", false
	}
	return ref, true
}

// Fetch runs a plain no-merge fetch against the default remote. A failed
// fetch is logged and reported but never escalated.
func (s *Service) Fetch(ctx context.Context, cwd string) bool {
	_, ok := s.Output(ctx, []string{"git", "fetch", "--no-tags", "--quiet"}, cwd)
	if !ok {
		s.notifyOnce("fetch_fail:"+cwd, "Background fetch failed", "warning")
	}
	return ok
}

// TopLevel returns the absolute path of the working tree root for cwd.
func (s *Service) TopLevel(ctx context.Context, cwd string) (string, bool) {
	out, ok := s.Output(ctx, []string{"git", "rev-parse", "--show-toplevel"}, cwd)
	if !ok {
		return "", false
	}
	top := strings.TrimSpace(out)
	return top, top != ""
}
