package overlay

import (
	"context"
	"strings"
	"sync"

	"github.com/chmouel/gitoverlay/internal/git"
)

// scriptRunner maps joined command lines to canned results. Commands without
// a script entry fail with exit 128, matching an unknown git invocation.
type scriptRunner struct {
	mu      sync.Mutex
	results map[string]git.Result
	calls   []string
}

func newScriptRunner() *scriptRunner {
	return &scriptRunner{results: make(map[string]git.Result)}
}

func (r *scriptRunner) stub(args, stdout string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[args] = git.Result{Stdout: stdout}
}

func (r *scriptRunner) fail(args string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[args] = git.Result{ExitCode: code}
}

func (r *scriptRunner) Run(_ context.Context, args []string, _ string) (git.Result, error) {
	key := strings.Join(args, " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
	if res, ok := r.results[key]; ok {
		return res, nil
	}
	return git.Result{ExitCode: 128, Stderr: "unscripted: " + key}, nil
}

func (r *scriptRunner) callCount(args string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == args {
			n++
		}
	}
	return n
}

// guidA and guidB are valid 32-hex sidecar identity tokens.
const (
	guidA = "655ca3930e2fb8d43b4bcf836d2bf0d3"
	guidB = "0f1e2d3c4b5a69788796a5b4c3d2e1f0"
)

func metaContent(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nTextureImporter:\n  flipGreenChannel: 0\n"
}
