package overlay

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/chmouel/gitoverlay/internal/git"
	"github.com/google/uuid"
)

// Resolver extracts the stable per-file identity token from a sidecar
// metadata file, either from the live working tree or from the object store
// for files that no longer exist on disk.
type Resolver struct {
	git     *git.Service
	repoDir string
	suffix  string
	logf    func(string, ...any)
}

// NewResolver builds a Resolver rooted at repoDir using the given sidecar
// suffix.
func NewResolver(gitSvc *git.Service, repoDir, sidecarSuffix string, logf func(string, ...any)) *Resolver {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Resolver{git: gitSvc, repoDir: repoDir, suffix: sidecarSuffix, logf: logf}
}

// Resolve returns the identity token for assetPath or "" when none can be
// determined. fromHistory reads the committed sidecar at HEAD instead of the
// working tree; a deleted file has no live sidecar, so its last-known
// identity must come from history. Failures never propagate: a file without
// an identity simply never matches as a rename.
func (r *Resolver) Resolve(ctx context.Context, assetPath string, fromHistory bool) string {
	sidecar := assetPath + r.suffix
	if fromHistory {
		content, ok := r.git.Output(ctx, []string{"git", "show", "HEAD:" + sidecar}, r.repoDir)
		if !ok {
			r.logf("identity: no committed sidecar for %s", assetPath)
			return ""
		}
		return scanGUID(content)
	}

	// #nosec G304 -- sidecar path derives from the status stream, scoped to the repo
	f, err := os.Open(filepath.Join(r.repoDir, filepath.FromSlash(sidecar)))
	if err != nil {
		// Expected for freshly added files whose sidecar was not written yet.
		return ""
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if token := guidFromLine(scanner.Text()); token != "" {
			return token
		}
	}
	return ""
}

// scanGUID line-scans sidecar content for the first "guid: <value>" line.
func scanGUID(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if token := guidFromLine(line); token != "" {
			return token
		}
	}
	return ""
}

func guidFromLine(line string) string {
	key, value, found := strings.Cut(line, ":")
	if !found || strings.TrimSpace(key) != "guid" {
		return ""
	}
	return normalizeToken(strings.TrimSpace(value))
}

// normalizeToken validates the opaque token. Sidecar GUIDs are 32 hex digits,
// which uuid.Parse accepts alongside the dashed forms; anything else is
// treated as no identity.
func normalizeToken(value string) string {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(parsed.String(), "-", "")
}
