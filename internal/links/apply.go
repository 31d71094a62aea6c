package links

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/iwt/internal/log"
)

// Outcome is what happened to a single link.
type Outcome string

const (
	SkippedMissingSource  Outcome = "skipped (missing source)"
	SkippedAlreadyCorrect Outcome = "skipped (already linked)"
	Created               Outcome = "created"
	Replaced              Outcome = "replaced"
)

// Result reports the outcome for one spec. Source and Dest are the resolved
// absolute paths.
type Result struct {
	Spec    Spec
	Source  string
	Dest    string
	Outcome Outcome
}

// Options control Apply.
type Options struct {
	// DryRun reports what would happen without touching the filesystem.
	DryRun bool
	// Force allows replacing existing files and symlinks. Directories are
	// never removed.
	Force bool
	// BaseDir anchors relative sources. Empty means the working directory.
	BaseDir string
}

type planned struct {
	spec Spec
	src  string
	dest string
}

// Apply materializes specs under worktreeRoot.
//
// Every destination is validated before the first link is made, so a
// document with an unsafe entry changes nothing. Specs whose source does not
// exist are skipped with a warning. Links are then applied in order and the
// first conflict stops processing; the results gathered so far are returned
// along with the error. Each destination is checked again right before it is
// touched, so an earlier link cannot redirect a later one outside the root.
func Apply(ctx context.Context, worktreeRoot string, specs []Spec, opts Options) ([]Result, error) {
	l := log.FromContext(ctx)

	root, err := filepath.Abs(worktreeRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve worktree root: %w", err)
	}
	root = resolveExisting(root)

	results := make([]Result, len(specs))
	var plan []int
	var targets []planned

	for i, spec := range specs {
		src, ok := resolveSource(spec.Source, opts.BaseDir)
		if !ok {
			l.Warn("link source does not exist, skipping: %s", src)
			results[i] = Result{Spec: spec, Source: src, Outcome: SkippedMissingSource}
			continue
		}
		dest, err := resolveDest(root, spec.Dest)
		if err != nil {
			return nil, err
		}
		plan = append(plan, i)
		targets = append(targets, planned{spec: spec, src: src, dest: dest})
	}

	for n, t := range targets {
		if err := ctx.Err(); err != nil {
			return collect(results, plan[:n], specs), err
		}
		outcome, err := materialize(l, root, t, opts)
		if err != nil {
			return collect(results, plan[:n], specs), err
		}
		results[plan[n]] = Result{Spec: t.spec, Source: t.src, Dest: t.dest, Outcome: outcome}
	}

	return results, nil
}

// collect returns the results decided before a failure: every skipped
// missing source plus the applied links in done.
func collect(results []Result, done []int, specs []Spec) []Result {
	applied := make(map[int]bool, len(done))
	for _, i := range done {
		applied[i] = true
	}
	var out []Result
	for i := range specs {
		if applied[i] || results[i].Outcome == SkippedMissingSource {
			out = append(out, results[i])
		}
	}
	return out
}

// materialize creates one link. The destination is resolved again first,
// since links made earlier in the same run may have changed what its parent
// path points at.
func materialize(l *log.Logger, root string, t planned, opts Options) (Outcome, error) {
	outcome := Created

	dest, err := resolveDest(root, t.spec.Dest)
	if err != nil {
		return "", err
	}
	t.dest = dest

	info, err := os.Lstat(t.dest)
	switch {
	case err == nil:
		if isLinkTo(t.dest, info, t.src) {
			l.Debug("link already correct", "dest", t.dest, "src", t.src)
			return SkippedAlreadyCorrect, nil
		}
		if !opts.Force {
			return "", &DestinationConflictError{Dest: t.dest}
		}
		if info.IsDir() {
			return "", &ForceDeleteRefusedError{Dest: t.dest}
		}
		outcome = Replaced
		if opts.DryRun {
			l.DryRun("replace %s -> %s", t.dest, t.src)
		} else if err := os.Remove(t.dest); err != nil {
			return "", fmt.Errorf("remove %s: %w", t.dest, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("inspect %s: %w", t.dest, err)
	}

	if opts.DryRun {
		l.DryRun("ln -s %s %s", t.src, t.dest)
		return outcome, nil
	}

	if err := os.MkdirAll(filepath.Dir(t.dest), 0o755); err != nil {
		return "", fmt.Errorf("create parent of %s: %w", t.dest, err)
	}
	if dest, err := resolveDest(root, t.spec.Dest); err != nil {
		return "", err
	} else if dest != t.dest {
		return "", &UnsafeDestinationError{Dest: t.spec.Dest, Reason: "changed while linking"}
	}
	if err := os.Symlink(t.src, t.dest); err != nil {
		return "", fmt.Errorf("link %s: %w", t.dest, err)
	}
	l.Debug("linked", "dest", t.dest, "src", t.src)
	return outcome, nil
}

// isLinkTo reports whether dest is a symlink whose target, absolute or
// relative to dest's directory, resolves to src.
func isLinkTo(dest string, info fs.FileInfo, src string) bool {
	if info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := os.Readlink(dest)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(dest), target)
	}
	return resolveExisting(target) == src
}

// resolveSource expands ~ and environment variables, makes the path absolute
// and resolves symlinks. ok is false when the source does not exist.
func resolveSource(raw, baseDir string) (path string, ok bool) {
	path = expandHome(expandVars(raw))
	if !filepath.IsAbs(path) {
		if baseDir != "" {
			path = filepath.Join(baseDir, path)
		} else if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	path = resolveExisting(filepath.Clean(path))
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// resolveDest checks that rel stays strictly inside root and returns the
// absolute destination. Symlinks along the existing parent path are
// resolved; the final component is kept so an existing link is inspected
// rather than followed.
func resolveDest(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", &UnsafeDestinationError{Dest: rel, Reason: "must be a relative path inside the worktree"}
	}
	for _, part := range strings.FieldsFunc(rel, isSeparator) {
		if part == ".." {
			return "", &UnsafeDestinationError{Dest: rel, Reason: `must not contain ".."`}
		}
	}

	joined := filepath.Join(root, rel)
	if joined == root {
		return "", &UnsafeDestinationError{Dest: rel, Reason: "must not be the worktree root itself"}
	}
	dest := filepath.Join(resolveExisting(filepath.Dir(joined)), filepath.Base(joined))

	if !within(root, dest) {
		return "", &UnsafeDestinationError{Dest: rel, Reason: "resolves outside the worktree"}
	}
	return dest, nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}

// within reports whether path is strictly inside root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting resolves symlinks in the longest existing prefix of path
// and appends the remainder unchanged.
func resolveExisting(path string) string {
	var rest []string
	cur := path
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// expandVars expands $VAR and ${VAR}. Unset variables are left as written.
func expandVars(s string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
