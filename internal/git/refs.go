package git

import (
	"context"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Registrations maps a short branch name to its registered worktree path.
type Registrations map[string]string

// BranchAt returns the branch whose registered worktree is path. Paths are
// compared both cleaned and with symlinks resolved.
func (r Registrations) BranchAt(path string) (string, bool) {
	want := canonical(path)
	for branch, p := range r {
		if canonical(p) == want {
			return branch, true
		}
	}
	return "", false
}

func canonical(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// ParseWorktreeList parses `git worktree list --porcelain` output.
// Blocks without a worktree path or without a refs/heads/ branch (detached,
// bare) are omitted.
func ParseWorktreeList(porcelain string) Registrations {
	regs := make(Registrations)
	var path, branch string
	flush := func() {
		if path != "" && branch != "" {
			regs[branch] = path
		}
		path, branch = "", ""
	}

	for _, line := range strings.Split(porcelain, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			path = strings.TrimSpace(strings.TrimPrefix(line, "worktree "))
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimSpace(strings.TrimPrefix(line, "branch "))
			if short, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
				branch = short
			}
		case line == "":
			flush()
		}
	}
	flush()

	return regs
}

// ListWorktrees returns the worktrees registered in repoRoot. The listing is
// queried on every call.
func (c *Client) ListWorktrees(ctx context.Context, repoRoot string) (Registrations, error) {
	out, err := c.outputGit(ctx, repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, &RepositoryQueryError{Repo: repoRoot, Op: "list worktrees", Err: err}
	}
	return ParseWorktreeList(out), nil
}

// RefExists reports whether fullRef (e.g. refs/heads/main) exists.
// Any failure is treated as absence.
func (c *Client) RefExists(ctx context.Context, repoRoot, fullRef string) bool {
	return c.runGit(ctx, repoRoot, "show-ref", "--verify", "--quiet", fullRef) == nil
}

// DefaultBaseBranch returns the remote's default branch name (e.g. "main").
// It never fails: origin/HEAD wins, then the first of main/master that
// exists remotely or locally, then "main".
func (c *Client) DefaultBaseBranch(ctx context.Context, repoRoot string) string {
	out, err := c.outputGit(ctx, repoRoot, "symbolic-ref", "-q", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		if name, ok := strings.CutPrefix(out, "origin/"); ok && name != "" {
			return name
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if c.RefExists(ctx, repoRoot, "refs/remotes/origin/"+candidate) ||
			c.RefExists(ctx, repoRoot, "refs/heads/"+candidate) {
			return candidate
		}
	}

	return "main"
}

// RepoRoot returns the top-level directory of the working tree containing dir.
func (c *Client) RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := c.outputGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", &RepositoryQueryError{Repo: dir, Op: "find repository root", Err: err}
	}
	return out, nil
}

// CommonDir returns the absolute git directory shared by all worktrees of
// the repository.
func (c *Client) CommonDir(ctx context.Context, repoRoot string) (string, error) {
	out, err := c.outputGit(ctx, repoRoot, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", &RepositoryQueryError{Repo: repoRoot, Op: "find git common dir", Err: err}
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(repoRoot, out)
	}
	return filepath.Clean(out), nil
}

// OriginURL returns the first URL of the origin remote. The repository config
// is read with go-git; the git CLI is the fallback for layouts go-git cannot
// open.
func (c *Client) OriginURL(ctx context.Context, repoRoot string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(repoRoot, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err == nil {
		if remote, err := repo.Remote("origin"); err == nil {
			if urls := remote.Config().URLs; len(urls) > 0 {
				return urls[0], nil
			}
		}
	}

	out, err := c.outputGit(ctx, repoRoot, "remote", "get-url", "origin")
	if err != nil {
		return "", &RepositoryQueryError{Repo: repoRoot, Op: "read origin URL", Err: err}
	}
	return out, nil
}
