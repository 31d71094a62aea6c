package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/git"
	"github.com/raphi011/iwt/internal/issue"
	"github.com/raphi011/iwt/internal/worktree"
)

// targetOptions are the flags shared by create and path.
type targetOptions struct {
	repo          string
	worktreesRoot string
	prefix        string
	branch        string
	title         string
	url           string
	fetch         bool
}

// target is a fully resolved worktree destination.
type target struct {
	RepoRoot string
	Config   config.Config
	Issue    *issue.Info // nil when the branch was given explicitly
	Branch   string
	Path     string
}

// resolveTarget turns an issue reference (or an explicit branch) into the
// branch name and worktree path for the repository selected by o.repo.
func resolveTarget(ctx context.Context, gc *git.Client, rawIssue string, o targetOptions) (*target, error) {
	if rawIssue == "" && o.branch == "" {
		return nil, fmt.Errorf("an issue reference (#123, ABC-123, URL) or --branch is required")
	}

	repoRoot, err := resolveRepoRoot(ctx, gc, o.repo)
	if err != nil {
		return nil, err
	}

	cfg, err := config.ResolverFromContext(ctx).ConfigForRepo(repoRoot)
	if err != nil {
		return nil, err
	}
	if o.prefix != "" {
		cfg.Prefix = o.prefix
	}
	if err := issue.ValidatePrefix(cfg.Prefix); err != nil {
		return nil, err
	}

	t := &target{RepoRoot: repoRoot, Config: cfg, Branch: o.branch}

	if t.Branch == "" {
		ref, err := issue.Parse(rawIssue)
		if err != nil {
			return nil, err
		}
		info := newIssueResolver(gc, cfg).Resolve(ctx, repoRoot, ref,
			issue.Overrides{Title: o.title, URL: o.url},
			o.fetch && cfg.FetchMetadata)
		t.Issue = &info
		t.Branch = issue.BranchName(info, cfg.Prefix)
	}

	if err := gc.ValidateBranchName(ctx, repoRoot, t.Branch); err != nil {
		return nil, err
	}

	root := cfg.WorktreesRootFor(repoRoot)
	if o.worktreesRoot != "" {
		if root, err = absPath(o.worktreesRoot); err != nil {
			return nil, fmt.Errorf("--worktrees-root: %w", err)
		}
	}
	t.Path = worktree.Path(root, repoRoot, t.Branch)

	return t, nil
}

// resolveRepoRoot returns the top-level directory of the repository at dir,
// or of the working directory when dir is empty.
func resolveRepoRoot(ctx context.Context, gc *git.Client, dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return gc.RepoRoot(ctx, wd)
	}

	abs, err := absPath(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("repository path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path is not a directory: %s", abs)
	}
	return gc.RepoRoot(ctx, abs)
}

// mainRepoRoot returns the main working tree of the repository containing
// dir. For a linked worktree that is the directory holding the shared .git.
func mainRepoRoot(ctx context.Context, gc *git.Client, dir string) (string, error) {
	top, err := gc.RepoRoot(ctx, dir)
	if err != nil {
		return "", err
	}
	common, err := gc.CommonDir(ctx, top)
	if err != nil {
		return "", err
	}
	if filepath.Base(common) == ".git" {
		return filepath.Dir(common), nil
	}
	return top, nil
}

func newIssueResolver(gc *git.Client, cfg config.Config) *issue.Resolver {
	return &issue.Resolver{
		GitHub: issue.NewGitHub(gc.Runner(), gc),
		Linear: issue.NewLinear(cfg.LinearAPIKeyEnv),
	}
}

// absPath expands ~ and makes p absolute.
func absPath(p string) (string, error) {
	expanded, err := config.ExpandPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
