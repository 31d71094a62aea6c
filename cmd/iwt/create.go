package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"

	shellcmd "github.com/raphi011/iwt/internal/cmd"
	"github.com/raphi011/iwt/internal/git"
	"github.com/raphi011/iwt/internal/links"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

type createOptions struct {
	issue         string
	repo          string
	base          string
	worktreesRoot string
	prefix        string
	branch        string
	title         string
	url           string
	noFetch       bool
	linksFile     string
	noLinks       bool
	linkForce     bool
	dryRun        bool
	copyPath      bool
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func runCreate(ctx context.Context, o createOptions) error {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)
	gc := git.New(nil)

	t, err := resolveTarget(ctx, gc, o.issue, targetOptions{
		repo:          o.repo,
		worktreesRoot: o.worktreesRoot,
		prefix:        o.prefix,
		branch:        o.branch,
		title:         o.title,
		url:           o.url,
		fetch:         !o.noFetch,
	})
	if err != nil {
		return err
	}

	base := o.base
	if base == "" {
		base = t.Config.Base
	}
	if base == "" {
		base = gc.DefaultBaseBranch(ctx, t.RepoRoot)
	}

	l.Info("repo   : %s", t.RepoRoot)
	l.Info("base   : %s", base)
	if t.Issue != nil {
		l.Info("issue  : %s %s", t.Issue.Source, t.Issue.Key)
		if t.Issue.Title != "" {
			l.Info("title  : %s", t.Issue.Title)
		}
		if t.Issue.URL != "" {
			l.Info("url    : %s", t.Issue.URL)
		}
	}
	l.Info("branch : %s", t.Branch)
	l.Info("path   : %s", t.Path)

	if !o.dryRun && t.Config.Lock {
		unlock, err := lockRepo(ctx, gc, t)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(); err != nil {
				l.Debug("release lock", "error", err)
			}
		}()
	}

	outcome, err := gc.Reconcile(ctx, git.Request{
		RepoRoot: t.RepoRoot,
		Branch:   t.Branch,
		Path:     t.Path,
		Base:     base,
		DryRun:   o.dryRun,
	})
	if err != nil {
		return err
	}

	switch outcome.Status {
	case git.StatusReused:
		l.OK("worktree already exists: %s", outcome.Path)
	case git.StatusCreated:
		l.OK("created worktree %s", outcome.Path)
	}

	if !o.noLinks {
		if err := applyLinksFile(ctx, t, o, outcome.Path); err != nil {
			return err
		}
	}

	if o.dryRun {
		return nil
	}

	if o.copyPath {
		if err := copyToClipboard(outcome.Path); err != nil {
			l.Warn("failed to copy to clipboard: %v", err)
		}
	}

	out.Println(outcome.Path)

	if stdoutIsTerminal() {
		l.Println()
		l.Println("Next steps:")
		l.Printf("  cd %s\n", shellcmd.Quote(outcome.Path))
		l.Printf("  git push -u origin %s\n", shellcmd.Quote(t.Branch))
		l.Println("  then open a pull request that references the issue")
	}
	return nil
}

// lockRepo takes the per-repository lock in the git common directory.
func lockRepo(ctx context.Context, gc *git.Client, t *target) (func() error, error) {
	commonDir, err := gc.CommonDir(ctx, t.RepoRoot)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("acquiring lock", "dir", commonDir, "timeout", t.Config.LockTimeout)
	return git.Lock(ctx, commonDir, t.Config.LockTimeout.Duration)
}

// applyLinksFile loads the links document for t and materializes it in the
// worktree at path. A missing default document is silently skipped.
func applyLinksFile(ctx context.Context, t *target, o createOptions, path string) error {
	l := log.FromContext(ctx)

	linksPath, explicit, err := linksFileFor(t, o.linksFile)
	if err != nil {
		return err
	}

	specs, err := links.Load(linksPath)
	if err != nil {
		return err
	}
	if specs == nil {
		if explicit {
			l.Warn("links file not found: %s", linksPath)
		}
		return nil
	}

	l.Info("links  : %s", linksPath)
	results, err := links.Apply(ctx, path, specs, links.Options{
		DryRun:  o.dryRun,
		Force:   o.linkForce,
		BaseDir: filepath.Dir(linksPath),
	})
	if err != nil {
		return err
	}

	linked := 0
	for _, r := range results {
		if r.Outcome == links.Created || r.Outcome == links.Replaced {
			linked++
		}
	}
	if !o.dryRun {
		l.OK("linked %d of %d files", linked, len(specs))
	}
	return nil
}

// linksFileFor returns the links document path: the flag when given,
// otherwise links_file from config resolved against the repository root.
func linksFileFor(t *target, flag string) (path string, explicit bool, err error) {
	if flag != "" {
		p, err := absPath(flag)
		if err != nil {
			return "", true, fmt.Errorf("--links-file: %w", err)
		}
		return p, true, nil
	}
	p, err := t.Config.LinksPathFor(t.RepoRoot)
	if err != nil {
		return "", false, err
	}
	return p, p != filepath.Join(t.RepoRoot, links.DefaultFile), nil
}
