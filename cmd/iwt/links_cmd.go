package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/git"
	"github.com/raphi011/iwt/internal/links"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

type linksOptions struct {
	repo      string
	linksFile string
	force     bool
	dryRun    bool
}

func newLinksCmd() *cobra.Command {
	var o linksOptions

	cmd := &cobra.Command{
		Use:     "links <worktree>",
		Short:   "Apply the links document to an existing worktree",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Symlink private files into an existing worktree.

The links document is a JSON (or YAML) array of entries with a source
("src" or "source") and a destination relative to the worktree ("dest" or
"target"). Sources may use ~ and $VARS; relative sources are resolved
against the document's directory.

Destinations that already hold something else are reported as conflicts
unless --force is given. Directories are never replaced.`,
		Example: `  iwt links ../worktrees/app/issue/gh-42-fix-login
  iwt links . --force
  iwt links . --links-file ~/secrets/app-links.yaml -n`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(cmd.Context(), args[0], o)
		},
	}

	cmd.Flags().StringVar(&o.repo, "repo", "", "Repository path (default: main worktree of <worktree>)")
	cmd.Flags().StringVar(&o.linksFile, "links-file", "", "Links document (default: <repo>/.worktree-links.local.json)")
	cmd.Flags().BoolVarP(&o.force, "force", "f", false, "Replace existing files and symlinks at destinations")
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "Print what would be done without doing it")

	return cmd
}

func runLinks(ctx context.Context, worktree string, o linksOptions) error {
	l := log.FromContext(ctx)
	gc := git.New(nil)

	wt, err := absPath(worktree)
	if err != nil {
		return err
	}
	if info, err := os.Stat(wt); err != nil || !info.IsDir() {
		return fmt.Errorf("worktree directory does not exist: %s", wt)
	}

	var repoRoot string
	if o.repo != "" {
		repoRoot, err = resolveRepoRoot(ctx, gc, o.repo)
	} else {
		repoRoot, err = mainRepoRoot(ctx, gc, wt)
	}
	if err != nil {
		return err
	}

	linksPath := o.linksFile
	if linksPath != "" {
		if linksPath, err = absPath(linksPath); err != nil {
			return err
		}
	} else {
		cfg, err := config.ResolverFromContext(ctx).ConfigForRepo(repoRoot)
		if err != nil {
			return err
		}
		if linksPath, err = cfg.LinksPathFor(repoRoot); err != nil {
			return err
		}
	}

	specs, err := links.Load(linksPath)
	if err != nil {
		return err
	}
	if specs == nil {
		return fmt.Errorf("links file not found: %s", linksPath)
	}
	l.Info("links  : %s", linksPath)

	results, applyErr := links.Apply(ctx, wt, specs, links.Options{
		DryRun:  o.dryRun,
		Force:   o.force,
		BaseDir: filepath.Dir(linksPath),
	})
	printLinkResults(ctx, results)
	return applyErr
}

// printLinkResults writes one table row per link to stdout.
func printLinkResults(ctx context.Context, results []links.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		dest := r.Dest
		if dest == "" {
			dest = r.Spec.Dest
		}
		rows = append(rows, []string{dest, r.Source, string(r.Outcome)})
	}
	output.FromContext(ctx).Table([]string{"DEST", "SOURCE", "OUTCOME"}, rows)
}
