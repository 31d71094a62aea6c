package main

import (
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var o createOptions

	cmd := &cobra.Command{
		Use:     "create [issue]",
		Short:   "Create or reuse the worktree for an issue",
		Aliases: []string{"new"},
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Create or reuse the worktree for an issue.

The issue can be a GitHub reference (#123, 123, owner/repo#123 or an issue
URL) or a Linear key (ABC-123 or a linear.app URL). The branch is named
<prefix>/gh-<number>-<title-slug> or <prefix>/lin-<key>-<title-slug>; the
title is looked up with gh or the Linear API unless --title, --url or
--no-fetch is given.

The worktree is placed at <worktrees-root>/<repo>/<branch>, branched from
origin/<base> when it exists. An existing worktree for the branch is reused.

Afterwards the links document (default .worktree-links.local.json in the
repository root) is applied, symlinking private files into the worktree.`,
		Example: `  iwt create 42                      # GitHub issue #42 of the origin repo
  iwt create octo/app#42             # GitHub issue in another repo
  iwt create ENG-123                 # Linear issue
  iwt create ENG-123 --title "Fix login" --no-fetch
  iwt create --branch spike/cache    # Explicit branch, no issue lookup
  iwt create 42 -n                   # Show what would run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.issue = args[0]
			}
			return runCreate(cmd.Context(), o)
		},
	}

	cmd.Flags().StringVar(&o.repo, "repo", "", "Repository path (default: current repository)")
	cmd.Flags().StringVar(&o.base, "base", "", "Base branch (default: origin/HEAD, then main or master)")
	cmd.Flags().StringVar(&o.worktreesRoot, "worktrees-root", "", "Worktrees root (default: <repo-parent>/worktrees)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "Branch prefix (default: issue)")
	cmd.Flags().StringVar(&o.branch, "branch", "", "Use this branch name instead of deriving one from an issue")
	cmd.Flags().StringVar(&o.title, "title", "", "Issue title for the branch slug (skips lookup)")
	cmd.Flags().StringVar(&o.url, "url", "", "Issue URL (skips lookup)")
	cmd.Flags().BoolVar(&o.noFetch, "no-fetch", false, "Do not look up issue metadata")
	cmd.Flags().StringVar(&o.linksFile, "links-file", "", "Links document (default: <repo>/.worktree-links.local.json)")
	cmd.Flags().BoolVar(&o.noLinks, "no-links", false, "Do not apply the links document")
	cmd.Flags().BoolVar(&o.linkForce, "link-force", false, "Replace existing files and symlinks at link destinations")
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "Print what would be done without doing it")
	cmd.Flags().BoolVar(&o.copyPath, "copy", false, "Copy the worktree path to the clipboard")

	cmd.MarkFlagsMutuallyExclusive("no-links", "links-file")
	cmd.MarkFlagsMutuallyExclusive("no-links", "link-force")

	return cmd
}
