package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/iwt/internal/git"
	"github.com/raphi011/iwt/internal/output"
)

func newPathCmd() *cobra.Command {
	var o targetOptions

	cmd := &cobra.Command{
		Use:     "path [issue]",
		Short:   "Print the worktree path for an issue",
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Print the worktree path an issue maps to, without creating anything.

Issue metadata is never fetched, so the branch slug comes from --title only.
Useful for editor and shell integrations.`,
		Example: `  cd "$(iwt path 42)"
  iwt path ENG-123 --title "Fix login"
  iwt path --branch spike/cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var raw string
			if len(args) > 0 {
				raw = args[0]
			}
			o.fetch = false

			t, err := resolveTarget(ctx, git.New(nil), raw, o)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Println(t.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.repo, "repo", "", "Repository path (default: current repository)")
	cmd.Flags().StringVar(&o.worktreesRoot, "worktrees-root", "", "Worktrees root (default: <repo-parent>/worktrees)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "Branch prefix (default: issue)")
	cmd.Flags().StringVar(&o.branch, "branch", "", "Use this branch name instead of deriving one from an issue")
	cmd.Flags().StringVar(&o.title, "title", "", "Issue title for the branch slug")

	return cmd
}
