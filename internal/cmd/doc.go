// Package cmd provides helpers for executing shell commands with proper error handling.
//
// The [Runner] interface is the only way iwt runs external programs (git, gh).
// [Exec] is the production implementation; tests substitute the scripted fake
// from the cmdtest subpackage.
//
// # Usage
//
//	res, err := cmd.Exec{}.Run(ctx, repoRoot, "git", "worktree", "list", "--porcelain")
//	var exitErr *cmd.ExitError
//	if errors.As(err, &exitErr) {
//	    // exitErr.Error() is stderr, else stdout, else a generic message
//	}
//
// [Format] renders a command with each argument shell-quoted, which is how
// dry-run previews are printed.
//
// # Design Notes
//
// The iwt tool shells out to the git and gh CLIs rather than reimplementing
// them. This ensures compatibility with user configurations (SSH keys,
// credential helpers, worktree layouts).
package cmd
