package git

import "fmt"

// InvalidBranchNameError reports a branch name rejected before any mutation.
type InvalidBranchNameError struct {
	Branch string
	Reason string
}

func (e *InvalidBranchNameError) Error() string {
	return fmt.Sprintf("invalid branch name %q: %s", e.Branch, e.Reason)
}

// PathCollisionError reports a target path that exists on disk but is not
// the registered worktree of the requested branch.
type PathCollisionError struct {
	Path string
	// Branch is set when the path is registered to a different branch.
	Branch string
}

func (e *PathCollisionError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("target path %s is already the worktree of branch %q", e.Path, e.Branch)
	}
	return fmt.Sprintf("target path %s already exists but is not a registered worktree", e.Path)
}

// RepositoryQueryError reports a failed read-only git query.
type RepositoryQueryError struct {
	Repo string
	Op   string
	Err  error
}

func (e *RepositoryQueryError) Error() string {
	return fmt.Sprintf("%s in %s: %v", e.Op, e.Repo, e.Err)
}

func (e *RepositoryQueryError) Unwrap() error {
	return e.Err
}

// WorktreeCreationError reports a failed worktree creation step. Detail is
// the command's stderr, else stdout, else a generic message.
type WorktreeCreationError struct {
	Branch  string
	Path    string
	Command string
	Detail  string
}

func (e *WorktreeCreationError) Error() string {
	return fmt.Sprintf("failed to create worktree %s for branch %q: %s", e.Path, e.Branch, e.Detail)
}
