package git

import (
	"context"
	"errors"
	"unicode"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/raphi011/iwt/internal/cmd"
)

// ValidateBranchName rejects branch names that are not ASCII or not valid
// git ref names. The local grammar check runs first; git check-ref-format
// has the final word.
func (c *Client) ValidateBranchName(ctx context.Context, repoRoot, branch string) error {
	if branch == "" {
		return &InvalidBranchNameError{Branch: branch, Reason: "branch name is empty"}
	}
	for _, r := range branch {
		if r > unicode.MaxASCII {
			return &InvalidBranchNameError{Branch: branch, Reason: "branch name must be ASCII"}
		}
	}

	if err := plumbing.NewBranchReferenceName(branch).Validate(); err != nil {
		return &InvalidBranchNameError{Branch: branch, Reason: "not a valid git ref name"}
	}

	if err := c.runGit(ctx, repoRoot, "check-ref-format", "--branch", branch); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			return &InvalidBranchNameError{Branch: branch, Reason: "rejected by git check-ref-format"}
		}
		return err
	}
	return nil
}
