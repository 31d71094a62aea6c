package git

import (
	"context"
	"strings"

	"github.com/raphi011/iwt/internal/cmd"
)

// Client runs git commands against a repository through a cmd.Runner.
type Client struct {
	run cmd.Runner
}

// New creates a Client. A nil runner uses cmd.Exec.
func New(r cmd.Runner) *Client {
	if r == nil {
		r = cmd.Exec{}
	}
	return &Client{run: r}
}

// Runner returns the underlying command runner.
func (c *Client) Runner() cmd.Runner {
	return c.run
}

// runGit executes a git command in dir.
func (c *Client) runGit(ctx context.Context, dir string, args ...string) error {
	_, err := c.run.Run(ctx, dir, "git", args...)
	return err
}

// outputGit executes a git command in dir and returns trimmed stdout.
func (c *Client) outputGit(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := cmd.Output(ctx, c.run, dir, "git", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
