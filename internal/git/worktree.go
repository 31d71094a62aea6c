package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/iwt/internal/cmd"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

// Request describes the worktree to reconcile.
type Request struct {
	RepoRoot string
	Branch   string
	Path     string // absolute target directory
	Base     string // base branch short name, e.g. "main"
	DryRun   bool
}

func (r Request) validate() error {
	switch {
	case r.RepoRoot == "":
		return fmt.Errorf("repository root is required")
	case r.Branch == "":
		return fmt.Errorf("branch is required")
	case r.Base == "":
		return fmt.Errorf("base branch is required")
	case !filepath.IsAbs(r.Path):
		return fmt.Errorf("worktree path must be absolute: %q", r.Path)
	}
	return nil
}

// Step is a single git invocation in a plan. Args exclude the leading "git".
type Step struct {
	Args []string
	// Tolerant steps log a warning on failure instead of aborting.
	Tolerant bool
}

// String renders the step as a shell-quoted command line.
func (s Step) String() string {
	return cmd.Format("git", s.Args...)
}

// Plan is the ordered list of commands that creates a worktree.
type Plan struct {
	BaseRef   string
	NewBranch bool
	Steps     []Step
}

// Lines renders every step as a shell-quoted command line.
func (p Plan) Lines() []string {
	lines := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		lines[i] = s.String()
	}
	return lines
}

// Status is the terminal state of a reconciliation.
type Status string

const (
	StatusReused  Status = "reused"
	StatusCreated Status = "created"
	StatusPlanned Status = "planned"
)

// Outcome reports how a reconciliation finished.
type Outcome struct {
	Status Status
	// Path is the usable worktree path. For StatusReused it is the
	// registered path, which may differ from the requested one.
	Path string
	Plan Plan
	// FetchErr holds the tolerated fetch failure, if any.
	FetchErr error
}

// BuildPlan computes the commands that would create the worktree. It only
// queries refs and never mutates the repository.
func (c *Client) BuildPlan(ctx context.Context, req Request) Plan {
	branchExists := c.RefExists(ctx, req.RepoRoot, "refs/heads/"+req.Branch)

	baseRef := req.Base
	if c.RefExists(ctx, req.RepoRoot, "refs/remotes/origin/"+req.Base) {
		baseRef = "origin/" + req.Base
	}

	plan := Plan{
		BaseRef:   baseRef,
		NewBranch: !branchExists,
		Steps: []Step{
			{Args: []string{"fetch", "--prune", "origin", req.Base}, Tolerant: true},
		},
	}
	if branchExists {
		plan.Steps = append(plan.Steps, Step{Args: []string{"worktree", "add", req.Path, req.Branch}})
	} else {
		plan.Steps = append(plan.Steps, Step{Args: []string{"worktree", "add", "-b", req.Branch, req.Path, baseRef}})
	}
	return plan
}

// Reconcile makes sure a usable worktree for req.Branch exists.
//
// An already registered branch is reused without mutation. A target path
// that exists but is not that branch's worktree fails with
// *PathCollisionError, in dry-run too. In dry-run the plan is printed to
// stdout and nothing runs. Otherwise the parent directory is created, the
// fetch runs with failure tolerated, and the worktree is added; a failed add
// returns *WorktreeCreationError.
func (c *Client) Reconcile(ctx context.Context, req Request) (Outcome, error) {
	if err := req.validate(); err != nil {
		return Outcome{}, err
	}
	l := log.FromContext(ctx)

	regs, err := c.ListWorktrees(ctx, req.RepoRoot)
	if err != nil {
		return Outcome{}, err
	}
	if path, ok := regs[req.Branch]; ok {
		l.Debug("worktree already registered", "branch", req.Branch, "path", path)
		return Outcome{Status: StatusReused, Path: path}, nil
	}

	if _, err := os.Lstat(req.Path); err == nil {
		owner, _ := regs.BranchAt(req.Path)
		return Outcome{}, &PathCollisionError{Path: req.Path, Branch: owner}
	}

	plan := c.BuildPlan(ctx, req)
	out := Outcome{Status: StatusPlanned, Path: req.Path, Plan: plan}

	if req.DryRun {
		l.DryRun("would run:")
		p := output.FromContext(ctx)
		for _, line := range plan.Lines() {
			p.Println("  " + line)
		}
		return out, nil
	}

	if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create parent directory of %s: %w", req.Path, err)
	}

	for _, step := range plan.Steps {
		res, err := c.run.Run(ctx, req.RepoRoot, "git", step.Args...)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		if step.Tolerant {
			l.Warn("%s failed, continuing: %v", step, err)
			out.FetchErr = err
			continue
		}
		return Outcome{}, &WorktreeCreationError{
			Branch:  req.Branch,
			Path:    req.Path,
			Command: step.String(),
			Detail:  diagnostic(step, res, err),
		}
	}

	out.Status = StatusCreated
	return out, nil
}

// diagnostic picks stderr, else stdout, else a generic message.
func diagnostic(step Step, res cmd.Result, err error) string {
	if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(string(res.Stdout)); msg != "" {
		return msg
	}
	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Error()
	}
	return fmt.Sprintf("%s failed: %v", step, err)
}
