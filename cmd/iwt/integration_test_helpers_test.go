package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

// resolvePath resolves symlinks in a path.
// This is needed on macOS where /var is a symlink to /private/var.
func resolvePath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve path %s: %v", path, err)
	}
	return resolved
}

// runGitCommand runs git in dir and returns trimmed stdout.
func runGitCommand(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// setupTestRepo creates dir/origin.git and a clone at dir/app with one
// pushed commit on main. Returns the clone path.
func setupTestRepo(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	origin := filepath.Join(dir, "origin.git")
	repoPath := filepath.Join(dir, "app")

	runGitCommand(t, dir, "init", "--bare", "-b", "main", origin)
	runGitCommand(t, dir, "clone", origin, repoPath)
	runGitCommand(t, repoPath, "config", "user.email", "test@test.com")
	runGitCommand(t, repoPath, "config", "user.name", "Test User")
	runGitCommand(t, repoPath, "config", "commit.gpgsign", "false")

	if err := os.WriteFile(filepath.Join(repoPath, "README.md"), []byte("# app\n"), 0644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}
	runGitCommand(t, repoPath, "add", "README.md")
	runGitCommand(t, repoPath, "commit", "-m", "Initial commit")
	runGitCommand(t, repoPath, "push", "-u", "origin", "HEAD")

	return repoPath
}

// testContextWithConfig returns a context carrying cfg, a logger
// writing to stderr and a printer writing to stdout.
func testContextWithConfig(t *testing.T, cfg config.Config) (ctx context.Context, stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	ctx = log.WithLogger(context.Background(), log.New(stderr, false, false))
	ctx = output.WithPrinter(ctx, stdout)
	ctx = config.WithResolver(ctx, config.NewResolver(cfg))
	return ctx, stdout, stderr
}

// execute runs cmd with args the way the root command would.
func execute(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetContext(ctx)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// assertSymlink checks that path is a symlink pointing at target.
func assertSymlink(t *testing.T, path, target string) {
	t.Helper()
	got, err := os.Readlink(path)
	if err != nil {
		t.Fatalf("Readlink(%s) error = %v", path, err)
	}
	if got != target {
		t.Errorf("Readlink(%s) = %q, want %q", path, got, target)
	}
}
