package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/links"
)

// setupLinkedWorktree creates a repo, a linked worktree at dir/wt and a
// secret file with a links document in the repo root.
func setupLinkedWorktree(t *testing.T) (repoPath, wtPath, secret string) {
	t.Helper()

	tmpDir := resolvePath(t, t.TempDir())
	repoPath = setupTestRepo(t, tmpDir)
	wtPath = filepath.Join(tmpDir, "wt")
	runGitCommand(t, repoPath, "worktree", "add", "-b", "feature", wtPath)

	secret = filepath.Join(tmpDir, "secrets", "app.env")
	if err := os.MkdirAll(filepath.Dir(secret), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(secret, []byte("TOKEN=x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	doc := `[{"src": "` + secret + `", "dest": "config/.env"}]`
	if err := os.WriteFile(filepath.Join(repoPath, links.DefaultFile), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return repoPath, wtPath, secret
}

// TestLinks_ExistingWorktree tests `iwt links <worktree>`.
//
// Scenario: User runs `iwt links ../wt` for a linked worktree
// Expected: The main repo's links document is found and applied; the result
// table is printed; a second run reports the link as already in place
func TestLinks_ExistingWorktree(t *testing.T) {
	t.Parallel()

	_, wtPath, secret := setupLinkedWorktree(t)

	ctx, out, _ := testContextWithConfig(t, config.Default())
	if err := execute(ctx, newLinksCmd(), wtPath); err != nil {
		t.Fatalf("links failed: %v", err)
	}
	assertSymlink(t, filepath.Join(wtPath, "config", ".env"), secret)
	for _, want := range []string{"DEST", "OUTCOME", "created"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("links output = %q, want to contain %q", out.String(), want)
		}
	}

	ctx, out, _ = testContextWithConfig(t, config.Default())
	if err := execute(ctx, newLinksCmd(), wtPath); err != nil {
		t.Fatalf("second links failed: %v", err)
	}
	if !strings.Contains(out.String(), string(links.SkippedAlreadyCorrect)) {
		t.Errorf("second links output = %q, want %q", out.String(), links.SkippedAlreadyCorrect)
	}
}

// TestLinks_ConflictAndForce tests destinations holding other files.
func TestLinks_ConflictAndForce(t *testing.T) {
	t.Parallel()

	_, wtPath, secret := setupLinkedWorktree(t)
	dest := filepath.Join(wtPath, "config", ".env")
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("local\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, _, _ := testContextWithConfig(t, config.Default())
	err := execute(ctx, newLinksCmd(), wtPath)
	var conflict *links.DestinationConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("links error = %v, want DestinationConflictError", err)
	}

	ctx, _, _ = testContextWithConfig(t, config.Default())
	if err := execute(ctx, newLinksCmd(), wtPath, "--dry-run", "--force"); err != nil {
		t.Fatalf("links --dry-run --force failed: %v", err)
	}
	if info, err := os.Lstat(dest); err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Fatalf("dry-run replaced %s (err = %v)", dest, err)
	}

	ctx, out, _ := testContextWithConfig(t, config.Default())
	if err := execute(ctx, newLinksCmd(), wtPath, "--force"); err != nil {
		t.Fatalf("links --force failed: %v", err)
	}
	assertSymlink(t, dest, secret)
	if !strings.Contains(out.String(), string(links.Replaced)) {
		t.Errorf("links output = %q, want %q", out.String(), links.Replaced)
	}
}

func TestLinks_Errors(t *testing.T) {
	t.Parallel()

	repoPath, wtPath, _ := setupLinkedWorktree(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing worktree", []string{filepath.Join(wtPath, "nope")}, "worktree directory does not exist"},
		{"missing links file", []string{wtPath, "--links-file", filepath.Join(repoPath, "none.json")}, "links file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, _, _ := testContextWithConfig(t, config.Default())
			err := execute(ctx, newLinksCmd(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("links error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}
