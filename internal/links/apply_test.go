package links

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/iwt/internal/log"
)

// setup creates a worktree directory and a secrets directory holding .env
// and local.yml. Returns (worktree, secrets), both symlink-resolved.
func setup(t *testing.T) (string, string) {
	t.Helper()
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	wt := filepath.Join(tmp, "wt")
	secrets := filepath.Join(tmp, "secrets")
	writeFile(t, filepath.Join(wt, "README.md"), "# app\n")
	writeFile(t, filepath.Join(secrets, ".env"), "TOKEN=1\n")
	writeFile(t, filepath.Join(secrets, "local.yml"), "debug: true\n")
	return wt, secrets
}

func logContext(buf *bytes.Buffer) context.Context {
	return log.WithLogger(context.Background(), log.New(buf, false, false))
}

func assertLink(t *testing.T, dest, want string) {
	t.Helper()
	got, err := os.Readlink(dest)
	if err != nil {
		t.Fatalf("Readlink(%s) error = %v", dest, err)
	}
	if got != want {
		t.Errorf("Readlink(%s) = %q, want %q", dest, got, want)
	}
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("%s exists, want nothing there", path)
	}
}

func TestApply_CreatesLinks(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	specs := []Spec{
		{Source: filepath.Join(secrets, ".env"), Dest: ".env"},
		{Source: filepath.Join(secrets, "local.yml"), Dest: "config/local.yml"},
	}

	results, err := Apply(context.Background(), wt, specs, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Apply() returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Outcome != Created {
			t.Errorf("%s outcome = %q, want %q", r.Spec.Dest, r.Outcome, Created)
		}
	}
	assertLink(t, filepath.Join(wt, ".env"), filepath.Join(secrets, ".env"))
	assertLink(t, filepath.Join(wt, "config", "local.yml"), filepath.Join(secrets, "local.yml"))
	if results[1].Dest != filepath.Join(wt, "config", "local.yml") {
		t.Errorf("Result.Dest = %q, want absolute path inside worktree", results[1].Dest)
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	specs := []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}

	if _, err := Apply(context.Background(), wt, specs, Options{}); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	results, err := Apply(context.Background(), wt, specs, Options{})
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if results[0].Outcome != SkippedAlreadyCorrect {
		t.Errorf("second Apply() outcome = %q, want %q", results[0].Outcome, SkippedAlreadyCorrect)
	}
}

func TestApply_AlreadyCorrectRelativeLink(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	if err := os.Symlink(filepath.Join("..", "secrets", ".env"), filepath.Join(wt, ".env")); err != nil {
		t.Fatal(err)
	}

	results, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Outcome != SkippedAlreadyCorrect {
		t.Errorf("outcome = %q, want %q", results[0].Outcome, SkippedAlreadyCorrect)
	}
	assertLink(t, filepath.Join(wt, ".env"), filepath.Join("..", "secrets", ".env"))
}

func TestApply_MissingSource(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	var stderr bytes.Buffer
	specs := []Spec{
		{Source: filepath.Join(secrets, "nope.env"), Dest: ".env.missing"},
		{Source: filepath.Join(secrets, ".env"), Dest: ".env"},
	}

	results, err := Apply(logContext(&stderr), wt, specs, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Outcome != SkippedMissingSource {
		t.Errorf("outcome[0] = %q, want %q", results[0].Outcome, SkippedMissingSource)
	}
	if results[1].Outcome != Created {
		t.Errorf("outcome[1] = %q, want %q", results[1].Outcome, Created)
	}
	assertNotExist(t, filepath.Join(wt, ".env.missing"))
	if !strings.Contains(stderr.String(), "nope.env") {
		t.Errorf("stderr = %q, want warning naming the missing source", stderr.String())
	}
}

func TestApply_MissingSourceSkipsDestinationCheck(t *testing.T) {
	t.Parallel()

	wt, _ := setup(t)
	results, err := Apply(context.Background(), wt, []Spec{{Source: "/definitely/not/here", Dest: "../escape"}}, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v, want skip", err)
	}
	if results[0].Outcome != SkippedMissingSource {
		t.Errorf("outcome = %q, want %q", results[0].Outcome, SkippedMissingSource)
	}
}

func TestApply_UnsafeDestinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dest string
	}{
		{name: "absolute", dest: "/etc/passwd"},
		{name: "parent", dest: "../outside"},
		{name: "nested parent", dest: "config/../../outside"},
		{name: "worktree root", dest: "."},
		{name: "through symlinked directory", dest: "escape/.env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wt, secrets := setup(t)
			outside := filepath.Join(filepath.Dir(wt), "outside-dir")
			if err := os.Mkdir(outside, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.Symlink(outside, filepath.Join(wt, "escape")); err != nil {
				t.Fatal(err)
			}

			// The safe entry comes first and must not be created either.
			specs := []Spec{
				{Source: filepath.Join(secrets, "local.yml"), Dest: "local.yml"},
				{Source: filepath.Join(secrets, ".env"), Dest: tt.dest},
			}
			_, err := Apply(context.Background(), wt, specs, Options{Force: true})

			var unsafe *UnsafeDestinationError
			if !errors.As(err, &unsafe) {
				t.Fatalf("Apply() error = %v, want *UnsafeDestinationError", err)
			}
			if unsafe.Dest != tt.dest {
				t.Errorf("UnsafeDestinationError.Dest = %q, want %q", unsafe.Dest, tt.dest)
			}
			assertNotExist(t, filepath.Join(wt, "local.yml"))
			assertNotExist(t, filepath.Join(outside, ".env"))
		})
	}
}

func TestApply_EarlierLinkRedirectsDestination(t *testing.T) {
	t.Parallel()

	t.Run("link through linked directory", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		specs := []Spec{
			{Source: secrets, Dest: "cfg"},
			{Source: filepath.Join(secrets, ".env"), Dest: "cfg/escaped.env"},
		}

		results, err := Apply(context.Background(), wt, specs, Options{})
		var unsafe *UnsafeDestinationError
		if !errors.As(err, &unsafe) {
			t.Fatalf("Apply() error = %v, want *UnsafeDestinationError", err)
		}
		if unsafe.Dest != "cfg/escaped.env" {
			t.Errorf("UnsafeDestinationError.Dest = %q, want %q", unsafe.Dest, "cfg/escaped.env")
		}
		if len(results) != 1 || results[0].Outcome != Created {
			t.Errorf("results = %+v, want only cfg created", results)
		}
		assertNotExist(t, filepath.Join(secrets, "escaped.env"))
	})

	t.Run("force through linked directory", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		specs := []Spec{
			{Source: secrets, Dest: "cfg"},
			{Source: filepath.Join(secrets, "local.yml"), Dest: "cfg/.env"},
		}

		_, err := Apply(context.Background(), wt, specs, Options{Force: true})
		var unsafe *UnsafeDestinationError
		if !errors.As(err, &unsafe) {
			t.Fatalf("Apply() error = %v, want *UnsafeDestinationError", err)
		}

		envPath := filepath.Join(secrets, ".env")
		info, err := os.Lstat(envPath)
		if err != nil {
			t.Fatalf("Lstat(%s) error = %v", envPath, err)
		}
		if !info.Mode().IsRegular() {
			t.Errorf("%s mode = %v, want regular file", envPath, info.Mode())
		}
		if data, _ := os.ReadFile(envPath); string(data) != "TOKEN=1\n" {
			t.Errorf("%s = %q, want %q", envPath, data, "TOKEN=1\n")
		}
	})
}

func TestApply_Conflicts(t *testing.T) {
	t.Parallel()

	t.Run("existing file without force", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		writeFile(t, filepath.Join(wt, ".env"), "LOCAL=1\n")

		_, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{})
		var conflict *DestinationConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Apply() error = %v, want *DestinationConflictError", err)
		}
		if data, _ := os.ReadFile(filepath.Join(wt, ".env")); string(data) != "LOCAL=1\n" {
			t.Errorf("existing file was modified: %q", data)
		}
	})

	t.Run("conflict stops later links", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		writeFile(t, filepath.Join(wt, ".env"), "LOCAL=1\n")
		specs := []Spec{
			{Source: filepath.Join(secrets, "local.yml"), Dest: "first.yml"},
			{Source: filepath.Join(secrets, ".env"), Dest: ".env"},
			{Source: filepath.Join(secrets, "local.yml"), Dest: "last.yml"},
		}

		results, err := Apply(context.Background(), wt, specs, Options{})
		if err == nil {
			t.Fatal("Apply() error = nil, want conflict")
		}
		if len(results) != 1 || results[0].Spec.Dest != "first.yml" {
			t.Errorf("results = %+v, want only first.yml", results)
		}
		assertLink(t, filepath.Join(wt, "first.yml"), filepath.Join(secrets, "local.yml"))
		assertNotExist(t, filepath.Join(wt, "last.yml"))
	})

	t.Run("force replaces file", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		writeFile(t, filepath.Join(wt, ".env"), "LOCAL=1\n")

		results, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{Force: true})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if results[0].Outcome != Replaced {
			t.Errorf("outcome = %q, want %q", results[0].Outcome, Replaced)
		}
		assertLink(t, filepath.Join(wt, ".env"), filepath.Join(secrets, ".env"))
	})

	t.Run("force replaces dangling symlink", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		if err := os.Symlink(filepath.Join(secrets, "gone"), filepath.Join(wt, ".env")); err != nil {
			t.Fatal(err)
		}

		_, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{})
		var conflict *DestinationConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Apply() without force error = %v, want *DestinationConflictError", err)
		}

		results, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{Force: true})
		if err != nil {
			t.Fatalf("Apply() with force error = %v", err)
		}
		if results[0].Outcome != Replaced {
			t.Errorf("outcome = %q, want %q", results[0].Outcome, Replaced)
		}
		assertLink(t, filepath.Join(wt, ".env"), filepath.Join(secrets, ".env"))
	})

	t.Run("force never removes a directory", func(t *testing.T) {
		t.Parallel()
		wt, secrets := setup(t)
		keep := filepath.Join(wt, "config", "keep.txt")
		writeFile(t, keep, "precious\n")

		_, err := Apply(context.Background(), wt, []Spec{{Source: filepath.Join(secrets, "local.yml"), Dest: "config"}}, Options{Force: true})
		var refused *ForceDeleteRefusedError
		if !errors.As(err, &refused) {
			t.Fatalf("Apply() error = %v, want *ForceDeleteRefusedError", err)
		}
		if _, err := os.Stat(keep); err != nil {
			t.Errorf("directory content was removed: %v", err)
		}
	})
}

func TestApply_DryRun(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	writeFile(t, filepath.Join(wt, ".env"), "LOCAL=1\n")
	var stderr bytes.Buffer
	specs := []Spec{
		{Source: filepath.Join(secrets, ".env"), Dest: ".env"},
		{Source: filepath.Join(secrets, "local.yml"), Dest: "config/local.yml"},
	}

	results, err := Apply(logContext(&stderr), wt, specs, Options{DryRun: true, Force: true})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Outcome != Replaced || results[1].Outcome != Created {
		t.Errorf("outcomes = %q, %q, want %q, %q", results[0].Outcome, results[1].Outcome, Replaced, Created)
	}
	if data, _ := os.ReadFile(filepath.Join(wt, ".env")); string(data) != "LOCAL=1\n" {
		t.Errorf("dry-run modified .env: %q", data)
	}
	assertNotExist(t, filepath.Join(wt, "config"))

	out := stderr.String()
	for _, want := range []string{"[DRY-RUN]", "replace " + filepath.Join(wt, ".env"), "ln -s " + filepath.Join(secrets, "local.yml")} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr = %q, want to contain %q", out, want)
		}
	}
}

func TestApply_MissingWorktreeInDryRun(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	future := filepath.Join(filepath.Dir(wt), "worktrees", "app", "issue", "gh-42")

	results, err := Apply(context.Background(), future, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Dest != filepath.Join(future, ".env") {
		t.Errorf("Dest = %q, want %q", results[0].Dest, filepath.Join(future, ".env"))
	}
	assertNotExist(t, future)
}

func TestApply_SymlinkedWorktreeRoot(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	alias := filepath.Join(filepath.Dir(wt), "wt-alias")
	if err := os.Symlink(wt, alias); err != nil {
		t.Fatal(err)
	}

	results, err := Apply(context.Background(), alias, []Spec{{Source: filepath.Join(secrets, ".env"), Dest: ".env"}}, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Dest != filepath.Join(wt, ".env") {
		t.Errorf("Dest = %q, want resolved %q", results[0].Dest, filepath.Join(wt, ".env"))
	}
	assertLink(t, filepath.Join(wt, ".env"), filepath.Join(secrets, ".env"))
}

func TestApply_RelativeSourceUsesBaseDir(t *testing.T) {
	t.Parallel()

	wt, secrets := setup(t)
	results, err := Apply(context.Background(), wt, []Spec{{Source: ".env", Dest: ".env"}}, Options{BaseDir: secrets})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Source != filepath.Join(secrets, ".env") {
		t.Errorf("Source = %q, want %q", results[0].Source, filepath.Join(secrets, ".env"))
	}
}

func TestApply_ExpandsHomeAndVars(t *testing.T) {
	wt, secrets := setup(t)
	t.Setenv("HOME", filepath.Dir(secrets))
	t.Setenv("IWT_TEST_SECRETS", secrets)

	specs := []Spec{
		{Source: "~/secrets/.env", Dest: ".env"},
		{Source: "${IWT_TEST_SECRETS}/local.yml", Dest: "local.yml"},
		{Source: "$IWT_TEST_UNSET/x", Dest: "x"},
	}
	results, err := Apply(context.Background(), wt, specs, Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if results[0].Outcome != Created || results[1].Outcome != Created {
		t.Errorf("outcomes = %q, %q, want created", results[0].Outcome, results[1].Outcome)
	}
	if results[2].Outcome != SkippedMissingSource {
		t.Errorf("unset variable outcome = %q, want %q", results[2].Outcome, SkippedMissingSource)
	}
	assertLink(t, filepath.Join(wt, ".env"), filepath.Join(secrets, ".env"))
}
