// Package worktree computes where issue worktrees live on disk.
package worktree

import (
	"path/filepath"
	"strings"
)

// DefaultRootName is the directory created next to the repository when no
// worktrees root is configured.
const DefaultRootName = "worktrees"

// Root returns the worktrees root for the repository at repoPath: configured
// when set, otherwise a "worktrees" directory sibling to the repository.
func Root(configured, repoPath string) string {
	if configured != "" {
		return filepath.Clean(configured)
	}
	return filepath.Join(filepath.Dir(repoPath), DefaultRootName)
}

// Path computes <root>/<repo-name>/<branch>. Slashes in the branch become
// nested directories, so issue/gh-42-fix lands in <root>/<repo>/issue/gh-42-fix.
func Path(root, repoPath, branch string) string {
	parts := append([]string{root, filepath.Base(repoPath)}, strings.Split(branch, "/")...)
	return filepath.Join(parts...)
}
