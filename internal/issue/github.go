package issue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/raphi011/iwt/internal/cmd"
)

// ErrToolMissing reports that a provider's command line tool is not installed.
var ErrToolMissing = errors.New("tool not installed")

// OriginLookup returns the origin remote URL of a repository.
type OriginLookup interface {
	OriginURL(ctx context.Context, repoRoot string) (string, error)
}

// GitHub fetches issue metadata with the gh CLI.
type GitHub struct {
	run    cmd.Runner
	origin OriginLookup
}

// NewGitHub creates a GitHub provider. origin infers the repository for bare
// issue numbers and may be nil.
func NewGitHub(r cmd.Runner, origin OriginLookup) *GitHub {
	if r == nil {
		r = cmd.Exec{}
	}
	return &GitHub{run: r, origin: origin}
}

type ghIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// Fetch runs gh issue view for ref in repoRoot.
func (g *GitHub) Fetch(ctx context.Context, repoRoot string, ref Ref) (Info, error) {
	args := []string{"issue", "view", ref.Key}

	repo := ref.Repo
	if repo == "" && g.origin != nil {
		if url, err := g.origin.OriginURL(ctx, repoRoot); err == nil {
			repo, _ = GitHubRepoFromURL(url)
		}
	}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	args = append(args, "--json", "title,number,url")

	out, err := cmd.Output(ctx, g.run, repoRoot, "gh", args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Info{}, fmt.Errorf("gh: %w", ErrToolMissing)
		}
		return Info{}, fmt.Errorf("gh issue view %s: %w", ref.Key, err)
	}

	var data ghIssue
	if err := json.Unmarshal(out, &data); err != nil {
		return Info{}, fmt.Errorf("parse gh output: %w", err)
	}

	key := ref.Key
	if data.Number != 0 {
		key = strconv.Itoa(data.Number)
	}
	return Info{Source: SourceGitHub, Key: key, Title: data.Title, URL: data.URL}, nil
}
