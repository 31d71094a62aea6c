// Package issue turns an issue reference (GitHub or Linear) into the metadata
// used to name a worktree branch.
//
// Metadata lookup is best effort: [Resolver.Resolve] never fails because a
// provider is missing or unreachable; it degrades to a title-less [Info] and
// logs a warning.
package issue

import (
	"fmt"
	"regexp"
	"strings"
)

// Source identifies the issue tracker.
type Source string

const (
	SourceGitHub Source = "github"
	SourceLinear Source = "linear"
)

// Info is the issue metadata a branch name is derived from.
type Info struct {
	Source Source
	Key    string // "123" for GitHub, "ABC-123" for Linear
	Title  string
	URL    string
}

// Ref is a classified issue reference as typed by the user.
type Ref struct {
	Source Source
	Key    string
	// Repo is "owner/repo" when the reference names a GitHub repository.
	Repo string
}

var (
	linearKeySearch = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)
	githubIssueURL  = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/issues/(\d+)(?:/.*)?$`)
	ownerRepoNumber = regexp.MustCompile(`^([^/\s]+/[^#\s]+)#(\d+)$`)
	bareNumber      = regexp.MustCompile(`^#?(\d+)$`)
)

// Parse classifies raw as a Linear key or URL, a GitHub issue URL,
// "owner/repo#123", "#123" or "123".
func Parse(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)

	if m := linearKeySearch.FindStringSubmatch(s); m != nil && (s == m[1] || strings.Contains(s, "linear.app")) {
		return Ref{Source: SourceLinear, Key: m[1]}, nil
	}
	if m := githubIssueURL.FindStringSubmatch(s); m != nil {
		return Ref{Source: SourceGitHub, Key: m[3], Repo: m[1] + "/" + m[2]}, nil
	}
	if m := ownerRepoNumber.FindStringSubmatch(s); m != nil {
		return Ref{Source: SourceGitHub, Key: m[2], Repo: m[1]}, nil
	}
	if m := bareNumber.FindStringSubmatch(s); m != nil {
		return Ref{Source: SourceGitHub, Key: m[1]}, nil
	}

	return Ref{}, fmt.Errorf("unrecognized issue reference %q (expected ABC-123, a Linear or GitHub URL, owner/repo#123, #123 or 123)", raw)
}

var (
	githubHTTPS = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)
	githubSSH   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
)

// GitHubRepoFromURL extracts "owner/repo" from a github.com remote URL.
func GitHubRepoFromURL(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, re := range []*regexp.Regexp{githubHTTPS, githubSSH} {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1] + "/" + m[2], true
		}
	}
	return "", false
}
