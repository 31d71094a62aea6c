package issue

import (
	"context"
	"errors"

	"github.com/raphi011/iwt/internal/log"
)

// Provider fetches metadata for a reference.
type Provider interface {
	Fetch(ctx context.Context, repoRoot string, ref Ref) (Info, error)
}

// Overrides replace fetched metadata. Any non-empty override suppresses
// fetching.
type Overrides struct {
	Title string
	URL   string
}

// Resolver combines the per-tracker providers. A nil provider is treated as
// unavailable.
type Resolver struct {
	GitHub Provider
	Linear Provider
}

// Resolve returns the metadata for ref. It never fails: when fetching is
// disabled, overridden, or unsuccessful, the result carries the key and the
// overrides only, and a failure is logged as a warning.
func (r *Resolver) Resolve(ctx context.Context, repoRoot string, ref Ref, o Overrides, fetch bool) Info {
	base := Info{Source: ref.Source, Key: ref.Key, Title: o.Title, URL: o.URL}
	if !fetch || o.Title != "" || o.URL != "" {
		return base
	}

	l := log.FromContext(ctx)

	p := r.provider(ref.Source)
	if p == nil {
		l.Warn("no %s provider configured, continuing without issue title", ref.Source)
		return base
	}

	fetched, err := p.Fetch(ctx, repoRoot, ref)
	if err != nil {
		if errors.Is(err, ErrToolMissing) {
			l.Warn("gh not found, skipping GitHub issue lookup (branch name will have no slug)")
		} else {
			l.Warn("failed to fetch %s issue %s: %v; continuing without title", ref.Source, ref.Key, err)
		}
		return base
	}

	l.Debug("fetched issue", "source", ref.Source, "key", fetched.Key, "title", fetched.Title)
	if fetched.Key == "" {
		fetched.Key = ref.Key
	}
	fetched.Source = ref.Source
	return fetched
}

func (r *Resolver) provider(s Source) Provider {
	switch s {
	case SourceGitHub:
		return r.GitHub
	case SourceLinear:
		return r.Linear
	}
	return nil
}
