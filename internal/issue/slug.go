package issue

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxSlugLen caps the slug part of a branch name.
const MaxSlugLen = 50

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts title to lowercase ASCII words joined by "-". Accents are
// decomposed and dropped; characters without an ASCII form disappear.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(title) {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	s := nonAlnum.ReplaceAllString(strings.ToLower(b.String()), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-")
	}
	return s
}

// BranchName derives the worktree branch for info:
// <prefix>/gh-<key>[-<slug>] or <prefix>/lin-<key>[-<slug>].
func BranchName(info Info, prefix string) string {
	var base string
	if info.Source == SourceLinear {
		base = prefix + "/lin-" + strings.ToLower(info.Key)
	} else {
		base = prefix + "/gh-" + info.Key
	}
	if slug := Slugify(info.Title); slug != "" {
		return base + "-" + slug
	}
	return base
}

// ValidatePrefix rejects non-ASCII or empty branch prefixes.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return errEmptyPrefix
	}
	for _, r := range prefix {
		if r > unicode.MaxASCII {
			return &PrefixError{Prefix: prefix}
		}
	}
	return nil
}
