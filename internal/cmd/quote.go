package cmd

import (
	"regexp"
	"strings"
)

var safeArg = regexp.MustCompile(`^[A-Za-z0-9@%_+=:,./-]+$`)

// Quote escapes s for POSIX shells. Arguments made only of safe characters
// are returned unchanged.
func Quote(s string) string {
	if safeArg.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// Format renders a command line with every argument individually quoted,
// suitable for copy-paste into a shell.
func Format(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Quote(name))
	for _, a := range args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}
