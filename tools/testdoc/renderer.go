package main

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

var anchorStrip = regexp.MustCompile(`[^a-z0-9-]`)

// commandMap maps test name prefixes (the part before the first underscore)
// to the iwt command or component they cover.
var commandMap = map[string]string{
	"Create":             "iwt create",
	"Path":               "iwt path",
	"Links":              "iwt links",
	"Config":             "iwt config",
	"ConfigInit":         "iwt config",
	"Integration":        "worktree reconciler",
	"Reconcile":          "worktree reconciler",
	"BuildPlan":          "worktree reconciler",
	"ValidateBranchName": "worktree reconciler",
	"Apply":              "link materializer",
	"Parse":              "reference resolver",
	"Slugify":            "reference resolver",
	"BranchName":         "reference resolver",
	"Resolver":           "reference resolver",
	"GitHub":             "reference resolver",
	"Linear":             "reference resolver",
}

// RenderMarkdown writes the test documentation as markdown, grouped by the
// command or component each test covers.
func RenderMarkdown(w io.Writer, packages []TestPackage) error {
	fmt.Fprintf(w, "# Test Documentation\n\n")
	fmt.Fprintf(w, "Generated: %s\n\n", now().Format("2006-01-02"))

	groups := make(map[string][]TestFunc)
	for _, pkg := range packages {
		for _, file := range pkg.Files {
			for _, test := range file.Tests {
				g := extractCommand(test.Name, test.Package)
				groups[g] = append(groups[g], test)
			}
		}
	}

	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	slices.Sort(names)

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Area | Tests |\n")
	fmt.Fprintf(w, "|------|-------|\n")
	total := 0
	for _, g := range names {
		fmt.Fprintf(w, "| [%s](#%s) | %d |\n", g, toAnchor(g), len(groups[g]))
		total += len(groups[g])
	}
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", total)

	for _, g := range names {
		renderSection(w, g, groups[g])
	}
	return nil
}

func renderSection(w io.Writer, name string, tests []TestFunc) {
	fmt.Fprintf(w, "## %s\n\n", name)
	fmt.Fprintf(w, "| Test | Description | Expected |\n")
	fmt.Fprintf(w, "|------|-------------|----------|\n")

	for _, test := range tests {
		desc := test.Scenario
		if desc == "" {
			desc = extractDescription(test.Doc, test.Name)
		}
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", test.Name, escapeCell(desc), escapeCell(test.Expected))
	}
	fmt.Fprintf(w, "\n")
}

// extractCommand maps a test to its area.
// Examples:
//   - TestCreate_DryRun -> iwt create
//   - TestApply_Conflict -> link materializer
//   - TestLoadFile_Missing (package internal/config) -> internal/config
func extractCommand(testName, pkg string) string {
	name := strings.TrimPrefix(testName, "Test")
	prefix, _, _ := strings.Cut(name, "_")

	if mapped, ok := commandMap[prefix]; ok {
		return mapped
	}
	if pkg != "" {
		return pkg
	}
	return "other"
}

// extractDescription gets the first line of the doc comment as description.
// It strips the test function name from the beginning if present.
func extractDescription(doc string, testName string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, testName+" ")
		return strings.ToUpper(line[:1]) + line[1:]
	}
	return "_No documentation_"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// toAnchor converts a heading to a markdown anchor.
func toAnchor(heading string) string {
	anchor := strings.ToLower(strings.ReplaceAll(heading, " ", "-"))
	return anchorStrip.ReplaceAllString(anchor, "")
}
