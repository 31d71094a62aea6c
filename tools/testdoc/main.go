// Command testdoc generates markdown documentation from Go test functions
// and their Scenario/Expected doc comments.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	var (
		rootDir         string
		outputFile      string
		integrationOnly bool
	)

	flag.StringVar(&rootDir, "root", ".", "root directory to scan for test files")
	flag.StringVar(&outputFile, "out", "docs/TESTS.md", "output markdown file")
	flag.BoolVar(&integrationOnly, "integration", false, "only include integration tests (*_integration_test.go)")
	flag.Parse()

	if err := run(rootDir, outputFile, integrationOnly); err != nil {
		fmt.Fprintf(os.Stderr, "testdoc: %v\n", err)
		os.Exit(1)
	}
}

func run(rootDir, outputFile string, integrationOnly bool) error {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("resolve root directory: %w", err)
	}

	packages, err := ParseTestFiles(absRoot, integrationOnly)
	if err != nil {
		return fmt.Errorf("parse test files: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := RenderMarkdown(f, packages); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	fmt.Printf("Generated %s with %d packages\n", outputFile, len(packages))
	return nil
}
