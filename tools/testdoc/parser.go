package main

import (
	"cmp"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// TestFunc represents a parsed test function.
type TestFunc struct {
	Name     string // Function name (e.g., "TestCreate_DryRun")
	Package  string // Package directory relative to the root
	Doc      string // Doc comment text
	Scenario string // "Scenario:" paragraph of the doc comment
	Expected string // "Expected:" paragraph of the doc comment
	Line     int    // Line number in source file
	IsTable  bool   // Whether this appears to be a table-driven test
}

// TestFile represents a parsed test file.
type TestFile struct {
	Name  string     // File name (e.g., "create_integration_test.go")
	Path  string     // Full path to file
	Tests []TestFunc // Test functions in this file
}

// TestPackage represents a collection of test files in a package.
type TestPackage struct {
	Name       string     // Package directory relative to root
	Files      []TestFile // Test files in this package
	TotalTests int        // Total test count
}

// ParseTestFiles walks the directory tree and parses all *_test.go files.
// Directories the go tool ignores (vendor, testdata, names starting with
// "." or "_") are skipped. If integrationOnly is true, only files matching
// *_integration_test.go are included.
func ParseTestFiles(root string, integrationOnly bool) ([]TestPackage, error) {
	packageMap := make(map[string]*TestPackage)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name == "vendor" || name == "testdata" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(name, "_test.go") {
			return nil
		}
		if integrationOnly && !strings.HasSuffix(name, "_integration_test.go") {
			return nil
		}

		pkgPath, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil || pkgPath == "." {
			pkgPath = filepath.Base(root)
		}

		testFile, err := parseTestFile(path, filepath.ToSlash(pkgPath))
		if err != nil {
			return err
		}
		if len(testFile.Tests) == 0 {
			return nil
		}

		pkg, ok := packageMap[pkgPath]
		if !ok {
			pkg = &TestPackage{Name: filepath.ToSlash(pkgPath)}
			packageMap[pkgPath] = pkg
		}
		pkg.Files = append(pkg.Files, *testFile)
		pkg.TotalTests += len(testFile.Tests)
		return nil
	})
	if err != nil {
		return nil, err
	}

	packages := make([]TestPackage, 0, len(packageMap))
	for _, pkg := range packageMap {
		slices.SortFunc(pkg.Files, func(a, b TestFile) int { return cmp.Compare(a.Name, b.Name) })
		packages = append(packages, *pkg)
	}
	slices.SortFunc(packages, func(a, b TestPackage) int { return cmp.Compare(a.Name, b.Name) })

	return packages, nil
}

// parseTestFile parses a single test file and extracts test functions.
func parseTestFile(path, pkg string) (*TestFile, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	testFile := &TestFile{Name: filepath.Base(path), Path: path}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, "Test") || !isTestFunction(fn) {
			continue
		}

		tf := TestFunc{
			Name:    fn.Name.Name,
			Package: pkg,
			Line:    fset.Position(fn.Pos()).Line,
			IsTable: detectTableDriven(fn),
		}
		if fn.Doc != nil {
			tf.Doc = strings.TrimSpace(fn.Doc.Text())
			tf.Scenario = docField(tf.Doc, "Scenario:")
			tf.Expected = docField(tf.Doc, "Expected:")
		}
		testFile.Tests = append(testFile.Tests, tf)
	}

	return testFile, nil
}

// docField returns the paragraph starting with label, joined into one line.
// Continuation lines run until a blank line or the next "Label:" line.
func docField(doc, label string) string {
	var parts []string
	in := false
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, label):
			in = true
			parts = append(parts, strings.TrimSpace(strings.TrimPrefix(line, label)))
		case !in:
		case line == "" || isLabel(line):
			return strings.Join(parts, " ")
		default:
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func isLabel(line string) bool {
	head, _, ok := strings.Cut(line, ":")
	return ok && head != "" && !strings.ContainsAny(head, " \t")
}

// isTestFunction checks if the function signature matches a test function.
func isTestFunction(fn *ast.FuncDecl) bool {
	if fn.Type.Params == nil || len(fn.Type.Params.List) != 1 {
		return false
	}

	starExpr, ok := fn.Type.Params.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	selExpr, ok := starExpr.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	ident, ok := selExpr.X.(*ast.Ident)
	if !ok {
		return false
	}

	return ident.Name == "testing" && (selExpr.Sel.Name == "T" || selExpr.Sel.Name == "B")
}

// detectTableDriven reports whether a range loop in the test body calls Run.
func detectTableDriven(fn *ast.FuncDecl) bool {
	if fn.Body == nil {
		return false
	}

	isTable := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		rangeStmt, ok := n.(*ast.RangeStmt)
		if !ok {
			return !isTable
		}
		ast.Inspect(rangeStmt.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return !isTable
			}
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Run" {
				isTable = true
			}
			return !isTable
		})
		return !isTable
	})

	return isTable
}
