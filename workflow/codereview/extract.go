package codereview

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// sampleFunctions stands in for real input when a run supplies no code.
var sampleFunctions = []string{"def hello(): pass", "def process(): return 1"}

// extractFunctions returns the source of each top-level function in code.
//
// Go source is parsed properly; a missing package clause is tolerated so
// snippets work. Anything that does not parse as Go falls back to a line scan
// for "func " and "def " headers. Empty input yields the sample functions.
func extractFunctions(code string) []string {
	if strings.TrimSpace(code) == "" {
		return append([]string(nil), sampleFunctions...)
	}

	if fns, ok := extractGoFunctions(code); ok {
		return fns
	}
	return scanFunctionHeaders(code)
}

func extractGoFunctions(code string) ([]string, bool) {
	src := code
	file, err := parser.ParseFile(token.NewFileSet(), "review.go", src, parser.SkipObjectResolution)
	if err != nil {
		src = "package review\n\n" + code
		file, err = parser.ParseFile(token.NewFileSet(), "review.go", src, parser.SkipObjectResolution)
		if err != nil {
			return nil, false
		}
	}

	// Offsets are relative to src since each parse uses its own FileSet
	// holding a single file based at 1.
	fns := []string{}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		fns = append(fns, src[int(fn.Pos())-1:int(fn.End())-1])
	}
	return fns, true
}

func scanFunctionHeaders(code string) []string {
	fns := []string{}
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "func ") || strings.HasPrefix(trimmed, "def ") {
			fns = append(fns, trimmed)
		}
	}
	return fns
}
