// Package loopcall detects whole-case store reads inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports case store reads and calculator calls made once per loop iteration.
// A case is fetched whole, so one read before the loop serves every iteration.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects case store reads inside loops that should be hoisted",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// readMethods are store and calculator methods that fetch a whole case.
// Writes are not listed: the case API has no batch endpoint.
var readMethods = map[string]bool{
	// CaseStore
	"ListCases": true,
	"GetCase":   true,
	// Calculator
	"CalculateInheritance": true,
	"TextTree":             true,
	// Editor
	"Load": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Closures run later, not once per iteration.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			if name := sel.Sel.Name; readMethods[name] && len(call.Args) > 0 {
				pass.Reportf(call.Pos(),
					"%s called inside loop - read the case once before the loop",
					name)
			}

			return true
		})
	})

	return nil, nil
}
