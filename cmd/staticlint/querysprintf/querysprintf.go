// Package querysprintf reports SQL built with fmt.Sprintf and passed straight
// to a database/sql query method. Values belong in placeholders.
package querysprintf

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// Analyzer flags db.QueryContext(ctx, fmt.Sprintf(...)) and its relatives.
var Analyzer = &analysis.Analyzer{
	Name: "querysprintf",
	Doc:  "prohibits fmt.Sprintf as the query argument of database/sql calls",
	Run:  run,
}

// queryArgument maps a query method to the index of its query argument.
var queryArgument = map[string]int{
	"Exec":            0,
	"Query":           0,
	"QueryRow":        0,
	"Prepare":         0,
	"ExecContext":     1,
	"QueryContext":    1,
	"QueryRowContext": 1,
	"PrepareContext":  1,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			index, ok := queryArgument[sel.Sel.Name]
			if !ok || index >= len(call.Args) || !isDatabaseSQLMethod(pass, sel) {
				return true
			}

			if isSprintf(pass, call.Args[index]) {
				pass.Reportf(call.Args[index].Pos(), "query built with fmt.Sprintf; pass values as placeholders")
			}

			return true
		})
	}
	return nil, nil
}

// isDatabaseSQLMethod reports whether sel resolves to a method declared in
// database/sql, directly or through an interface embedding one.
func isDatabaseSQLMethod(pass *analysis.Pass, sel *ast.SelectorExpr) bool {
	selection, ok := pass.TypesInfo.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return false
	}
	method, ok := selection.Obj().(*types.Func)
	if !ok {
		return false
	}
	if method.Pkg() != nil && method.Pkg().Path() == "database/sql" {
		return true
	}

	// Interfaces such as queryer { QueryContext(...) } declare the method in
	// the caller's package; match them by signature.
	signature, ok := method.Type().(*types.Signature)
	if !ok || signature.Params().Len() == 0 {
		return false
	}
	results := signature.Results()
	if results.Len() == 0 {
		return false
	}
	named, ok := types.Unalias(pointerElem(results.At(0).Type())).(*types.Named)
	return ok && named.Obj().Pkg() != nil && named.Obj().Pkg().Path() == "database/sql"
}

func pointerElem(t types.Type) types.Type {
	if pointer, ok := t.(*types.Pointer); ok {
		return pointer.Elem()
	}
	return t
}

func isSprintf(pass *analysis.Pass, expr ast.Expr) bool {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	return ok && fn.Pkg() != nil && fn.Pkg().Path() == "fmt" && fn.Name() == "Sprintf"
}
