package usage

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"locheck/internal/source"
)

// GoExtractor reads Go sources with go/parser. It reports
//
//	x.T("key")   T("key")   loc["key"]
//
// where T is a configured method and loc is declared with a configured
// indexer type. Files that fail to parse yield whatever the parser
// recovered.
type GoExtractor struct{}

func (GoExtractor) Extract(file *source.File, accessors []Accessor) []Site {
	fset := token.NewFileSet()
	node, _ := parser.ParseFile(fset, file.Path, file.Content, parser.SkipObjectResolution)
	if node == nil {
		return nil
	}
	tf := fset.File(node.Pos())
	if tf == nil {
		return nil
	}

	calls := methods(accessors)
	typed := indexedNames(node, indexers(accessors))

	var out []Site
	report := func(lit *ast.BasicLit) {
		key, err := strconv.Unquote(lit.Value)
		if err != nil {
			return
		}
		start := tf.Offset(lit.Pos())
		if sp, ok := span(file.ID, start, start+len(lit.Value)); ok {
			out = append(out, Site{Key: key, Span: sp})
		}
	}

	ast.Inspect(node, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.CallExpr:
			if len(e.Args) == 0 || len(calls) == 0 {
				return true
			}
			if _, ok := calls[calleeName(e.Fun)]; !ok {
				return true
			}
			if lit := stringLit(e.Args[0]); lit != nil {
				report(lit)
			}
		case *ast.IndexExpr:
			if len(typed) == 0 {
				return true
			}
			if _, ok := typed[exprName(e.X)]; !ok {
				return true
			}
			if lit := stringLit(e.Index); lit != nil {
				report(lit)
			}
		}
		return true
	})
	return out
}

func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.IndexExpr: // generic instantiation T[X]("key")
		return calleeName(f.X)
	}
	return ""
}

// exprName returns the identifier an index expression is applied to:
// loc["k"] and s.loc["k"] both give "loc".
func exprName(x ast.Expr) string {
	switch v := x.(type) {
	case *ast.Ident:
		return v.Name
	case *ast.SelectorExpr:
		return v.Sel.Name
	case *ast.ParenExpr:
		return exprName(v.X)
	case *ast.StarExpr:
		return exprName(v.X)
	}
	return ""
}

func stringLit(x ast.Expr) *ast.BasicLit {
	if p, ok := x.(*ast.ParenExpr); ok {
		return stringLit(p.X)
	}
	lit, ok := x.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil
	}
	return lit
}

// typeName strips pointers, packages and type arguments: *i18n.Localizer[T]
// gives "Localizer".
func typeName(x ast.Expr) string {
	switch v := x.(type) {
	case *ast.Ident:
		return v.Name
	case *ast.StarExpr:
		return typeName(v.X)
	case *ast.SelectorExpr:
		return v.Sel.Name
	case *ast.IndexExpr:
		return typeName(v.X)
	case *ast.IndexListExpr:
		return typeName(v.X)
	case *ast.CompositeLit:
		return typeName(v.Type)
	case *ast.UnaryExpr:
		if v.Op == token.AND {
			return typeName(v.X)
		}
	}
	return ""
}

// indexedNames collects variables, parameters and fields whose declared type
// is one of the indexer types. Scopes are ignored: a name declared with an
// indexer type anywhere in the file counts everywhere in it.
func indexedNames(file *ast.File, types map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if len(types) == 0 {
		return out
	}
	match := func(x ast.Expr) bool {
		_, ok := types[typeName(x)]
		return ok
	}
	ast.Inspect(file, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.Field:
			if match(d.Type) {
				for _, name := range d.Names {
					out[name.Name] = struct{}{}
				}
			}
		case *ast.ValueSpec:
			for i, name := range d.Names {
				if d.Type != nil && match(d.Type) {
					out[name.Name] = struct{}{}
				} else if i < len(d.Values) && match(d.Values[i]) {
					out[name.Name] = struct{}{}
				}
			}
		case *ast.AssignStmt:
			if d.Tok != token.DEFINE || len(d.Lhs) != len(d.Rhs) {
				return true
			}
			for i, lhs := range d.Lhs {
				if id, ok := lhs.(*ast.Ident); ok && match(d.Rhs[i]) {
					out[id.Name] = struct{}{}
				}
			}
		}
		return true
	})
	return out
}
