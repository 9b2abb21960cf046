// Package query is the LSP/query interface core spec §6 describes:
// Hover, GotoDefinition, and InlayHints, built directly on a module's
// binding.Table/answers.Table pair so the wire protocol
// (internal/lspserver) never has to know how a position maps to a type.
//
// Grounded on the teacher's cmd/lsp (FindNodePath/GetChildAt's narrowing
// descent into the node whose range contains the cursor). internal/ast's
// Range is a single point (the token each node's parse began on) rather
// than a start/end span — internal/parser never widens it after parsing
// a node's children — so containment-based descent doesn't apply here;
// instead NameAt scans every *ast.Name in the tree for the one sitting
// exactly on (or nearest, on the same line, preceding) the cursor.
package query

import "github.com/oxhq/pyrechk/internal/ast"

// Position is a 1-based line/column pair, matching ast.Range's own
// coordinate system.
type Position struct {
	Line, Column int
}

// NameAt returns the identifier nearest pos within root's tree: an exact
// point match if one exists, otherwise the closest preceding identifier
// on the same line, the same leniency a cursor sitting mid-token needs.
func NameAt(root ast.Node, pos Position) (*ast.Name, bool) {
	var names []*ast.Name
	collectNames(root, &names)

	for _, n := range names {
		r := n.Range()
		if r.StartLine == pos.Line && r.StartColumn == pos.Column {
			return n, true
		}
	}

	var best *ast.Name
	for _, n := range names {
		r := n.Range()
		if r.StartLine != pos.Line || r.StartColumn > pos.Column {
			continue
		}
		if best == nil || r.StartColumn > best.Range().StartColumn {
			best = n
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

func collectNames(n ast.Node, out *[]*ast.Name) {
	if n == nil {
		return
	}
	if nm, ok := n.(*ast.Name); ok {
		*out = append(*out, nm)
	}
	for _, c := range children(n) {
		collectNames(c, out)
	}
}

// children returns n's immediate syntax-tree children, flattening the
// satellite structs (Param, Decorator, WithItem, Case, ...) that carry
// expressions but aren't themselves ast.Node, so the caller only ever
// deals in Stmt/Expr/Pattern nodes.
func children(n ast.Node) []ast.Node {
	switch s := n.(type) {
	case *ast.Module:
		return stmts(s.Body)

	case *ast.FuncDef:
		var out []ast.Node
		for _, d := range s.Decorators {
			out = append(out, d.Expr)
		}
		for _, tp := range s.TypeParams {
			out = append(out, tp.Bound, tp.Default)
		}
		for _, p := range s.Params {
			out = append(out, p.Annotation, p.Default)
		}
		out = append(out, s.Returns)
		out = append(out, stmts(s.Body)...)
		return out

	case *ast.ClassDef:
		var out []ast.Node
		for _, d := range s.Decorators {
			out = append(out, d.Expr)
		}
		for _, tp := range s.TypeParams {
			out = append(out, tp.Bound, tp.Default)
		}
		out = append(out, exprs(s.Bases)...)
		for _, kw := range s.Keywords {
			out = append(out, kw.Value)
		}
		out = append(out, stmts(s.Body)...)
		return out

	case *ast.Assign:
		out := exprs(s.Targets)
		out = append(out, s.Annotation, s.Value)
		return out
	case *ast.AugAssign:
		return []ast.Node{s.Target, s.Value}
	case *ast.If:
		out := []ast.Node{s.Test}
		out = append(out, stmts(s.Body)...)
		out = append(out, stmts(s.Orelse)...)
		return out
	case *ast.While:
		out := []ast.Node{s.Test}
		out = append(out, stmts(s.Body)...)
		out = append(out, stmts(s.Orelse)...)
		return out
	case *ast.For:
		out := []ast.Node{s.Target, s.Iter}
		out = append(out, stmts(s.Body)...)
		out = append(out, stmts(s.Orelse)...)
		return out
	case *ast.With:
		var out []ast.Node
		for _, item := range s.Items {
			out = append(out, item.ContextExpr, item.Target)
		}
		out = append(out, stmts(s.Body)...)
		return out
	case *ast.Match:
		out := []ast.Node{s.Subject}
		for _, c := range s.Cases {
			if c.Pattern != nil {
				out = append(out, c.Pattern)
			}
			out = append(out, c.Guard)
			out = append(out, stmts(c.Body)...)
		}
		return out
	case *ast.Try:
		out := stmts(s.Body)
		for _, h := range s.Handlers {
			out = append(out, h.Type)
			out = append(out, stmts(h.Body)...)
		}
		out = append(out, stmts(s.Orelse)...)
		out = append(out, stmts(s.Finally)...)
		return out
	case *ast.Assert:
		return []ast.Node{s.Test, s.Msg}
	case *ast.Return:
		return []ast.Node{s.Value}
	case *ast.Raise:
		return []ast.Node{s.Exc, s.Cause}
	case *ast.Delete:
		return exprs(s.Targets)
	case *ast.ExprStmt:
		return []ast.Node{s.X}

	case *ast.Attribute:
		return []ast.Node{s.X}
	case *ast.Subscript:
		out := []ast.Node{s.X}
		return append(out, exprs(s.Slices)...)
	case *ast.SliceExpr:
		return []ast.Node{s.Lower, s.Upper, s.Step}
	case *ast.Call:
		out := []ast.Node{s.Func}
		out = append(out, exprs(s.Args)...)
		for _, kw := range s.Keywords {
			out = append(out, kw.Value)
		}
		return out
	case *ast.BinOp:
		return []ast.Node{s.Left, s.Right}
	case *ast.UnaryOp:
		return []ast.Node{s.X}
	case *ast.BoolOp:
		return exprs(s.Values)
	case *ast.Compare:
		out := []ast.Node{s.Left}
		return append(out, exprs(s.Comparators)...)
	case *ast.IfExp:
		return []ast.Node{s.Test, s.Body, s.Orelse}
	case *ast.ListExpr:
		return exprs(s.Elts)
	case *ast.SetExpr:
		return exprs(s.Elts)
	case *ast.TupleExpr:
		return exprs(s.Elts)
	case *ast.Starred:
		return []ast.Node{s.X}
	case *ast.DictExpr:
		var out []ast.Node
		for _, e := range s.Entries {
			out = append(out, e.Key, e.Value)
		}
		return out
	case *ast.Comp:
		out := []ast.Node{s.Elt, s.Key, s.Value}
		for _, c := range s.Clauses {
			out = append(out, c.Target, c.Iter)
			out = append(out, exprs(c.Ifs)...)
		}
		return out
	case *ast.Lambda:
		var out []ast.Node
		for _, p := range s.Params {
			out = append(out, p.Annotation, p.Default)
		}
		return append(out, s.Body)
	case *ast.Yield:
		return []ast.Node{s.Value}
	case *ast.YieldFrom:
		return []ast.Node{s.Value}
	case *ast.Await:
		return []ast.Node{s.Value}
	case *ast.NamedExpr:
		return []ast.Node{s.Target, s.Value}

	case *ast.OrPattern:
		var out []ast.Node
		for _, p := range s.Patterns {
			out = append(out, p)
		}
		return out
	case *ast.AsPattern:
		if s.Sub != nil {
			return []ast.Node{s.Sub}
		}
	case *ast.SequencePattern:
		var out []ast.Node
		for _, p := range s.Elems {
			out = append(out, p)
		}
		return out
	case *ast.MappingPattern:
		var out []ast.Node
		for _, e := range s.Entries {
			out = append(out, e.Key, e.Pattern)
		}
		return out
	case *ast.ClassPositionalPattern:
		out := []ast.Node{s.Class}
		for _, p := range s.Elems {
			out = append(out, p)
		}
		return out
	case *ast.ClassKeywordPattern:
		out := []ast.Node{s.Class}
		for _, p := range s.Elems {
			out = append(out, p)
		}
		return out
	case *ast.ValuePattern:
		return []ast.Node{s.Value}
	}
	return nil
}

// stmts/exprs widen typed slices to []ast.Node, since Go's type system
// won't do it implicitly even though every Stmt/Expr is an ast.Node.
func stmts(ss []ast.Stmt) []ast.Node {
	out := make([]ast.Node, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func exprs(es []ast.Expr) []ast.Node {
	out := make([]ast.Node, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
