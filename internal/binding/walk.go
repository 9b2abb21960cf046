package binding

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/symtab"
)

// stmt dispatches one statement to its binding-producing handler, per
// the KeyKind list in binding.go. This is the type-switch the teacher's
// Visitor pattern would have handled with a generated dispatch method;
// the node set here is fixed by the specification rather than by a
// growing grammar, so a switch reads more directly (see internal/ast's
// package doc).
func (b *Builder) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		b.bindAssign(n)
	case *ast.AugAssign:
		b.bindAugAssign(n)
	case *ast.FuncDef:
		b.bindFuncDef(n)
	case *ast.ClassDef:
		b.bindClassDef(n)
	case *ast.Import:
		b.bindImport(n)
	case *ast.ImportFrom:
		b.bindImportFrom(n)
	case *ast.If:
		b.bindIf(n)
	case *ast.While:
		b.bindWhile(n)
	case *ast.For:
		b.bindFor(n)
	case *ast.With:
		b.bindWith(n)
	case *ast.Try:
		b.bindTry(n)
	case *ast.Match:
		b.bindMatch(n)
	case *ast.Assert:
		b.expr(n.Test)
		if n.Msg != nil {
			b.expr(n.Msg)
		}
	case *ast.Return:
		if n.Value != nil {
			b.expr(n.Value)
		}
	case *ast.Raise:
		if n.Exc != nil {
			b.expr(n.Exc)
		}
		if n.Cause != nil {
			b.expr(n.Cause)
		}
	case *ast.Global:
		for _, name := range n.Names {
			b.scopes.Current().Declare(&symtab.Symbol{Name: name, IsGlobal: true, Node: n})
		}
	case *ast.Nonlocal:
		for _, name := range n.Names {
			b.scopes.Current().Declare(&symtab.Symbol{Name: name, IsNonlocal: true, Node: n})
		}
	case *ast.ExprStmt:
		b.expr(n.X)
	case *ast.Delete:
		for _, t := range n.Targets {
			b.expr(t)
		}
	case *ast.Break:
		b.scopes.MarkBreak()
	}
	// Pass/Continue carry no binding and need no expression walk.
}

func (b *Builder) block(stmts []ast.Stmt) {
	for _, s := range stmts {
		b.stmt(s)
	}
}

func (b *Builder) bindAssign(n *ast.Assign) {
	if n.Value != nil {
		b.expr(n.Value)
	}
	if n.Annotation != nil {
		b.expr(n.Annotation)
	}
	for _, target := range n.Targets {
		b.bindTarget(target, n)
	}
}

// bindTarget recurses through tuple/list/starred targets so `a, b = ...`
// and `a, (b, c) = ...` each produce one binding key per leaf name.
func (b *Builder) bindTarget(target ast.Expr, owner *ast.Assign) {
	switch t := target.(type) {
	case *ast.Name:
		kind := KeyNameAssign
		if owner.Kind == ast.AssignAnnotated || owner.Kind == ast.AssignAnnotatedOnly {
			kind = KeyNameAnnotation
		} else if owner.Kind == ast.AssignTypeAlias {
			kind = KeyTypeAliasDef
		}
		bd := &Binding{Key: b.key(t.Value, kind, t), Expr: owner.Value}
		if kind == KeyNameAnnotation {
			bd.Annotation = owner.Annotation
		}
		b.add(bd)
	case *ast.TupleExpr:
		for _, e := range t.Elts {
			b.bindTarget(e, owner)
		}
	case *ast.ListExpr:
		for _, e := range t.Elts {
			b.bindTarget(e, owner)
		}
	case *ast.Starred:
		b.bindTarget(t.X, owner)
	case *ast.Attribute:
		b.bindAttributeTarget(t)
	case *ast.Subscript:
		b.bindSubscriptTarget(t, owner.Value)
	}
}

// bindSubscriptTarget records `x[i] = v` per spec §3's SubscriptValue key:
// the base and index expressions are walked for their own nested
// bindings, then a binding carrying all three pieces is added so
// internal/answers can resolve __setitem__ against them.
func (b *Builder) bindSubscriptTarget(t *ast.Subscript, value ast.Expr) {
	b.expr(t.X)
	for _, s := range t.Slices {
		b.expr(s)
	}
	b.add(&Binding{
		Key:   b.key("", KeySubscriptValue, t),
		Base:  t.X,
		Index: t.Slices,
		Expr:  value,
	})
}

// bindAttributeTarget recognizes `self.x = ...` inside a method body and
// records it for promotion onto the class's instance attribute set once
// the enclosing FuncDef finishes (spec §4.1 "Self-attribute promotion").
func (b *Builder) bindAttributeTarget(a *ast.Attribute) {
	if name, ok := a.X.(*ast.Name); ok && name.Value == b.selfName && b.selfName != "" {
		b.selfAttrs[a.Name] = append(b.selfAttrs[a.Name], &Binding{
			Key: b.key(a.Name, KeySelfAttribute, a),
		})
		return
	}
	b.expr(a.X)
}

func (b *Builder) bindAugAssign(n *ast.AugAssign) {
	b.expr(n.Value)
	b.expr(n.Target)
	if name, ok := n.Target.(*ast.Name); ok {
		b.add(&Binding{Key: b.key(name.Value, KeyAugAssign, n), Expr: n.Value})
	}
}

func (b *Builder) bindFuncDef(n *ast.FuncDef) {
	for _, d := range n.Decorators {
		b.expr(d.Expr)
	}
	b.add(&Binding{Key: b.key(n.Name, KeyFunctionDef, n), Stmt: n})

	prevSelf := b.selfName
	isMethod := b.scopes.Current().Kind == symtab.ScopeClassBody
	b.scopes.Push(symtab.ScopeFunction, n)
	for i, tp := range n.TypeParams {
		b.add(&Binding{Key: b.key(tp.Name, KeyTypeParam, paramNode{n, i})})
	}
	for i, p := range n.Params {
		if p.Annotation != nil {
			b.expr(p.Annotation)
			b.add(&Binding{Key: b.key(p.Name, KeyParameterAnnotation, paramNode{n, i}), Expr: p.Annotation})
		} else {
			b.add(&Binding{Key: b.key(p.Name, KeyParameterAnnotation, paramNode{n, i})})
		}
		if p.Default != nil {
			b.expr(p.Default)
		}
	}
	if isMethod && len(n.Params) > 0 {
		b.selfName = n.Params[0].Name
	} else {
		b.selfName = ""
	}
	if n.Returns != nil {
		b.expr(n.Returns)
	}
	b.block(n.Body)
	b.selfName = prevSelf
	b.scopes.Pop()
}

// paramNode lets a parameter or type-param binding carry a Range without
// its own ast.Node type — it borrows the owning FuncDef's range, which is
// acceptable since the data model only requires key identity, not pinpoint
// accuracy, to distinguish parameters that share a name across overloads.
type paramNode struct {
	owner ast.Node
	index int
}

func (p paramNode) Range() ast.Range { return p.owner.Range() }

func (b *Builder) bindClassDef(n *ast.ClassDef) {
	for _, d := range n.Decorators {
		b.expr(d.Expr)
	}
	for _, base := range n.Bases {
		b.expr(base)
	}
	for _, kw := range n.Keywords {
		b.expr(kw.Value)
	}
	b.add(&Binding{Key: b.key(n.Name, KeyClassDef, n), Stmt: n})

	prevAttrs := b.selfAttrs
	b.selfAttrs = map[string][]*Binding{}
	b.scopes.Push(symtab.ScopeClassBody, n)
	for i, tp := range n.TypeParams {
		b.add(&Binding{Key: b.key(tp.Name, KeyTypeParam, paramNode{n, i})})
	}
	b.block(n.Body)
	b.scopes.Pop()
	for _, bindings := range b.selfAttrs {
		for _, sa := range bindings {
			b.table.Add(sa)
		}
	}
	b.selfAttrs = prevAttrs
}

func (b *Builder) bindImport(n *ast.Import) {
	for _, name := range n.Names {
		local := name.Alias
		if local == "" {
			local = topLevelComponent(name.Path)
		}
		b.add(&Binding{Key: b.key(local, KeyImport, n), Stmt: n})
	}
}

func (b *Builder) bindImportFrom(n *ast.ImportFrom) {
	for _, name := range n.Names {
		local := name.Alias
		if local == "" {
			local = name.Name
		}
		b.add(&Binding{Key: b.key(local, KeyImportFrom, n), Stmt: n})
	}
}

func topLevelComponent(dotted string) string {
	for i, c := range dotted {
		if c == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

// bindIf implements spec §4.2's narrowing: when the test is one of the
// recognized predicate shapes (`x is None`, `x is not None`, bare/negated
// truthiness, `isinstance(x, C)`), the narrowed name gets its own KeyNarrow
// binding inside each arm, shadowing whatever it resolved to before the
// if — so a reference to the name inside the branch sees the narrowed
// type rather than its pre-if type. The two arms' exits are then joined
// into one KeyPhi binding so code after the if sees the right type too,
// unless one arm is statically terminal (ends in return/raise/break/
// continue), in which case only the other arm's exit survives.
//
// Only a single-comparator test naming one bare variable is recognized;
// a chained comparison or a compound boolean test narrows nothing, which
// is a scoped simplification, not a parse restriction.
func (b *Builder) bindIf(n *ast.If) {
	b.expr(n.Test)

	name, thenOp, elseOp, narrowed := narrowOpsFor(n.Test)
	var baseKey *Key
	if narrowed {
		baseKey, narrowed = b.table.Latest(name)
	}

	var pre int
	if narrowed {
		pre = b.table.byNameSnapshot(name)
		b.add(&Binding{Key: b.key(name, KeyNarrow, n.Test), NarrowBase: baseKey, NarrowOp: &thenOp})
	}
	b.block(n.Body)
	thenTerminal := terminates(n.Body)
	var thenExit *Key
	if narrowed {
		thenExit, _ = b.table.Latest(name)
		b.table.byNameRestore(name, pre)
	}

	if narrowed {
		b.add(&Binding{Key: b.key(name, KeyNarrow, elseBranchNode{n}), NarrowBase: baseKey, NarrowOp: &elseOp})
	}
	b.block(n.Orelse)
	elseTerminal := len(n.Orelse) > 0 && terminates(n.Orelse)
	var elseExit *Key
	if narrowed {
		elseExit, _ = b.table.Latest(name)
		b.table.byNameRestore(name, pre)
	}

	if !narrowed {
		return
	}
	switch {
	case thenTerminal && !elseTerminal:
		b.add(&Binding{Key: b.key(name, KeyPhi, n), PhiKeys: []Key{*elseExit}})
	case elseTerminal && !thenTerminal:
		b.add(&Binding{Key: b.key(name, KeyPhi, n), PhiKeys: []Key{*thenExit}})
	default:
		b.add(&Binding{Key: b.key(name, KeyPhi, n), PhiKeys: []Key{*thenExit, *elseExit}})
	}
}

// elseBranchNode gives an else-arm's KeyNarrow binding a Node distinct
// from the then-arm's (which uses the test expression itself), so the two
// keys don't collide.
type elseBranchNode struct{ owner ast.Node }

func (e elseBranchNode) Range() ast.Range { return e.owner.Range() }

// terminates reports whether stmts unconditionally leaves its enclosing
// block (ends in return/raise/break/continue, or an if whose every arm
// does), the condition spec §4.2's branch join needs to tell "falls
// through to after the if" apart from "never gets there".
func terminates(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch n := stmts[len(stmts)-1].(type) {
	case *ast.Return, *ast.Raise, *ast.Break, *ast.Continue:
		return true
	case *ast.If:
		return len(n.Orelse) > 0 && terminates(n.Body) && terminates(n.Orelse)
	}
	return false
}

// narrowOpsFor recognizes a branch test as one name-narrowing predicate,
// returning the narrowed name and the predicate each arm should apply to
// it. ok is false for anything not matching one of the recognized shapes.
func narrowOpsFor(test ast.Expr) (name string, thenOp, elseOp NarrowOp, ok bool) {
	switch n := test.(type) {
	case *ast.UnaryOp:
		if n.Op == "not" {
			name, then, els, inner := narrowOpsFor(n.X)
			return name, els, then, inner
		}
	case *ast.Name:
		return n.Value, NarrowOp{Kind: NarrowTruthy}, NarrowOp{Kind: NarrowFalsy}, true
	case *ast.Compare:
		if len(n.Ops) != 1 {
			return "", NarrowOp{}, NarrowOp{}, false
		}
		target, isName := n.Left.(*ast.Name)
		if !isName {
			return "", NarrowOp{}, NarrowOp{}, false
		}
		if _, isNone := n.Comparators[0].(*ast.NoneLit); !isNone {
			return "", NarrowOp{}, NarrowOp{}, false
		}
		switch n.Ops[0] {
		case "is":
			return target.Value, NarrowOp{Kind: NarrowIsNone}, NarrowOp{Kind: NarrowIsNotNone}, true
		case "is not":
			return target.Value, NarrowOp{Kind: NarrowIsNotNone}, NarrowOp{Kind: NarrowIsNone}, true
		}
	case *ast.Call:
		fn, isName := n.Func.(*ast.Name)
		if !isName || fn.Value != "isinstance" || len(n.Args) != 2 {
			return "", NarrowOp{}, NarrowOp{}, false
		}
		target, isName := n.Args[0].(*ast.Name)
		if !isName {
			return "", NarrowOp{}, NarrowOp{}, false
		}
		return target.Value, NarrowOp{Kind: NarrowIsInstance, Class: n.Args[1]}, NarrowOp{Kind: NarrowIsNotInstance, Class: n.Args[1]}, true
	}
	return "", NarrowOp{}, NarrowOp{}, false
}

func (b *Builder) bindWhile(n *ast.While) {
	b.expr(n.Test)
	b.scopes.PushLoop()
	b.block(n.Body)
	hadBreak := b.scopes.PopLoop()
	if !hadBreak {
		b.block(n.Orelse)
	}
}

func (b *Builder) bindFor(n *ast.For) {
	b.expr(n.Iter)
	b.bindTarget(n.Target, &ast.Assign{Targets: []ast.Expr{n.Target}, Value: n.Iter})
	b.retagLatest(n.Target, KeyForTarget)
	b.scopes.PushLoop()
	b.block(n.Body)
	hadBreak := b.scopes.PopLoop()
	if !hadBreak {
		b.block(n.Orelse)
	}
}

// retagLatest rewrites the kind of the binding(s) just added for target's
// leaf names from the generic NameAssign bindTarget produces to a more
// specific kind (ForTarget, WithTarget, ...), avoiding a parallel copy of
// bindTarget for every statement that assigns through a plain target.
func (b *Builder) retagLatest(target ast.Expr, kind KeyKind) {
	names := leafNames(target)
	for _, name := range names {
		if key, ok := b.table.Latest(name); ok {
			if bd, ok := b.table.Get(*key); ok {
				retagged := *bd
				retagged.Key.Kind = kind
				delete(b.table.bindings, *key)
				b.table.bindings[retagged.Key] = &retagged
				b.table.byName[name][len(b.table.byName[name])-1] = &retagged.Key
			}
		}
	}
}

func leafNames(e ast.Expr) []string {
	switch t := e.(type) {
	case *ast.Name:
		return []string{t.Value}
	case *ast.TupleExpr:
		var names []string
		for _, elt := range t.Elts {
			names = append(names, leafNames(elt)...)
		}
		return names
	case *ast.ListExpr:
		var names []string
		for _, elt := range t.Elts {
			names = append(names, leafNames(elt)...)
		}
		return names
	case *ast.Starred:
		return leafNames(t.X)
	}
	return nil
}

func (b *Builder) bindWith(n *ast.With) {
	for _, item := range n.Items {
		b.expr(item.ContextExpr)
		if item.Target != nil {
			b.bindTarget(item.Target, &ast.Assign{Targets: []ast.Expr{item.Target}})
			b.retagLatest(item.Target, KeyWithTarget)
		}
	}
	b.block(n.Body)
}

func (b *Builder) bindTry(n *ast.Try) {
	b.block(n.Body)
	for i := range n.Handlers {
		h := &n.Handlers[i]
		if h.Type != nil {
			b.expr(h.Type)
		}
		if h.Name != "" {
			b.add(&Binding{Key: b.key(h.Name, KeyExceptName, exceptNode{n, h}), Expr: h.Type})
		}
		b.block(h.Body)
	}
	b.block(n.Orelse)
	b.block(n.Finally)
}

type exceptNode struct {
	owner ast.Node
	h     *ast.ExceptHandler
}

func (e exceptNode) Range() ast.Range { return e.h.R }

func (b *Builder) bindMatch(n *ast.Match) {
	b.expr(n.Subject)
	for _, c := range n.Cases {
		b.bindPattern(c.Pattern)
		if c.Guard != nil {
			b.expr(c.Guard)
		}
		b.block(c.Body)
	}
}

func (b *Builder) bindPattern(p ast.Pattern) {
	switch pt := p.(type) {
	case *ast.CapturePattern:
		if pt.Name != "" {
			b.add(&Binding{Key: b.key(pt.Name, KeyPatternCapture, pt)})
		}
	case *ast.ValuePattern:
		b.expr(pt.Value)
	case *ast.OrPattern:
		for _, sub := range pt.Patterns {
			b.bindPattern(sub)
		}
	case *ast.AsPattern:
		b.bindPattern(pt.Sub)
		b.add(&Binding{Key: b.key(pt.Name, KeyPatternCapture, pt)})
	case *ast.SequencePattern:
		for _, sub := range pt.Elems {
			b.bindPattern(sub)
		}
	case *ast.MappingPattern:
		for _, entry := range pt.Entries {
			b.expr(entry.Key)
			b.bindPattern(entry.Pattern)
		}
		if pt.Rest != "" {
			b.add(&Binding{Key: b.key(pt.Rest, KeyPatternCapture, pt)})
		}
	case *ast.ClassPositionalPattern:
		b.expr(pt.Class)
		for _, sub := range pt.Elems {
			b.bindPattern(sub)
		}
	case *ast.ClassKeywordPattern:
		b.expr(pt.Class)
		for _, sub := range pt.Elems {
			b.bindPattern(sub)
		}
	}
}

// expr walks an expression purely for its nested bindings (lambda
// parameters, comprehension targets, walrus assignments); it never
// itself produces the expression's type, which is internal/answers's job.
func (b *Builder) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NamedExpr:
		b.expr(n.Value)
		b.add(&Binding{Key: b.key(n.Target.Value, KeyNameAssign, n), Expr: n.Value})
	case *ast.Lambda:
		b.scopes.Push(symtab.ScopeLambda, n)
		for _, p := range n.Params {
			if p.Default != nil {
				b.expr(p.Default)
			}
			b.add(&Binding{Key: b.key(p.Name, KeyParameterAnnotation, n)})
		}
		b.expr(n.Body)
		b.scopes.Pop()
	case *ast.Comp:
		b.scopes.Push(symtab.ScopeComprehension, n)
		for _, clause := range n.Clauses {
			b.expr(clause.Iter)
			b.bindTarget(clause.Target, &ast.Assign{Targets: []ast.Expr{clause.Target}, Value: clause.Iter})
			b.retagLatest(clause.Target, KeyComprehensionTarget)
			for _, cond := range clause.Ifs {
				b.expr(cond)
			}
		}
		if n.Elt != nil {
			b.expr(n.Elt)
		}
		if n.Key != nil {
			b.expr(n.Key)
		}
		if n.Value != nil {
			b.expr(n.Value)
		}
		b.scopes.Pop()
	case *ast.Call:
		b.expr(n.Func)
		for _, a := range n.Args {
			b.expr(a)
		}
		for _, kw := range n.Keywords {
			b.expr(kw.Value)
		}
	case *ast.Attribute:
		b.expr(n.X)
	case *ast.Subscript:
		b.expr(n.X)
		for _, s := range n.Slices {
			b.expr(s)
		}
	case *ast.SliceExpr:
		exprIfSet(b, n.Lower)
		exprIfSet(b, n.Upper)
		exprIfSet(b, n.Step)
	case *ast.BinOp:
		b.expr(n.Left)
		b.expr(n.Right)
	case *ast.UnaryOp:
		b.expr(n.X)
	case *ast.BoolOp:
		for _, v := range n.Values {
			b.expr(v)
		}
	case *ast.Compare:
		b.expr(n.Left)
		for _, c := range n.Comparators {
			b.expr(c)
		}
	case *ast.IfExp:
		b.expr(n.Test)
		b.expr(n.Body)
		b.expr(n.Orelse)
	case *ast.ListExpr:
		for _, el := range n.Elts {
			b.expr(el)
		}
	case *ast.SetExpr:
		for _, el := range n.Elts {
			b.expr(el)
		}
	case *ast.TupleExpr:
		for _, el := range n.Elts {
			b.expr(el)
		}
	case *ast.Starred:
		b.expr(n.X)
	case *ast.DictExpr:
		for _, entry := range n.Entries {
			exprIfSet(b, entry.Key)
			b.expr(entry.Value)
		}
	case *ast.Yield:
		exprIfSet(b, n.Value)
	case *ast.YieldFrom:
		b.expr(n.Value)
	case *ast.Await:
		b.expr(n.Value)
	}
}

func exprIfSet(b *Builder, e ast.Expr) {
	if e != nil {
		b.expr(e)
	}
}
