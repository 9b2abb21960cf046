package answers

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/parser"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/unify"
)

// EvalAnnotation exposes the annotation evaluator to internal/classmeta,
// which needs it to type a class's base-list subscripts (`Generic[T]`,
// `Protocol[T]`) and keyword values (`metaclass=...`) the same way an
// ordinary `x: T` annotation is typed.
func (t *Table) EvalAnnotation(e ast.Expr) types.Type { return t.evalAnnotation(e) }

// EvalExpr exposes the value-expression evaluator to internal/classmeta,
// for class-body assignments (plain field defaults) typed the same way a
// module-level assignment's value is.
func (t *Table) EvalExpr(e ast.Expr) types.Type { return t.evalExpr(e) }

// evaluate is the key-specific solver spec §4.3 step 3 calls out:
// dispatch on the key's kind and produce its type from the Binding's
// attached syntax.
func (t *Table) evaluate(key binding.Key, bd *binding.Binding) (types.Type, error) {
	switch key.Kind {
	case binding.KeyNameAnnotation:
		declared := types.Type(types.AnyType{})
		if bd.Annotation != nil {
			declared = t.evalAnnotation(bd.Annotation)
		}
		if bd.Expr != nil {
			got := t.widenLiteral(t.evalExpr(bd.Expr))
			if err := unify.Check(got, declared, t.classResolver()); err != nil {
				t.reportSubtypeError(bd.Key.Node, diag.KindAnnotationMismatch, diag.CtxAssignment, got, declared)
			}
		}
		return declared, nil

	case binding.KeyTypeAliasDef:
		if bd.Expr == nil {
			return types.AnyType{}, nil
		}
		return t.evalAnnotation(bd.Expr), nil

	case binding.KeyParameterAnnotation:
		if bd.Expr != nil {
			return t.evalAnnotation(bd.Expr), nil
		}
		return types.AnyType{}, nil

	case binding.KeyForTarget, binding.KeyComprehensionTarget:
		if bd.AnnotationKey != nil {
			if declared, err := t.Get(*bd.AnnotationKey); err == nil {
				if bd.Expr != nil {
					got := t.widenLiteral(t.iterElementType(t.evalExpr(bd.Expr)))
					if err := unify.Check(got, declared, t.classResolver()); err != nil {
						t.reportSubtypeError(bd.Key.Node, diag.KindBadAssignment, diag.CtxAssignment, got, declared)
					}
				}
				return declared, nil
			}
		}
		if bd.Expr == nil {
			return types.AnyType{}, nil
		}
		return t.iterElementType(t.evalExpr(bd.Expr)), nil

	case binding.KeyNameAssign, binding.KeyWithTarget, binding.KeyPatternCapture:
		if bd.AnnotationKey != nil {
			if declared, err := t.Get(*bd.AnnotationKey); err == nil {
				if bd.Expr != nil {
					got := t.widenLiteral(t.evalExpr(bd.Expr))
					if err := unify.Check(got, declared, t.classResolver()); err != nil {
						t.reportSubtypeError(bd.Key.Node, diag.KindBadAssignment, diag.CtxAssignment, got, declared)
					}
				}
				return declared, nil
			}
		}
		if bd.Expr == nil {
			return types.AnyType{}, nil
		}
		return t.evalExpr(bd.Expr), nil

	case binding.KeyAugAssign:
		if bd.AnnotationKey != nil {
			if declared, err := t.Get(*bd.AnnotationKey); err == nil {
				if bd.Expr != nil {
					got := t.widenLiteral(t.evalExpr(bd.Expr))
					if err := unify.Check(got, declared, t.classResolver()); err != nil {
						t.reportSubtypeError(bd.Key.Node, diag.KindBadAssignment, diag.CtxAssignment, got, declared)
					}
				}
				return declared, nil
			}
		}
		return t.evalAugAssign(bd), nil

	case binding.KeyFunctionDef:
		fd, ok := bd.Stmt.(*ast.FuncDef)
		if !ok {
			return types.AnyType{}, nil
		}
		return t.evalFuncDefResolved(bd, fd), nil

	case binding.KeyClassDef:
		cd, ok := bd.Stmt.(*ast.ClassDef)
		if !ok {
			return types.AnyType{}, nil
		}
		return t.evalClassDef(key, cd), nil

	case binding.KeyImport:
		return types.ModuleType{Path: key.Name}, nil

	case binding.KeyImportFrom:
		return types.AnyType{}, nil

	case binding.KeyTypeParam:
		return types.TypeVarDecl{Name: key.Name}, nil

	case binding.KeyExceptName:
		return t.evalExceptName(bd), nil

	case binding.KeySelfAttribute:
		if bd.Expr != nil {
			return t.evalExpr(bd.Expr), nil
		}
		return types.AnyType{}, nil

	case binding.KeyNarrow:
		return t.evalNarrow(bd), nil

	case binding.KeyPhi:
		return t.evalPhi(bd), nil

	case binding.KeySubscriptValue:
		return t.evalSubscriptValue(bd), nil
	}

	return types.AnyType{}, nil
}

// evalNarrow applies bd.NarrowOp to the type bd.NarrowBase resolved to,
// per spec §4.2: `is None`/`is not None` split the base type around
// NoneType, truthy narrows None away, falsy narrows a type that includes
// None down to None (and leaves any other type unchanged), and
// isinstance/is-not-instance filter a
// union down to (or away from) the tested class.
func (t *Table) evalNarrow(bd *binding.Binding) types.Type {
	if bd.NarrowBase == nil || bd.NarrowOp == nil {
		return types.AnyType{}
	}
	base, err := t.Get(*bd.NarrowBase)
	if err != nil {
		return types.AnyType{}
	}
	switch bd.NarrowOp.Kind {
	case binding.NarrowIsNone:
		return types.NoneType{}
	case binding.NarrowIsNotNone, binding.NarrowTruthy:
		return filterUnion(base, func(m types.Type) bool {
			_, isNone := m.(types.NoneType)
			return !isNone
		})
	case binding.NarrowFalsy:
		if hasNone(base) {
			return types.NoneType{}
		}
		return base
	case binding.NarrowIsInstance:
		cls := t.evalAnnotation(bd.NarrowOp.Class)
		if ct, ok := cls.(types.ClassType); ok {
			return ct
		}
		return base
	case binding.NarrowIsNotInstance:
		cls := t.evalAnnotation(bd.NarrowOp.Class)
		ct, ok := cls.(types.ClassType)
		if !ok || ct.Class == nil {
			return base
		}
		return filterUnion(base, func(m types.Type) bool {
			mc, ok := m.(types.ClassType)
			return !ok || mc.Class != ct.Class
		})
	}
	return base
}

// hasNone reports whether t is, or unions in, NoneType.
func hasNone(t types.Type) bool {
	if _, ok := t.(types.NoneType); ok {
		return true
	}
	if u, ok := t.(types.UnionType); ok {
		for _, m := range u.Members {
			if hasNone(m) {
				return true
			}
		}
	}
	return false
}

// filterUnion narrows t to the members satisfying keep, used by
// evalNarrow's is-not-None/isinstance-exclusion cases. A non-union type
// either survives as-is (when it satisfies keep) or falls back to Never,
// which Join then absorbs harmlessly on the far side of a phi.
func filterUnion(t types.Type, keep func(types.Type) bool) types.Type {
	u, ok := t.(types.UnionType)
	if !ok {
		if keep(t) {
			return t
		}
		return types.NeverType{}
	}
	var kept []types.Type
	for _, m := range u.Members {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	switch len(kept) {
	case 0:
		return types.NeverType{}
	case 1:
		return kept[0]
	default:
		return types.UnionType{Members: kept}
	}
}

// evalPhi joins every branch-exit key's resolved type back into one flow
// fact, the replacement for the dead flow-snapshot merge bindIf used to
// perform at bind time.
func (t *Table) evalPhi(bd *binding.Binding) types.Type {
	var out types.Type
	for _, k := range bd.PhiKeys {
		v, err := t.Get(k)
		if err != nil {
			continue
		}
		if out == nil {
			out = v
			continue
		}
		out = unify.Join(out, v)
	}
	if out == nil {
		return types.AnyType{}
	}
	return out
}

// evalExpr infers an expression's value type: the everyday "what type is
// this produced value" question, as opposed to evalAnnotation's "what
// type does this syntax name".
func (t *Table) evalExpr(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.Literal{Kind: types.LitInt, Value: n.Value}
	case *ast.StringLit:
		return t.builtins.StrType()
	case *ast.BytesLit:
		return t.builtins.BytesType()
	case *ast.BoolLit:
		return types.Literal{Kind: types.LitBool, Value: n.Value}
	case *ast.NoneLit:
		return types.NoneType{}
	case *ast.EllipsisLit:
		return types.EllipsisType{}
	case *ast.ListExpr:
		return t.builtins.ListOf(t.elementJoin(n.Elts))
	case *ast.SetExpr:
		return t.builtins.SetOf(t.elementJoin(n.Elts))
	case *ast.TupleExpr:
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = t.evalExpr(el)
		}
		return types.TupleType{Kind: types.TupleConcrete, Elements: elems}
	case *ast.DictExpr:
		var keys, vals []types.Type
		for _, entry := range n.Entries {
			if entry.Key != nil {
				keys = append(keys, t.evalExpr(entry.Key))
			}
			vals = append(vals, t.evalExpr(entry.Value))
		}
		return t.builtins.DictOf(t.joinAll(keys), t.joinAll(vals))
	case *ast.BinOp:
		return t.evalBinOp(n)
	case *ast.UnaryOp:
		return t.evalExpr(n.X)
	case *ast.BoolOp:
		var vs []types.Type
		for _, v := range n.Values {
			vs = append(vs, t.evalExpr(v))
		}
		return t.joinAll(vs)
	case *ast.Compare:
		return t.builtins.BoolType()
	case *ast.IfExp:
		return unify.Join(t.evalExpr(n.Body), t.evalExpr(n.Orelse))
	case *ast.Lambda:
		params := make([]types.Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = types.Param{Name: p.Name, Kind: types.ParamPositionalOrKeyword, Required: p.Default == nil, Type: types.AnyType{}}
		}
		return types.CallableType{Shape: types.ParamsList, Params: params, ReturnType: t.evalExpr(n.Body)}
	case *ast.Await:
		return t.evalExpr(n.Value)
	case *ast.Starred:
		return t.evalExpr(n.X)
	case *ast.NamedExpr:
		return t.evalExpr(n.Value)
	case *ast.Name:
		return t.evalNameRef(n)
	case *ast.Attribute:
		return t.evalAttribute(n)
	case *ast.Subscript:
		return t.evalSubscript(n)
	case *ast.Call:
		return t.evalCall(n)
	case *ast.Yield:
		if n.Value != nil {
			return t.evalExpr(n.Value)
		}
		return types.NoneType{}
	case *ast.YieldFrom:
		return t.iterElementType(t.evalExpr(n.Value))
	case *ast.Comp:
		return t.evalComp(n)
	}
	return types.AnyType{}
}

// evalNameRef resolves a bare name reference by looking up its most
// recent binding in the same module's table — the binder's own flow
// order stands in for a proper use-site-to-definition-site resolution
// until internal/symtab's scope chain is threaded through here.
func (t *Table) evalNameRef(n *ast.Name) types.Type {
	key, ok := t.bindings.Latest(n.Value)
	if !ok {
		return types.AnyType{}
	}
	v, err := t.Get(*key)
	if err != nil {
		return types.AnyType{}
	}
	return v
}

// evalAttribute types `X.name`: instance/class member lookup for a class
// value, cross-module export lookup for a module value, and a join across
// alternatives for a union, all deferring the actual field resolution to
// internal/classmeta via the narrow ClassLookup interface.
func (t *Table) evalAttribute(n *ast.Attribute) types.Type {
	return t.memberType(t.evalExpr(n.X), n.Name, n)
}

// memberType resolves `base.name`, reporting missing-attribute when base
// is a class this table actually has metadata for (see
// ClassLookup.HasMeta) and the lookup still misses — a class whose
// metadata is unknown (a builtin, an unresolved import) is left silent,
// since this table has no way to tell a genuine typo from a member it
// simply never loaded.
func (t *Table) memberType(base types.Type, name string, node ast.Node) types.Type {
	switch b := base.(type) {
	case types.ClassType:
		if t.classes != nil && b.Class != nil {
			if m, ok := t.classes.AccessMember(b.Class, name, true); ok {
				return m
			}
			if t.classes.HasMeta(b.Class) {
				t.reportAt(node, diag.KindMissingAttribute, "%s has no attribute %q", types.String(b), name)
			}
		}
	case types.ClassDef:
		if t.classes != nil && b.Class != nil {
			if m, ok := t.classes.AccessMember(b.Class, name, false); ok {
				return m
			}
			if t.classes.HasMeta(b.Class) {
				t.reportAt(node, diag.KindMissingAttribute, "%s has no attribute %q", types.String(b), name)
			}
		}
	case types.ModuleType:
		if v, ok := t.CrossModuleGet(b.Path, name); ok {
			return v
		}
	case types.UnionType:
		parts := make([]types.Type, len(b.Members))
		for i, m := range b.Members {
			parts[i] = t.memberType(m, name, node)
		}
		return t.joinAll(parts)
	case types.BoundMethodType:
		return t.memberType(b.Object, name, node)
	}
	return types.AnyType{}
}

// evalSubscript types `X[i]` in value position (as opposed to
// evalAnnotationSubscript's type-position reading of the same syntax):
// indexing a list/set yields its element type, a dict its value type, a
// tuple the join of whichever elements a non-slice subscript could reach.
func (t *Table) evalSubscript(n *ast.Subscript) types.Type {
	base := t.evalExpr(n.X)
	for _, s := range n.Slices {
		if _, isSlice := s.(*ast.SliceExpr); isSlice {
			return base // `x[a:b]` returns the same container type as x
		}
	}
	return t.subscriptResult(base)
}

func (t *Table) subscriptResult(base types.Type) types.Type {
	switch b := base.(type) {
	case types.ClassType:
		switch b.Class {
		case t.builtins.List, t.builtins.Set, t.builtins.FrozenSet:
			if len(b.Args) == 1 {
				return b.Args[0]
			}
		case t.builtins.Dict, t.builtins.Mapping:
			if len(b.Args) == 2 {
				return b.Args[1]
			}
		}
	case types.TupleType:
		switch b.Kind {
		case types.TupleUnbounded:
			return b.Element
		case types.TupleConcrete:
			return t.joinAll(b.Elements)
		case types.TupleUnpacked:
			all := make([]types.Type, 0, len(b.Prefix)+len(b.Suffix)+1)
			all = append(all, b.Prefix...)
			all = append(all, b.Middle)
			all = append(all, b.Suffix...)
			return t.joinAll(all)
		}
	case types.UnionType:
		parts := make([]types.Type, len(b.Members))
		for i, m := range b.Members {
			parts[i] = t.subscriptResult(m)
		}
		return t.joinAll(parts)
	}
	return types.AnyType{}
}

// iterElementType is subscriptResult's counterpart for `for x in iter`:
// the element type of whatever iter's type turned out to be, falling back
// to Any for anything not recognized as a container or generator.
func (t *Table) iterElementType(container types.Type) types.Type {
	switch c := container.(type) {
	case types.ClassType:
		switch c.Class {
		case t.builtins.List, t.builtins.Set, t.builtins.FrozenSet, t.builtins.Iterable, t.builtins.Iterator:
			if len(c.Args) >= 1 {
				return c.Args[0]
			}
		case t.builtins.Dict, t.builtins.Mapping:
			if len(c.Args) == 2 {
				return c.Args[0]
			}
		case t.builtins.Generator, t.builtins.AsyncGenerator:
			if len(c.Args) >= 1 {
				return c.Args[0]
			}
		case t.builtins.Str:
			return t.builtins.StrType()
		}
	case types.TupleType:
		switch c.Kind {
		case types.TupleUnbounded:
			return c.Element
		case types.TupleConcrete:
			return t.joinAll(c.Elements)
		}
	case types.UnionType:
		parts := make([]types.Type, len(c.Members))
		for i, m := range c.Members {
			parts[i] = t.iterElementType(m)
		}
		return t.joinAll(parts)
	}
	return types.AnyType{}
}

// evalCall types `f(args...)`: a class reference called as a constructor
// produces an instance, a callable's declared return type is used as-is,
// a bound method drops its first parameter before matching, and an
// overload set tries each member's signature against the call's actual
// argument types in declaration order, the first match winning per spec
// §8 scenario 2.
func (t *Table) evalCall(n *ast.Call) types.Type {
	fn := t.evalExpr(n.Func)
	args := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		args[i] = t.evalExpr(a)
	}
	var kwargs map[string]types.Type
	for _, kw := range n.Keywords {
		if kw.Value == nil {
			continue
		}
		v := t.evalExpr(kw.Value)
		if kw.Name == "" {
			continue
		}
		if kwargs == nil {
			kwargs = map[string]types.Type{}
		}
		kwargs[kw.Name] = v
	}
	return t.callResult(fn, args, kwargs, n)
}

func (t *Table) callResult(fn types.Type, args []types.Type, kwargs map[string]types.Type, node ast.Node) types.Type {
	switch f := fn.(type) {
	case types.ClassDef:
		return types.ClassType{Class: f.Class}
	case types.FunctionType:
		return f.Signature.ReturnType
	case types.CallableType:
		return f.ReturnType
	case types.BoundMethodType:
		return t.callResult(dropFirstParam(f.Method), args, kwargs, node)
	case types.OverloadType:
		if ret, ok := t.selectOverload(f.Members, args, kwargs); ok {
			return ret
		}
		t.reportAt(node, diag.KindNoMatchingOverload, "no overload matches argument types for this call")
		return types.AnyType{}
	case types.DecorationType:
		return t.callResult(f.Of, args, kwargs, node)
	}
	return types.AnyType{}
}

// selectOverload returns the return type of the first member in members
// whose signature accepts args/kwargs, or (nil, false) if none does.
func (t *Table) selectOverload(members []types.Type, args []types.Type, kwargs map[string]types.Type) (types.Type, bool) {
	for _, m := range members {
		switch mt := m.(type) {
		case types.FunctionType:
			if t.matchesSignature(mt.Signature, args, kwargs) {
				return mt.Signature.ReturnType, true
			}
		case types.CallableType:
			if t.matchesSignature(mt, args, kwargs) {
				return mt.ReturnType, true
			}
		}
	}
	return nil, false
}

// matchesSignature reports whether args/kwargs could be passed to sig:
// each declared parameter is filled from the next positional argument (or
// by name from kwargs for keyword-only parameters), and every filled
// parameter's type must accept what was passed.
func (t *Table) matchesSignature(sig types.CallableType, args []types.Type, kwargs map[string]types.Type) bool {
	if sig.Shape != types.ParamsList {
		return true
	}
	pi := 0
	hasVarPos := false
	for _, p := range sig.Params {
		if p.Kind == types.ParamVariadicPositional {
			hasVarPos = true
		}
		if p.Kind == types.ParamVariadicPositional || p.Kind == types.ParamVariadicKeyword {
			continue
		}
		var argType types.Type
		var have bool
		if p.Kind != types.ParamKeywordOnly && pi < len(args) {
			argType, have = args[pi], true
			pi++
		} else if v, ok := kwargs[p.Name]; ok {
			argType, have = v, true
		}
		if !have {
			if p.Required {
				return false
			}
			continue
		}
		if !unify.IsSubsetEq(t.widenLiteral(argType), p.Type, t.classResolver()) {
			return false
		}
	}
	return hasVarPos || pi >= len(args)
}

// dropFirstParam strips the leading (self/cls) parameter from a bound
// method's underlying callable before overload/argument matching, per
// spec §4.5's "calling it drops the callable's first parameter".
func dropFirstParam(fn types.Type) types.Type {
	switch v := fn.(type) {
	case types.FunctionType:
		v.Signature = dropFirstParamSig(v.Signature)
		return v
	case types.CallableType:
		return dropFirstParamSig(v)
	case types.OverloadType:
		members := make([]types.Type, len(v.Members))
		for i, m := range v.Members {
			members[i] = dropFirstParam(m)
		}
		return types.OverloadType{Members: members}
	}
	return fn
}

func dropFirstParamSig(c types.CallableType) types.CallableType {
	if c.Shape != types.ParamsList || len(c.Params) == 0 {
		return c
	}
	c.Params = c.Params[1:]
	return c
}

// evalSubscriptValue types a `x[i] = v` target per spec §3's
// SubscriptValue binding: it resolves __setitem__ on the base
// expression's class and runs the index/value argument types through the
// same overload matching evalCall uses, reporting no-matching-overload
// when nothing accepts them (spec §8 scenario 1's `x[0] = "oops"`).
func (t *Table) evalSubscriptValue(bd *binding.Binding) types.Type {
	baseType := t.evalExpr(bd.Base)
	indexTypes := make([]types.Type, len(bd.Index))
	for i, idx := range bd.Index {
		indexTypes[i] = t.evalExpr(idx)
	}
	valueType := types.Type(types.AnyType{})
	if bd.Expr != nil {
		valueType = t.evalExpr(bd.Expr)
	}
	ct, ok := baseType.(types.ClassType)
	if !ok || ct.Class == nil || t.classes == nil {
		return types.AnyType{}
	}
	setitem, ok := t.classes.AccessMember(ct.Class, "__setitem__", true)
	if !ok {
		return types.AnyType{}
	}
	if bm, ok := setitem.(types.BoundMethodType); ok {
		setitem = dropFirstParam(bm.Method)
	}
	args := append(append([]types.Type{}, indexTypes...), valueType)
	ok = true
	switch s := setitem.(type) {
	case types.OverloadType:
		_, ok = t.selectOverload(s.Members, args, nil)
	case types.FunctionType:
		ok = t.matchesSignature(s.Signature, args, nil)
	case types.CallableType:
		ok = t.matchesSignature(s, args, nil)
	}
	if !ok {
		t.reportAt(bd.Key.Node, diag.KindNoMatchingOverload, "no overload of __setitem__ matches this assignment")
	}
	return types.AnyType{}
}

// evalComp types a comprehension by its Kind; CompGenerator's wrapping in
// Generator[Y, S, R] uses None for the send/return type parameters since
// plain comprehension syntax never supplies either.
func (t *Table) evalComp(n *ast.Comp) types.Type {
	switch n.Kind {
	case ast.CompList:
		return t.builtins.ListOf(t.evalExpr(n.Elt))
	case ast.CompSet:
		return t.builtins.SetOf(t.evalExpr(n.Elt))
	case ast.CompDict:
		return t.builtins.DictOf(t.evalExpr(n.Key), t.evalExpr(n.Value))
	case ast.CompGenerator:
		return types.ClassType{Class: t.builtins.Generator, Args: []types.Type{t.evalExpr(n.Elt), types.NoneType{}, types.NoneType{}}}
	}
	return types.AnyType{}
}

func (t *Table) elementJoin(elts []ast.Expr) types.Type {
	vs := make([]types.Type, len(elts))
	for i, el := range elts {
		vs[i] = t.evalExpr(el)
	}
	return t.joinAll(vs)
}

func (t *Table) joinAll(ts []types.Type) types.Type {
	if len(ts) == 0 {
		v := t.store.Fresh(unify.VarContained)
		return v
	}
	out := ts[0]
	for _, ty := range ts[1:] {
		out = unify.Join(out, ty)
	}
	return out
}

func (t *Table) evalBinOp(n *ast.BinOp) types.Type {
	left := t.evalExpr(n.Left)
	right := t.evalExpr(n.Right)
	return t.binOpResult(n.Op, left, right, n)
}

// dunderOpNames maps a bare binary operator spelling (BinOp.Op/
// AugAssign.Op never carry the trailing `=`) to the dunder methods spec
// §8's Boundary Behaviors names: forward, reflected, and in-place.
func dunderOpNames(op string) (fwd, rfl, inplace string) {
	switch op {
	case "+":
		return "__add__", "__radd__", "__iadd__"
	case "-":
		return "__sub__", "__rsub__", "__isub__"
	case "*":
		return "__mul__", "__rmul__", "__imul__"
	case "/":
		return "__truediv__", "__rtruediv__", "__itruediv__"
	case "//":
		return "__floordiv__", "__rfloordiv__", "__ifloordiv__"
	case "%":
		return "__mod__", "__rmod__", "__imod__"
	case "**":
		return "__pow__", "__rpow__", "__ipow__"
	case ">>":
		return "__rshift__", "__rrshift__", "__irshift__"
	case "<<":
		return "__lshift__", "__rlshift__", "__ilshift__"
	case "&":
		return "__and__", "__rand__", "__iand__"
	case "|":
		return "__or__", "__ror__", "__ior__"
	case "^":
		return "__xor__", "__rxor__", "__ixor__"
	case "@":
		return "__matmul__", "__rmatmul__", "__imatmul__"
	}
	return "", "", ""
}

// binOpResult implements spec §8's "reflected binary operators" rule:
// tries left.__op__(right), then right.__rop__(left), reporting
// unsupported-operand only when at least one side is a class this table
// has metadata for — an operand of unknown shape (a builtin, an
// unresolved import) falls back to arithmeticJoin's numeric-tower
// approximation instead, since no dunder lookup is possible for it.
func (t *Table) binOpResult(op string, left, right types.Type, node ast.Node) types.Type {
	fwd, rfl, _ := dunderOpNames(op)
	if fwd == "" || t.classes == nil {
		return t.arithmeticJoin(left, right)
	}
	known := false
	if lc, ok := left.(types.ClassType); ok && lc.Class != nil && t.classes.HasMeta(lc.Class) {
		known = true
		if m, ok := t.classes.AccessMember(lc.Class, fwd, true); ok {
			if ret, matched := t.tryDunder(m, right); matched {
				return ret
			}
		}
	}
	if rc, ok := right.(types.ClassType); ok && rc.Class != nil && t.classes.HasMeta(rc.Class) {
		known = true
		if m, ok := t.classes.AccessMember(rc.Class, rfl, true); ok {
			if ret, matched := t.tryDunder(m, left); matched {
				return ret
			}
		}
	}
	if known {
		t.reportAt(node, diag.KindUnsupportedOperand, "unsupported operand type(s) for %s: %s and %s", op, types.String(left), types.String(right))
		return types.AnyType{}
	}
	return t.arithmeticJoin(left, right)
}

// tryDunder calls a resolved dunder method (already bound, so its first
// parameter is dropped) with a single argument, returning its return
// type if the call's argument matches the method's signature.
func (t *Table) tryDunder(method types.Type, arg types.Type) (types.Type, bool) {
	if bm, ok := method.(types.BoundMethodType); ok {
		method = dropFirstParam(bm.Method)
	}
	switch m := method.(type) {
	case types.OverloadType:
		if ret, ok := t.selectOverload(m.Members, []types.Type{arg}, nil); ok {
			return ret, true
		}
	case types.FunctionType:
		if t.matchesSignature(m.Signature, []types.Type{arg}, nil) {
			return m.Signature.ReturnType, true
		}
	case types.CallableType:
		if t.matchesSignature(m, []types.Type{arg}, nil) {
			return m.ReturnType, true
		}
	}
	return nil, false
}

// evalAugAssign implements spec §8's augmented-assignment protocol: try
// the target's in-place method, then fall through to binOpResult's
// regular/reflected/unsupported-operand chain.
func (t *Table) evalAugAssign(bd *binding.Binding) types.Type {
	target := types.Type(types.AnyType{})
	if bd.Previous != nil {
		if v, err := t.Get(*bd.Previous); err == nil {
			target = v
		}
	}
	rhs := types.Type(types.AnyType{})
	if bd.Expr != nil {
		rhs = t.evalExpr(bd.Expr)
	}
	aug, ok := bd.Key.Node.(*ast.AugAssign)
	if !ok {
		return rhs
	}
	_, _, inplace := dunderOpNames(aug.Op)
	if inplace != "" && t.classes != nil {
		if tc, ok := target.(types.ClassType); ok && tc.Class != nil && t.classes.HasMeta(tc.Class) {
			if m, ok := t.classes.AccessMember(tc.Class, inplace, true); ok {
				if ret, matched := t.tryDunder(m, rhs); matched {
					return ret
				}
			}
		}
	}
	return t.binOpResult(aug.Op, target, rhs, bd.Key.Node)
}

// arithmeticJoin approximates the `int <= float <= complex` numeric
// tower spec §4.4 names: the wider of two numeric operands wins, and any
// non-numeric operand falls back to a join of the two operand types
// (correct for `str + str`, approximate otherwise, since the specific
// dunder-method resolution belongs to classmeta's member lookup).
func (t *Table) arithmeticJoin(a, b types.Type) types.Type {
	rank := func(ty types.Type) int {
		ct, ok := ty.(types.ClassType)
		if !ok || ct.Class == nil {
			return -1
		}
		switch ct.Class.Name {
		case "bool":
			return 0
		case "int":
			return 1
		case "float":
			return 2
		case "complex":
			return 3
		}
		return -1
	}
	ra, rb := rank(a), rank(b)
	if ra >= 0 && rb >= 0 {
		if ra >= rb {
			if ra <= 1 {
				return t.builtins.IntType()
			}
			return a
		}
		if rb <= 1 {
			return t.builtins.IntType()
		}
		return b
	}
	return unify.Join(a, b)
}

func (t *Table) evalExceptName(bd *binding.Binding) types.Type {
	if bd.Expr == nil {
		return types.ClassType{Class: t.builtins.BaseException}
	}
	declared := t.evalAnnotation(bd.Expr)
	if ct, ok := declared.(types.ClassType); ok {
		return ct
	}
	return types.ClassType{Class: t.builtins.BaseException}
}

// evalAnnotation interprets an expression in type position: a bare class
// name becomes an instance of that class, a subscript becomes a
// specialization, a BinOp `|` becomes a union, a string literal is a
// forward reference reparsed as an expression at its interior offset.
func (t *Table) evalAnnotation(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.Name:
		if n.Value == "None" {
			return types.NoneType{}
		}
		if cls, ok := t.lookupKnownClass(n.Value); ok {
			return types.ClassType{Class: cls}
		}
		return t.evalNameRef(n)
	case *ast.NoneLit:
		return types.NoneType{}
	case *ast.StringLit:
		return t.reparseForwardRef(n)
	case *ast.BinOp:
		if n.Op == "|" {
			return unify.Join(t.evalAnnotation(n.Left), t.evalAnnotation(n.Right))
		}
		return types.AnyType{}
	case *ast.Subscript:
		return t.evalAnnotationSubscript(n)
	case *ast.Attribute:
		return types.AnyType{}
	case *ast.EllipsisLit:
		return types.EllipsisType{}
	case *ast.TupleExpr:
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = t.evalAnnotation(el)
		}
		return types.TupleType{Kind: types.TupleConcrete, Elements: elems}
	}
	return types.AnyType{}
}

// reparseForwardRef evaluates a string literal appearing in type
// position per spec §4.2's "Forward references in strings": the string's
// interior text is reparsed as an expression and traversed as a type,
// never as a value. Nested forward references (a string inside the
// reparsed expression) are rejected by simply not recursing into another
// StringLit from here.
func (t *Table) reparseForwardRef(lit *ast.StringLit) types.Type {
	inner, errs := parser.ParseExpr(lit.Value, lit.R.Path)
	if inner == nil || len(errs) > 0 {
		return types.AnyType{}
	}
	if _, nested := inner.(*ast.StringLit); nested {
		if t.diags != nil {
			t.diags.Add(diag.New(diag.Range{Path: lit.R.Path, StartLine: lit.R.StartLine, StartColumn: lit.R.StartColumn},
				diag.KindInvalidAnnotation, "nested forward references are not allowed"))
		}
		return types.AnyType{}
	}
	return t.evalAnnotation(inner)
}

func (t *Table) evalAnnotationSubscript(n *ast.Subscript) types.Type {
	base, ok := n.X.(*ast.Name)
	if !ok {
		return types.AnyType{}
	}
	args := make([]types.Type, len(n.Slices))
	for i, s := range n.Slices {
		args[i] = t.evalAnnotation(s)
	}
	switch base.Value {
	case "list", "List":
		if len(args) == 1 {
			return t.builtins.ListOf(args[0])
		}
	case "set", "Set":
		if len(args) == 1 {
			return t.builtins.SetOf(args[0])
		}
	case "dict", "Dict":
		if len(args) == 2 {
			return t.builtins.DictOf(args[0], args[1])
		}
	case "tuple", "Tuple":
		return types.TupleType{Kind: types.TupleConcrete, Elements: args}
	case "Union":
		return t.joinAll(args)
	case "Optional":
		if len(args) == 1 {
			return unify.Join(args[0], types.NoneType{})
		}
	}
	if cls, ok := t.lookupKnownClass(base.Value); ok {
		return types.ClassType{Class: cls, Args: args}
	}
	return types.AnyType{}
}

func (t *Table) lookupKnownClass(name string) (*types.ClassObject, bool) {
	switch name {
	case "object":
		return t.builtins.Object, true
	case "int":
		return t.builtins.Int, true
	case "float":
		return t.builtins.Float, true
	case "complex":
		return t.builtins.Complex, true
	case "bool":
		return t.builtins.Bool, true
	case "str":
		return t.builtins.Str, true
	case "bytes":
		return t.builtins.Bytes, true
	}
	return nil, false
}

// evalFuncDefResolved types fd's own signature, then, when fd itself is
// not an @overload stub, stitches any run of immediately preceding
// @overload-decorated same-name definitions onto it as an OverloadType
// (spec §8 scenario 2's `f(1)`/`f("a")`/`f(1.0)` case) — walking
// bd.Previous rather than scanning the whole table, since Previous
// already threads same-name bindings in source order.
func (t *Table) evalFuncDefResolved(bd *binding.Binding, fd *ast.FuncDef) types.Type {
	sig := t.evalFuncDef(fd)
	overloads := t.collectOverloads(bd.Previous)
	if len(overloads) == 0 {
		return sig
	}
	return types.OverloadType{Members: append(overloads, sig)}
}

// collectOverloads walks backward from prev over consecutive
// @overload-decorated FuncDef bindings, returning their signatures in
// declaration order (earliest first).
func (t *Table) collectOverloads(prev *binding.Key) []types.Type {
	var rev []types.Type
	for prev != nil {
		pbd, ok := t.bindings.Get(*prev)
		if !ok {
			break
		}
		pfd, ok := pbd.Stmt.(*ast.FuncDef)
		if !ok || !hasOverloadDecorator(pfd) {
			break
		}
		rev = append(rev, t.evalFuncDef(pfd))
		prev = pbd.Previous
	}
	out := make([]types.Type, len(rev))
	for i, m := range rev {
		out[len(rev)-1-i] = m
	}
	return out
}

func hasOverloadDecorator(fd *ast.FuncDef) bool {
	for _, d := range fd.Decorators {
		switch e := d.Expr.(type) {
		case *ast.Name:
			if e.Value == "overload" {
				return true
			}
		case *ast.Attribute:
			if e.Name == "overload" {
				return true
			}
		}
	}
	return false
}

func (t *Table) evalFuncDef(fd *ast.FuncDef) types.Type {
	params := make([]types.Param, 0, len(fd.Params))
	for _, p := range fd.Params {
		kind := types.ParamPositionalOrKeyword
		switch p.Kind {
		case ast.ParamPositionalOnlyMarker:
			kind = types.ParamPositionalOnly
		case ast.ParamKeywordOnlyMarker:
			kind = types.ParamKeywordOnly
		case ast.ParamVarPositional:
			kind = types.ParamVariadicPositional
		case ast.ParamVarKeyword:
			kind = types.ParamVariadicKeyword
		}
		pt := types.Type(types.AnyType{})
		if p.Annotation != nil {
			pt = t.evalAnnotation(p.Annotation)
		}
		params = append(params, types.Param{Name: p.Name, Kind: kind, Required: p.Default == nil, Type: pt})
	}
	ret := types.Type(types.AnyType{})
	if fd.Returns != nil {
		ret = t.evalAnnotation(fd.Returns)
	}
	sig := types.CallableType{Shape: types.ParamsList, Params: params, ReturnType: ret}
	return types.FunctionType{Signature: sig, Kind: types.FuncPlain, SourceName: fd.Name}
}

func (t *Table) evalClassDef(key binding.Key, cd *ast.ClassDef) types.Type {
	if t.classes != nil {
		if cls, err := t.classes.ClassObjectFor(key); err == nil {
			return types.ClassDef{Class: cls}
		}
	}
	return types.ClassDef{Class: &types.ClassObject{Name: cd.Name, Module: t.Module, QualName: t.Module + "." + cd.Name}}
}
