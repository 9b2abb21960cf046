package classmeta

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/types"
)

// buildMeta fills in meta from cd: resolves the base list, computes the
// MRO, detects dataclass/protocol flavor, and gathers the class's own
// fields (methods, class-level assignments, promoted self-attributes).
func (t *Table) buildMeta(key binding.Key, cd *ast.ClassDef, meta *Meta) {
	var bases []*types.ClassObject
	sawProtocol := false
	classFlavor, hasClassFlavor := FlavorPlain, false
	for _, baseExpr := range cd.Bases {
		if _, kind, ok := specialBase(baseExpr); ok {
			if kind == types.FormProtocol {
				sawProtocol = true
			}
			continue
		}
		if n, ok := baseExpr.(*ast.Name); ok {
			if fl, ok := classFlavorBase(n.Value); ok {
				classFlavor, hasClassFlavor = fl, true
				continue
			}
		}
		cls := t.resolveBaseRef(baseExpr)
		if cls == nil {
			continue
		}
		bases = append(bases, cls)
	}
	meta.Bases = bases

	for _, kw := range cd.Keywords {
		if t.answers != nil {
			meta.Keywords[kw.Name] = t.answers.EvalExpr(kw.Value)
		}
	}

	if sawProtocol {
		meta.Flavor = FlavorProtocol
	}
	if hasDecorator(cd.Decorators, "dataclass") {
		meta.Flavor = FlavorDataclass
	}
	if hasClassFlavor {
		meta.Flavor = classFlavor
	}

	mro, ok := linearize(meta.Class, bases, func(c *types.ClassObject) []*types.ClassObject {
		if m, found := t.metaOf(c); found {
			if m.resolving {
				return nil // cycle: treat as a leaf, caught by MROFailed below
			}
			return m.MRO
		}
		return nil
	})
	cyclic := false
	for _, b := range bases {
		if m, found := t.metaOf(b); found && (m.resolving || m.MROFailed) {
			cyclic = true
		}
	}
	if !ok || cyclic {
		meta.MROFailed = true
		meta.MRO = nil
		t.reportInvalidInheritance(cd)
	} else {
		meta.MRO = mro
	}

	t.gatherOwnFields(cd, meta)

	switch meta.Flavor {
	case FlavorDataclass:
		t.synthesizeDataclass(cd, meta)
	case FlavorEnum:
		t.synthesizeEnum(meta)
	case FlavorNamedTuple:
		t.synthesizeNamedTuple(cd, meta)
	case FlavorTypedDict:
		t.markTypedDictFields(meta)
	}
}

// specialBase recognizes a base-list entry that names a special form
// rather than an ordinary class (`Protocol`, `Protocol[T]`, `Generic[T]`)
// so it contributes flavor/type-parameter information instead of
// ancestry.
func specialBase(e ast.Expr) (name string, kind types.SpecialFormKind, ok bool) {
	switch n := e.(type) {
	case *ast.Name:
		if n.Value == "Protocol" {
			return n.Value, types.FormProtocol, true
		}
		if n.Value == "Generic" {
			return n.Value, types.FormGeneric, true
		}
	case *ast.Subscript:
		return specialBase(n.X)
	}
	return "", 0, false
}

func (t *Table) resolveBaseRef(e ast.Expr) *types.ClassObject {
	switch n := e.(type) {
	case *ast.Name:
		key, ok := t.bindings.Latest(n.Value)
		if !ok {
			return nil
		}
		cls, err := t.ClassObjectFor(*key)
		if err != nil {
			return nil
		}
		return cls
	case *ast.Subscript:
		return t.resolveBaseRef(n.X)
	default:
		return nil
	}
}

// keyForNode finds the binding key of the given kind whose Node is
// exactly node, by identity. gatherOwnFields uses this instead of
// binding.Table.Latest(name) because Latest resolves by name across the
// whole flat table — two same-named methods in different classes would
// otherwise collide.
func keyForNode(bindings *binding.Table, kind binding.KeyKind, node ast.Node) (*binding.Key, bool) {
	for _, b := range bindings.All() {
		if b.Key.Kind == kind && b.Key.Node == node {
			k := b.Key
			return &k, true
		}
	}
	return nil, false
}

func hasDecorator(decs []ast.Decorator, name string) bool {
	for _, d := range decs {
		switch e := d.Expr.(type) {
		case *ast.Name:
			if e.Value == name {
				return true
			}
		case *ast.Call:
			if n, ok := e.Func.(*ast.Name); ok && n.Value == name {
				return true
			}
		case *ast.Attribute:
			if e.Name == name {
				return true
			}
		}
	}
	return false
}


// gatherOwnFields walks cd.Body's top-level methods and assignments, plus
// every `self.x = ...` found in method bodies, building meta.Fields.
// Descriptor decorators (classmethod/staticmethod/property, a property's
// `.setter`, and override) are recorded on the Field's Decoration, not
// wrapped into the member's type, so attribute lookup (resolver.go) can
// apply spec §4.5's descriptor-handling rules.
func (t *Table) gatherOwnFields(cd *ast.ClassDef, meta *Meta) {
	selfName := "self"
	for _, stmt := range cd.Body {
		switch n := stmt.(type) {
		case *ast.FuncDef:
			if len(n.Params) > 0 {
				selfName = n.Params[0].Name
			}
			ft := types.Type(types.AnyType{})
			if t.answers != nil {
				if key, ok := keyForNode(t.bindings, binding.KeyFunctionDef, n); ok {
					if v, err := t.answers.Get(*key); err == nil {
						ft = v
					}
				}
			}
			f := &Field{Type: ft, Origin: meta.Class}
			for _, d := range n.Decorators {
				switch e := d.Expr.(type) {
				case *ast.Name:
					switch e.Value {
					case "classmethod":
						k := types.DecoClassMethod
						f.Decoration = &k
					case "staticmethod":
						k := types.DecoStaticMethod
						f.Decoration = &k
					case "property":
						k := types.DecoPropertyGetter
						f.Decoration = &k
					case "override":
						k := types.DecoOverride
						f.Decoration = &k
					}
				case *ast.Attribute:
					if e.Name == "setter" {
						if recv, ok := e.X.(*ast.Name); ok && recv.Value == n.Name {
							k := types.DecoPropertySetter
							f.Decoration = &k
						}
					}
				}
			}
			meta.addField(n.Name, f)
			t.collectSelfAttrs(n.Body, selfName, meta)

		case *ast.Assign:
			for _, target := range n.Targets {
				name, ok := target.(*ast.Name)
				if !ok {
					continue
				}
				ft := types.Type(types.AnyType{})
				if t.answers != nil {
					if n.Annotation != nil {
						ft = t.answers.EvalAnnotation(n.Annotation)
					} else if n.Value != nil {
						ft = t.answers.EvalExpr(n.Value)
					}
				}
				meta.addField(name.Value, &Field{
					Type:       ft,
					Origin:     meta.Class,
					HasDefault: n.Value != nil,
				})
			}
		}
	}
}

// collectSelfAttrs walks one method body for `self.x = ...` assignments,
// adding any name not already defined in the class body as an instance
// field (spec §4.5 self-attribute promotion). Grounded on
// internal/binding/walk.go's bindAttributeTarget, reimplemented locally
// since classmeta works from the raw syntax rather than the binding
// table (which doesn't retain a self-attribute's owning class).
func (t *Table) collectSelfAttrs(body []ast.Stmt, selfName string, meta *Meta) {
	for _, stmt := range body {
		switch n := stmt.(type) {
		case *ast.Assign:
			for _, target := range n.Targets {
				if attr, ok := target.(*ast.Attribute); ok {
					if recv, ok := attr.X.(*ast.Name); ok && recv.Value == selfName {
						if _, exists := meta.Fields[attr.Name]; !exists {
							ft := types.Type(types.AnyType{})
							if t.answers != nil {
								if n.Value != nil {
									ft = t.answers.EvalExpr(n.Value)
								} else if n.Annotation != nil {
									ft = t.answers.EvalAnnotation(n.Annotation)
								}
							}
							meta.addField(attr.Name, &Field{Type: ft, Origin: meta.Class})
						}
					}
				}
			}
		case *ast.If:
			t.collectSelfAttrs(n.Body, selfName, meta)
			t.collectSelfAttrs(n.Orelse, selfName, meta)
		case *ast.While:
			t.collectSelfAttrs(n.Body, selfName, meta)
			t.collectSelfAttrs(n.Orelse, selfName, meta)
		case *ast.For:
			t.collectSelfAttrs(n.Body, selfName, meta)
			t.collectSelfAttrs(n.Orelse, selfName, meta)
		case *ast.With:
			t.collectSelfAttrs(n.Body, selfName, meta)
		case *ast.Try:
			t.collectSelfAttrs(n.Body, selfName, meta)
			for _, h := range n.Handlers {
				t.collectSelfAttrs(h.Body, selfName, meta)
			}
			t.collectSelfAttrs(n.Orelse, selfName, meta)
			t.collectSelfAttrs(n.Finally, selfName, meta)
		}
	}
}

func (t *Table) reportInvalidInheritance(cd *ast.ClassDef) {
	if t.diags == nil {
		return
	}
	r := cd.Range()
	d := diag.New(diag.Range{Path: r.Path, StartLine: r.StartLine, StartColumn: r.StartColumn, EndLine: r.EndLine, EndColumn: r.EndColumn},
		diag.KindInvalidInheritance, "cannot linearize the base classes of %q", cd.Name)
	t.diags.Add(d)
}
