package classmeta

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/types"
)

// synthesizeDataclass adds the members spec §4.5's "Dataclass synthesis"
// describes: __init__ over the fields in MRO order (inherited first),
// __match_args__ as the non-kw-only field names, and __hash__ following
// the eq/frozen/unsafe_hash table. With order=True the four ordering
// methods (__lt__, __le__, __gt__, __ge__) are represented uniformly as
// plain callables rather than one synthesized FuncDef per operator, since
// nothing downstream needs to distinguish their origin from a
// hand-written method of the same name; no __eq__ is synthesized.
func (t *Table) synthesizeDataclass(cd *ast.ClassDef, meta *Meta) {
	opts := dataclassOptions(cd.Decorators)

	fields := t.orderedDataclassFields(meta)
	params := make([]types.Param, 0, len(fields)+1)
	params = append(params, types.Param{Name: "self", Kind: types.ParamPositionalOrKeyword, Required: true, Type: types.ClassType{Class: meta.Class}})
	var matchArgs []string
	for _, df := range fields {
		kind := types.ParamPositionalOrKeyword
		if df.kwOnly {
			kind = types.ParamKeywordOnly
		} else {
			matchArgs = append(matchArgs, df.name)
		}
		params = append(params, types.Param{Name: df.name, Kind: kind, Required: !df.hasDefault, Type: df.field.Type})
		if opts.frozen {
			df.field.ReadOnly = true
		}
	}

	if opts.initArg {
		meta.addField("__init__", &Field{
			Origin: meta.Class,
			Type: types.FunctionType{
				Signature: types.CallableType{Shape: types.ParamsList, Params: params, ReturnType: types.NoneType{}},
				Kind:      types.FuncPlain,
				SourceName: "__init__",
			},
		})
	}

	if opts.matchArgs {
		elems := make([]types.Type, len(matchArgs))
		for i, n := range matchArgs {
			elems[i] = types.Literal{Kind: types.LitString, Value: n}
		}
		meta.addField("__match_args__", &Field{
			Origin: meta.Class,
			Type:   types.TupleType{Kind: types.TupleConcrete, Elements: elems},
		})
	}

	if opts.order {
		cmpSig := types.CallableType{
			Shape: types.ParamsList,
			Params: []types.Param{
				{Name: "self", Kind: types.ParamPositionalOrKeyword, Required: true},
				{Name: "other", Kind: types.ParamPositionalOrKeyword, Required: true, Type: types.AnyType{}},
			},
			ReturnType: boolType(),
		}
		for _, name := range []string{"__lt__", "__le__", "__gt__", "__ge__"} {
			meta.addField(name, &Field{Origin: meta.Class, Type: types.FunctionType{Signature: cmpSig, Kind: types.FuncPlain, SourceName: name}})
		}
	}

	if opts.wantsHash() {
		meta.addField("__hash__", &Field{Origin: meta.Class, Type: types.FunctionType{
			Signature:  types.CallableType{Shape: types.ParamsList, Params: []types.Param{{Name: "self", Kind: types.ParamPositionalOrKeyword, Required: true}}, ReturnType: intType()},
			Kind:       types.FuncPlain,
			SourceName: "__hash__",
		}})
	}
}

func boolType() types.Type { return types.ClassType{Class: &types.ClassObject{Name: "bool", Module: "builtins", QualName: "builtins.bool"}} }
func intType() types.Type  { return types.ClassType{Class: &types.ClassObject{Name: "int", Module: "builtins", QualName: "builtins.int"}} }

type dataclassField struct {
	name       string
	field      *Field
	kwOnly     bool
	hasDefault bool
}

// orderedDataclassFields walks meta's dataclass ancestors from the root
// down (so ancestor fields come first, per spec), then this class's own
// body order, skipping methods. KW_ONLY sentinels are not recognized, so
// every field is positional-or-keyword.
func (t *Table) orderedDataclassFields(meta *Meta) []dataclassField {
	var out []dataclassField
	seen := map[string]bool{}
	kwOnlyFrom := false

	addFrom := func(m *Meta) {
		for _, name := range m.FieldOrder {
			f := m.Fields[name]
			if f.Decoration != nil {
				continue // methods/descriptors are not dataclass fields
			}
			if _, isMethod := f.Type.(types.FunctionType); isMethod {
				continue
			}
			if name == "__init__" || name == "__match_args__" || name == "__hash__" {
				continue
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, dataclassField{name: name, field: f, kwOnly: kwOnlyFrom, hasDefault: f.HasDefault})
		}
	}

	for i := len(meta.MRO) - 1; i >= 0; i-- {
		cls := meta.MRO[i]
		if cls == meta.Class {
			continue
		}
		if m, ok := t.metaOf(cls); ok && m.Flavor == FlavorDataclass {
			addFrom(m)
		}
	}
	addFrom(meta)
	return out
}

type dcOptions struct {
	eq, order, frozen, unsafeHash, matchArgs bool
	initArg                                  bool
}

func (o dcOptions) wantsHash() bool {
	if o.unsafeHash {
		return true
	}
	if o.frozen && o.eq {
		return true
	}
	return false
}

// dataclassOptions reads the @dataclass(...) keyword arguments (or the
// defaults for a bare @dataclass) spec §4.5 names: eq, order, frozen,
// unsafe_hash, match_args, init.
func dataclassOptions(decs []ast.Decorator) dcOptions {
	opts := dcOptions{eq: true, matchArgs: true, initArg: true}
	for _, d := range decs {
		call, ok := d.Expr.(*ast.Call)
		if !ok {
			continue
		}
		if n, ok := call.Func.(*ast.Name); !ok || n.Value != "dataclass" {
			continue
		}
		for _, kw := range call.Keywords {
			val := boolLitValue(kw.Value)
			switch kw.Name {
			case "eq":
				opts.eq = val
			case "order":
				opts.order = val
			case "frozen":
				opts.frozen = val
			case "unsafe_hash":
				opts.unsafeHash = val
			case "match_args":
				opts.matchArgs = val
			case "init":
				opts.initArg = val
			}
		}
	}
	return opts
}

func boolLitValue(e ast.Expr) bool {
	b, ok := e.(*ast.BoolLit)
	return ok && b.Value
}
