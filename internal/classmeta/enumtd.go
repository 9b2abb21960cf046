package classmeta

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/types"
)

// classFlavorBase recognizes the class-form special bases spec §4.5 calls
// out alongside Protocol/Generic: Enum (and its stdlib siblings), NamedTuple,
// TypedDict. Only the class form's base list is examined; functional forms
// (`Point = NamedTuple("Point", [...])`, `Color = Enum("Color", ["RED",
// "GREEN"])`) are not recognized anywhere and get no synthesis.
func classFlavorBase(name string) (Flavor, bool) {
	switch name {
	case "Enum", "IntEnum", "StrEnum", "Flag", "IntFlag":
		return FlavorEnum, true
	case "NamedTuple":
		return FlavorNamedTuple, true
	case "TypedDict":
		return FlavorTypedDict, true
	default:
		return FlavorPlain, false
	}
}

// synthesizeEnum implements spec §4.5's enum synthesis: every own field
// that isn't a method, dunder, or ClassVar becomes an enum member typed as
// a Literal[EnumMember] naming this class, per the "class-body assignments
// become member literals" rule functional Enum() calls follow too.
func (t *Table) synthesizeEnum(meta *Meta) {
	for _, name := range meta.FieldOrder {
		f := meta.Fields[name]
		if f.Decoration != nil || f.ClassVar {
			continue
		}
		if _, isMethod := f.Type.(types.FunctionType); isMethod {
			continue
		}
		if isDunder(name) {
			continue
		}
		f.Type = types.Literal{Kind: types.LitEnumMember, EnumClass: meta.Class, EnumMember: name}
		f.ReadOnly = true
	}
}

// synthesizeNamedTuple implements the class-form NamedTuple synthesis spec
// §4.5 groups with dataclass synthesis: an __init__ and __match_args__ over
// the class's own non-method fields, in declaration order (an unannotated
// class-level assignment counts as a field too). Unlike a
// dataclass, a NamedTuple's fields are never inherited from another
// NamedTuple base, so this walks meta's own FieldOrder only.
func (t *Table) synthesizeNamedTuple(cd *ast.ClassDef, meta *Meta) {
	var params []types.Param
	var matchArgs []string
	params = append(params, types.Param{Name: "self", Kind: types.ParamPositionalOrKeyword, Required: true, Type: types.ClassType{Class: meta.Class}})
	for _, name := range meta.FieldOrder {
		f := meta.Fields[name]
		if f.Decoration != nil || isDunder(name) {
			continue
		}
		if _, isMethod := f.Type.(types.FunctionType); isMethod {
			continue
		}
		params = append(params, types.Param{Name: name, Kind: types.ParamPositionalOrKeyword, Required: !f.HasDefault, Type: f.Type})
		matchArgs = append(matchArgs, name)
	}

	meta.addField("__init__", &Field{
		Origin: meta.Class,
		Type: types.FunctionType{
			Signature:  types.CallableType{Shape: types.ParamsList, Params: params, ReturnType: types.NoneType{}},
			Kind:       types.FuncPlain,
			SourceName: "__init__",
		},
	})

	elems := make([]types.Type, len(matchArgs))
	for i, n := range matchArgs {
		elems[i] = types.Literal{Kind: types.LitString, Value: n}
	}
	meta.addField("__match_args__", &Field{
		Origin: meta.Class,
		Type:   types.TupleType{Kind: types.TupleConcrete, Elements: elems},
	})
}

// markTypedDictFields applies spec's TypedDict required/read-only rules to
// already-gathered fields: every field is required unless the class carries
// `total=False` (tracked via meta.Keywords). NotRequired/Required/ReadOnly
// wrappers are not recognized: internal/answers' EvalAnnotation has no
// case for those special forms, so requiredness follows `total` alone.
func (t *Table) markTypedDictFields(meta *Meta) {
	total := true
	if tv, ok := meta.Keywords["total"]; ok {
		if lit, ok := tv.(types.Literal); ok && lit.Kind == types.LitBool {
			if b, ok := lit.Value.(bool); ok {
				total = b
			}
		}
	}
	for _, name := range meta.FieldOrder {
		f := meta.Fields[name]
		if f.Decoration != nil || isDunder(name) {
			continue
		}
		if !total {
			f.HasDefault = true // not required
		}
	}
}

func isDunder(name string) bool {
	return len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__"
}
