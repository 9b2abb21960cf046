package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TestMode and LSPMode mirror the teacher's config.IsTestMode/IsLSPMode
// switches (internal/typesystem/types.go's TVar.String()): in either
// mode, unification-variable display is normalized to "t?" so that two
// runs of the solver that allocate variables in a different order still
// print byte-identical solutions (the answer-determinism property, §8).
var (
	TestMode bool
	LSPMode  bool
)

func normalizedVarName(v Var) string {
	if TestMode || LSPMode {
		return "t?"
	}
	return fmt.Sprintf("t%d@%s", v.ID, v.Owner)
}

// String renders t the way the error reporter and the LSP hover handler
// show it to a user: no provenance tags, canonically ordered unions, and
// (per the data-model invariant) a union containing Any absorbs to Any
// only here in display — subtyping elsewhere sees the full union.
func String(t Type) string {
	if t == nil {
		return "<nil>"
	}
	switch v := t.(type) {
	case AnyType:
		return "Any"
	case NeverType:
		return "Never"
	case NoneType:
		return "None"
	case EllipsisType:
		return "..."
	case Literal:
		return displayLiteral(v)
	case LiteralStringType:
		return "LiteralString"
	case ClassType:
		return displayClassType(v)
	case ClassDef:
		return fmt.Sprintf("type[%s]", v.Class.QualName)
	case TypedDictT:
		return displayClassType(ClassType{Class: v.Class, Args: v.Args})
	case TupleType:
		return displayTuple(v)
	case CallableType:
		return displayCallable(v)
	case FunctionType:
		return displayCallable(v.Signature)
	case BoundMethodType:
		return String(v.Method)
	case OverloadType:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = String(m)
		}
		return "Overload[" + strings.Join(parts, ", ") + "]"
	case ForallType:
		names := make([]string, len(v.Params))
		for i, p := range v.Params {
			names[i] = p.Name
		}
		return fmt.Sprintf("[%s](%s)", strings.Join(names, ", "), String(v.Body))
	case QuantifiedType:
		return v.Name
	case TypeVarDecl:
		return v.Name
	case TypeVarTupleDecl:
		return "*" + v.Name
	case ParamSpecType:
		return v.Name
	case UnionType:
		return displayUnion(v)
	case IntersectType:
		parts := displaySorted(v.Members)
		return strings.Join(parts, " & ")
	case TypeOfType:
		return fmt.Sprintf("type[%s]", String(v.Of))
	case TypeAliasType:
		return v.Name
	case ModuleType:
		return fmt.Sprintf("module(%s)", v.Path)
	case GuardType:
		if v.Kind == GuardStrict {
			return fmt.Sprintf("TypeIs[%s]", String(v.Of))
		}
		return fmt.Sprintf("TypeGuard[%s]", String(v.Of))
	case UnpackType:
		return "*" + String(v.Of)
	case ConcatenateType:
		parts := make([]string, len(v.Prefix))
		for i, p := range v.Prefix {
			parts[i] = String(p)
		}
		parts = append(parts, String(v.ParamSpec))
		return "Concatenate[" + strings.Join(parts, ", ") + "]"
	case SpecialFormType:
		return specialFormName(v.Kind)
	case Var:
		return normalizedVarName(v)
	case DecorationType:
		return String(v.Of)
	}
	return fmt.Sprintf("<?%T>", t)
}

func displayLiteral(l Literal) string {
	switch l.Kind {
	case LitInt:
		return fmt.Sprintf("Literal[%d]", l.Value)
	case LitString:
		return fmt.Sprintf("Literal[%s]", strconv.Quote(fmt.Sprint(l.Value)))
	case LitBytes:
		return fmt.Sprintf("Literal[b%s]", strconv.Quote(string(l.Value.([]byte))))
	case LitBool:
		if b, _ := l.Value.(bool); b {
			return "Literal[True]"
		}
		return "Literal[False]"
	case LitEnumMember:
		return fmt.Sprintf("Literal[%s.%s]", l.EnumClass.QualName, l.EnumMember)
	}
	return "Literal[?]"
}

func displayClassType(c ClassType) string {
	if len(c.Args) == 0 {
		return c.Class.QualName
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = String(a)
	}
	return fmt.Sprintf("%s[%s]", c.Class.QualName, strings.Join(parts, ", "))
}

func displayTuple(t TupleType) string {
	switch t.Kind {
	case TupleConcrete:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = String(e)
		}
		if len(parts) == 0 {
			return "tuple[()]"
		}
		return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
	case TupleUnbounded:
		return fmt.Sprintf("tuple[%s, ...]", String(t.Element))
	case TupleUnpacked:
		parts := make([]string, 0, len(t.Prefix)+len(t.Suffix)+1)
		for _, e := range t.Prefix {
			parts = append(parts, String(e))
		}
		if t.Middle != nil {
			parts = append(parts, "*"+String(t.Middle))
		}
		for _, e := range t.Suffix {
			parts = append(parts, String(e))
		}
		return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
	}
	return "tuple[?]"
}

func displayCallable(c CallableType) string {
	var params string
	switch c.Shape {
	case ParamsEllipsis:
		params = "..."
	case ParamsSpec:
		if c.ParamSpec != nil {
			params = c.ParamSpec.Name
		}
	case ParamsConcatenate:
		parts := make([]string, len(c.Params))
		for i, p := range c.Params {
			parts[i] = displayParam(p)
		}
		if c.ParamSpec != nil {
			parts = append(parts, c.ParamSpec.Name)
		}
		params = strings.Join(parts, ", ")
	default:
		parts := make([]string, len(c.Params))
		for i, p := range c.Params {
			parts[i] = displayParam(p)
		}
		params = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("(%s) -> %s", params, String(c.ReturnType))
}

func displayParam(p Param) string {
	prefix := ""
	switch p.Kind {
	case ParamVariadicPositional:
		prefix = "*"
	case ParamVariadicKeyword:
		prefix = "**"
	}
	name := prefix + p.Name
	if p.Type != nil {
		name += ": " + String(p.Type)
	}
	if !p.Required {
		name += " = ..."
	}
	return name
}

func displaySorted(ts []Type) []string {
	parts := make([]string, len(ts))
	for i, m := range ts {
		parts[i] = String(m)
	}
	sort.Strings(parts)
	return parts
}

// displayUnion implements the "Any absorbs only in display" rule and
// canonical member ordering (sorted by printed form) so Display is
// deterministic regardless of construction order.
func displayUnion(u UnionType) string {
	for _, m := range u.Members {
		if _, ok := m.(AnyType); ok {
			return "Any"
		}
	}
	return strings.Join(displaySorted(u.Members), " | ")
}

func specialFormName(k SpecialFormKind) string {
	switch k {
	case FormUnion:
		return "Union"
	case FormOptional:
		return "Optional"
	case FormLiteral:
		return "Literal"
	case FormTuple:
		return "Tuple"
	case FormCallable:
		return "Callable"
	case FormAnnotated:
		return "Annotated"
	case FormTypeGuard:
		return "TypeGuard"
	case FormTypeIs:
		return "TypeIs"
	case FormUnpack:
		return "Unpack"
	case FormConcatenate:
		return "Concatenate"
	case FormType:
		return "Type"
	case FormProtocol:
		return "Protocol"
	case FormTypedDict:
		return "TypedDict"
	case FormFinal:
		return "Final"
	case FormClassVar:
		return "ClassVar"
	case FormGeneric:
		return "Generic"
	case FormNewType:
		return "NewType"
	case FormNamedTuple:
		return "NamedTuple"
	}
	return "SpecialForm"
}

func (t AnyType) String() string           { return String(t) }
func (t NeverType) String() string         { return String(t) }
func (t NoneType) String() string          { return String(t) }
func (t EllipsisType) String() string      { return String(t) }
func (t Literal) String() string           { return String(t) }
func (t LiteralStringType) String() string { return String(t) }
func (t ClassType) String() string         { return String(t) }
func (t ClassDef) String() string          { return String(t) }
func (t TypedDictT) String() string        { return String(t) }
func (t TupleType) String() string         { return String(t) }
func (t CallableType) String() string      { return String(t) }
func (t FunctionType) String() string      { return String(t) }
func (t BoundMethodType) String() string   { return String(t) }
func (t OverloadType) String() string      { return String(t) }
func (t ForallType) String() string        { return String(t) }
func (t QuantifiedType) String() string    { return String(t) }
func (t TypeVarDecl) String() string       { return String(t) }
func (t TypeVarTupleDecl) String() string  { return String(t) }
func (t ParamSpecType) String() string     { return String(t) }
func (t UnionType) String() string         { return String(t) }
func (t IntersectType) String() string     { return String(t) }
func (t TypeOfType) String() string        { return String(t) }
func (t TypeAliasType) String() string     { return String(t) }
func (t ModuleType) String() string        { return String(t) }
func (t GuardType) String() string         { return String(t) }
func (t UnpackType) String() string        { return String(t) }
func (t ConcatenateType) String() string   { return String(t) }
func (t SpecialFormType) String() string   { return String(t) }
func (t Var) String() string               { return String(t) }
func (t DecorationType) String() string    { return String(t) }
