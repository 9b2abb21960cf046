// Package types is the data model of the checker: the tagged union of
// type variants described in the specification's data model section, plus
// the traversal, substitution, and display operations every other package
// builds on.
package types

// Type is the interface every type variant implements. Like the teacher's
// typesystem.Type, it stays small: display, substitution, and the two
// traversal hooks every consumer (unify, classmeta, answers) needs.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeVars() []Var
	isType()
}

// Provenance tags why a value carries Any.
type Provenance int

const (
	ProvExplicit Provenance = iota // written by the user, e.g. `x: Any`
	ProvImplicit                   // inferred as Any for lack of information
	ProvError                      // substituted after an error was reported
)

// AnyType is the gradual-typing escape hatch.
type AnyType struct{ Provenance Provenance }

// NeverType is the empty type (bottom).
type NeverType struct{}

// NoneType is the type of the singleton None value.
type NoneType struct{}

// EllipsisType is the type of the `...` literal.
type EllipsisType struct{}

// LiteralKind distinguishes the payload a Literal carries.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitString
	LitBytes
	LitBool
	LitEnumMember
)

// Literal is a literal type, e.g. Literal[1], Literal["a"], Literal[True].
type Literal struct {
	Kind LiteralKind
	// Value holds the Go representation: int64, string, []byte, bool.
	Value any
	// EnumClass/EnumMember are set only when Kind == LitEnumMember.
	EnumClass  *ClassObject
	EnumMember string
}

// LiteralStringType is the LiteralString special form (any string literal,
// or the result of concatenating/formatting literal strings).
type LiteralStringType struct{}

// Variance of a class type parameter, used by the subtype engine when
// comparing ClassType arguments through the inheritance chain.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// TypeParam describes one parameter of a generic class, function, or
// type alias: its name, its kind (plain/TypeVarTuple/ParamSpec), its
// bound/constraints, its declared variance, and its default.
type TypeParam struct {
	Name     string
	Variance Variance
	Bound    Type // nil if unbound
	Default  Type // nil if no default
	IsTuple  bool // TypeVarTuple
	IsParamSpec bool
}

// ClassObject is the shared, identity-compared description of a class:
// the thing ClassType and ClassDef both point at. Class metadata (MRO,
// synthesized fields, ...) is computed lazily by internal/classmeta and
// cached in classmeta's own table, not on this struct, which is owned
// and filled in during binding construction.
type ClassObject struct {
	Name       string
	Module     string
	QualName   string // Module + "." + Name, stable identity for display/comparison
	Params     []TypeParam
	IsProtocol bool
}

// ClassType is a class object applied to type arguments, one per
// parameter of Params (after defaults have filled in missing trailing
// ones, per the data-model invariant on type-argument arity).
type ClassType struct {
	Class *ClassObject
	Args  []Type
}

// ClassDef is the bare class object used as a value ("the class itself",
// e.g. the type of a reference to `SomeClass` rather than an instance).
type ClassDef struct {
	Class *ClassObject
}

// TypedDictField describes one field of a TypedDict's resolved schema.
type TypedDictField struct {
	Type     Type
	Required bool
	ReadOnly bool
}

// TypedDictT is a TypedDict class applied to type arguments, with its
// field map already resolved (required-ness, read-only-ness, type).
type TypedDictT struct {
	Class  *ClassObject
	Args   []Type
	Fields map[string]TypedDictField
}

// TupleKind distinguishes the three tuple shapes the data model allows.
type TupleKind int

const (
	TupleConcrete TupleKind = iota
	TupleUnbounded
	TupleUnpacked
)

// TupleType models Tuple[int, str] (concrete), tuple[int, ...]
// (unbounded), and tuple[int, *Ts, str] (unpacked) uniformly.
type TupleType struct {
	Kind TupleKind

	// Concrete:
	Elements []Type

	// Unbounded:
	Element Type

	// Unpacked:
	Prefix []Type
	Middle Type // the unpacked middle, e.g. a TypeVarTuple or another tuple
	Suffix []Type
}

// ParamKind distinguishes the flavor of one Callable parameter.
type ParamKind int

const (
	ParamPositionalOnly ParamKind = iota
	ParamPositionalOrKeyword
	ParamVariadicPositional
	ParamKeywordOnly
	ParamVariadicKeyword
)

// Param is one parameter of a Callable's explicit parameter list.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
	Type     Type // nil means unannotated / inferred as Any
}

// ParamsShape distinguishes the four ways a Callable can describe its
// parameter list.
type ParamsShape int

const (
	ParamsList        ParamsShape = iota // an ordered []Param
	ParamsEllipsis                       // "..." — any signature
	ParamsSpec                           // a bare ParamSpec application
	ParamsConcatenate                    // Concatenate[prefix..., P]
)

// CallableType is a function signature.
type CallableType struct {
	Shape      ParamsShape
	Params     []Param          // valid when Shape == ParamsList or ParamsConcatenate (prefix)
	ParamSpec  *ParamSpecType   // valid when Shape == ParamsSpec or ParamsConcatenate
	ReturnType Type
}

// FunctionKind tags a Function type with the special role its source
// definition plays, so later passes can recognize it without re-walking
// syntax (e.g. a dataclass field() factory, a classmethod).
type FunctionKind int

const (
	FuncPlain FunctionKind = iota
	FuncClassMethod
	FuncStaticMethod
	FuncProperty
	FuncFieldFactory
	FuncOverloadImpl
)

// FunctionType is a CallableType plus metadata used to recognize special
// callables during class-metadata synthesis and descriptor handling.
type FunctionType struct {
	Signature  CallableType
	Kind       FunctionKind
	SourceName string
}

// BoundMethodType is an object bound to a callable; calling it drops the
// callable's first parameter.
type BoundMethodType struct {
	Object Type
	Method Type // a CallableType, FunctionType, or OverloadType
}

// OverloadType is a non-empty ordered list of callable-typed members
// sharing one implementation; call resolution tries them in order.
type OverloadType struct {
	Members []Type // each a CallableType or FunctionType
}

// ForallType quantifies a body type over a list of type parameters; the
// body contains QuantifiedType references to those parameters.
type ForallType struct {
	Params []TypeParam
	Body   Type
}

// QuantifiedType is a placeholder bound by an enclosing ForallType or
// class; substitution replaces it, it is never itself a free variable.
type QuantifiedType struct {
	Name string
}

// TypeVarDecl is the first-class value produced by `T = TypeVar("T")`
// (legacy) or a PEP 695 `[T]` declaration.
type TypeVarDecl struct {
	Name     string
	Bound    Type
	Variance Variance
	Default  Type
}

// TypeVarTupleDecl is the first-class value of a TypeVarTuple declaration.
type TypeVarTupleDecl struct {
	Name string
}

// ParamSpecType is the first-class value of a ParamSpec declaration.
type ParamSpecType struct {
	Name string
}

// UnionType is an unordered, deduplicated, flattened set of alternatives.
// A union of one element never exists as a UnionType (it is canonicalized
// down to that element before construction — see Canonicalize in union.go).
type UnionType struct {
	Members []Type
}

// IntersectType is an unordered set of types all of which must hold.
type IntersectType struct {
	Members []Type
}

// TypeOfType is Type(t): the runtime class object of t, e.g. the type of
// the expression `int` is TypeOfType{Of: ClassType{int}}.
type TypeOfType struct {
	Of Type
}

// AliasStyle distinguishes how a TypeAlias was declared.
type AliasStyle int

const (
	AliasScoped         AliasStyle = iota // `type X[T] = ...` (PEP 695)
	AliasLegacyExplicit                   // `X: TypeAlias = ...`
	AliasLegacyImplicit                   // `X = int | str` inferred as an alias
)

// TypeAliasType is a named wrapper around a body type.
type TypeAliasType struct {
	Name   string
	Style  AliasStyle
	Params []TypeParam // non-empty only for scoped aliases with parameters
	Body   Type
}

// ModuleType is the type of a module object: a dotted path plus the set
// of submodule names brought into scope by `import a.b.c`.
type ModuleType struct {
	Path       string
	Submodules map[string]bool
}

// GuardKind distinguishes TypeGuard from TypeIs return annotations.
type GuardKind int

const (
	GuardNarrowing GuardKind = iota // TypeGuard[T]: narrows only the true branch
	GuardStrict                     // TypeIs[T]: narrows both branches
)

// GuardType is a function's declared narrowing return type.
type GuardType struct {
	Kind GuardKind
	Of   Type
}

// UnpackType is `*Ts` / `Unpack[Ts]`, a building block inside tuple and
// parameter-list positions.
type UnpackType struct {
	Of Type
}

// ConcatenateType is `Concatenate[X, Y, P]`: a fixed prefix followed by a
// ParamSpec application.
type ConcatenateType struct {
	Prefix    []Type
	ParamSpec Type // a ParamSpecType or Var resolving to one
}

// SpecialFormKind enumerates the library-declared placeholder constructs.
type SpecialFormKind int

const (
	FormUnion SpecialFormKind = iota
	FormOptional
	FormLiteral
	FormTuple
	FormCallable
	FormAnnotated
	FormTypeGuard
	FormTypeIs
	FormUnpack
	FormConcatenate
	FormType
	FormProtocol
	FormTypedDict
	FormFinal
	FormClassVar
	FormGeneric
	FormNewType
	FormNamedTuple
)

// SpecialFormType is an unapplied reference to one of the above, e.g. the
// type of a bare reference to `typing.Union` before it is subscripted.
type SpecialFormType struct {
	Kind SpecialFormKind
}

// Var is a unification variable. See internal/unify for the store that
// owns these; Var here only carries enough identity for display,
// substitution, and the cross-module leak check (§5) via Owner.
type Var struct {
	ID    int64
	Owner string // the module that allocated this variable
}

// DecorationKind tags a decorator effect recorded on a class member.
type DecorationKind int

const (
	DecoClassMethod DecorationKind = iota
	DecoStaticMethod
	DecoPropertyGetter
	DecoPropertySetter
	DecoOverride
)

// DecorationType marks a member's type as carrying a decorator effect.
// No checker stage constructs one: classmeta records a member's
// decorator on its Field.Decoration instead.
type DecorationType struct {
	Kind DecorationKind
	Of   Type
}

func (AnyType) isType()           {}
func (NeverType) isType()         {}
func (NoneType) isType()          {}
func (EllipsisType) isType()      {}
func (Literal) isType()           {}
func (LiteralStringType) isType() {}
func (ClassType) isType()         {}
func (ClassDef) isType()          {}
func (TypedDictT) isType()        {}
func (TupleType) isType()         {}
func (CallableType) isType()      {}
func (FunctionType) isType()      {}
func (BoundMethodType) isType()   {}
func (OverloadType) isType()      {}
func (ForallType) isType()        {}
func (QuantifiedType) isType()    {}
func (TypeVarDecl) isType()       {}
func (TypeVarTupleDecl) isType()  {}
func (ParamSpecType) isType()     {}
func (UnionType) isType()         {}
func (IntersectType) isType()     {}
func (TypeOfType) isType()        {}
func (TypeAliasType) isType()     {}
func (ModuleType) isType()        {}
func (GuardType) isType()         {}
func (UnpackType) isType()        {}
func (ConcatenateType) isType()   {}
func (SpecialFormType) isType()   {}
func (Var) isType()               {}
func (DecorationType) isType()    {}
