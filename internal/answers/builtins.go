package answers

import "github.com/oxhq/pyrechk/internal/types"

// Builtins is the lazily built table of references to well-known
// built-in classes spec §4.6 describes as the standard-library shim:
// the small set the evaluator needs to type literals and common
// expression forms before classmeta resolves a project's own classes.
//
// Grounded on the teacher's internal/analyzer/builtins.go, which seeds a
// comparable fixed table of well-known type constructors ahead of
// running inference over user source.
type Builtins struct {
	Object, Type                               *types.ClassObject
	Int, Float, Complex, Bool, Str, Bytes       *types.ClassObject
	NoneType, EllipsisType                      *types.ClassObject
	List, Dict, Tuple, Set, FrozenSet           *types.ClassObject
	BaseException, BaseExceptionGroup           *types.ClassObject
	Generator, AsyncGenerator, Coroutine        *types.ClassObject
	Iterable, Iterator, Mapping, Slice          *types.ClassObject
	CodeType, TracebackType                     *types.ClassObject
}

func class(name string, params ...types.TypeParam) *types.ClassObject {
	return &types.ClassObject{Name: name, Module: "builtins", QualName: "builtins." + name, Params: params}
}

func invariant(name string) types.TypeParam {
	return types.TypeParam{Name: name, Variance: types.Invariant}
}

func covariant(name string) types.TypeParam {
	return types.TypeParam{Name: name, Variance: types.Covariant}
}

// NewBuiltins constructs the fixed shim table. Bootstrapping the real
// stdlib-backed classes (with their actual method members, for classmeta's
// Member lookups) is the module registry's job (spec §4.6); this table is
// the "bootstrapping placeholder" that answers unblock literal and
// container typing without yet knowing the standard library's on-disk
// definitions.
func NewBuiltins() *Builtins {
	return &Builtins{
		Object:  class("object"),
		Type:    class("type", invariant("T")),
		Int:     class("int"),
		Float:   class("float"),
		Complex: class("complex"),
		Bool:    class("bool"),
		Str:     class("str"),
		Bytes:   class("bytes"),

		NoneType:     class("NoneType"),
		EllipsisType: class("EllipsisType"),

		List:      class("list", invariant("T")),
		Dict:      class("dict", invariant("K"), invariant("V")),
		Tuple:     class("tuple", invariant("T")),
		Set:       class("set", invariant("T")),
		FrozenSet: class("frozenset", covariant("T")),

		BaseException:      class("BaseException"),
		BaseExceptionGroup: class("BaseExceptionGroup", covariant("E")),

		Generator:      class("Generator", covariant("Y"), covariant("S"), covariant("R")),
		AsyncGenerator: class("AsyncGenerator", covariant("Y"), covariant("S")),
		Coroutine:      class("Coroutine", covariant("Y"), covariant("S"), covariant("R")),

		Iterable: class("Iterable", covariant("T")),
		Iterator: class("Iterator", covariant("T")),
		Mapping:  class("Mapping", invariant("K"), covariant("V")),
		Slice:    class("slice"),

		CodeType:       class("CodeType"),
		TracebackType:  class("TracebackType"),
	}
}

func (b *Builtins) classType(c *types.ClassObject, args ...types.Type) types.ClassType {
	return types.ClassType{Class: c, Args: args}
}

func (b *Builtins) IntType() types.Type   { return b.classType(b.Int) }
func (b *Builtins) FloatType() types.Type { return b.classType(b.Float) }
func (b *Builtins) BoolType() types.Type  { return b.classType(b.Bool) }
func (b *Builtins) StrType() types.Type   { return b.classType(b.Str) }
func (b *Builtins) BytesType() types.Type { return b.classType(b.Bytes) }
func (b *Builtins) NoneInstance() types.Type { return types.NoneType{} }

func (b *Builtins) ListOf(elem types.Type) types.Type { return b.classType(b.List, elem) }
func (b *Builtins) SetOf(elem types.Type) types.Type  { return b.classType(b.Set, elem) }
func (b *Builtins) DictOf(k, v types.Type) types.Type { return b.classType(b.Dict, k, v) }
func (b *Builtins) ObjectType() types.Type            { return b.classType(b.Object) }
