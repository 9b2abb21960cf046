// Package unify implements the subtype relation is_subset_eq (spec §4.3):
// fuel-bounded recursion, co-inductive cycle detection for recursive
// classes, variance-aware class-type-argument comparison, and structural
// checks for protocols, TypedDicts, tuples, and callables.
//
// Grounded on the teacher's internal/typesystem/unify.go: unifyInternal's
// visited-pair co-induction list and its TCon-unwrapping directionality
// fix are kept; strict equality (Unify) becomes one-directional subtyping
// here since the checked language's assignability is not symmetric.
package unify

import (
	"fmt"

	"github.com/oxhq/pyrechk/internal/types"
)

// DefaultFuel bounds worst-case recursion through adversarial recursive
// generics; exceeding it reports failure rather than looping forever, the
// same trade spec §4.3 and §5 make for the solver at large.
const DefaultFuel = 2000

// ClassResolver looks up ancestry and structural members for ClassType
// values that unify cannot itself introspect — binding/classmeta own
// that data.
type ClassResolver interface {
	// Ancestors returns cls's MRO, cls itself first.
	Ancestors(cls *types.ClassObject) []*types.ClassObject
	// IsProtocol reports whether cls was declared with Protocol as a base.
	IsProtocol(cls *types.ClassObject) bool
	// Member returns the type of name as it would be looked up on an
	// instance of cls, or (nil, false) if cls (or its ancestors) doesn't
	// define it — used for protocol structural matching.
	Member(cls *types.ClassObject, name string) (types.Type, bool)
	// ProtocolMembers lists the member names a protocol class requires.
	ProtocolMembers(cls *types.ClassObject) []string
}

type pair struct{ a, b types.Type }

type state struct {
	fuel      int
	visited   []pair
	resolver  ClassResolver
	store     *Store
	unionMode bool
}

// IsSubsetEq reports whether a is assignable where b is expected — "a is
// a subset of b" in spec §4.3's terms (e.g. is_subset_eq(int, int|str)).
// It never forces a unification variable; use IsSubsetEqVars from a
// context that owns a Store (the answers solver) when variables may
// appear in either operand.
func IsSubsetEq(a, b types.Type, resolver ClassResolver) bool {
	st := &state{fuel: DefaultFuel, resolver: resolver}
	return st.subset(a, b)
}

// IsSubsetEqVars is IsSubsetEq extended with variable forcing: an
// eligible unbound variable on either side is bound to the other side's
// type rather than causing the check to fail (spec §4.4 "Variables").
func IsSubsetEqVars(a, b types.Type, resolver ClassResolver, store *Store) bool {
	st := &state{fuel: DefaultFuel, resolver: resolver, store: store}
	return st.subset(a, b)
}

func (st *state) outOfFuel() bool {
	if st.fuel <= 0 {
		return true
	}
	st.fuel--
	return false
}

func (st *state) seen(a, b types.Type) bool {
	for _, p := range st.visited {
		if types.Equal(p.a, a) && types.Equal(p.b, b) {
			return true
		}
	}
	return false
}

// subset is the co-inductive core: a recursive class pair already on the
// stack is assumed compatible (the same trick the teacher's unifyInternal
// uses via its visited list), and each call spends one unit of fuel so a
// pathological generic can't recurse forever.
func (st *state) subset(a, b types.Type) bool {
	if st.outOfFuel() {
		return false
	}
	if types.Equal(a, b) {
		return true
	}
	if st.seen(a, b) {
		return true
	}
	st.visited = append(st.visited, pair{a, b})
	defer func() { st.visited = st.visited[:len(st.visited)-1] }()

	switch bt := b.(type) {
	case types.AnyType:
		return true
	case types.UnionType:
		prevUnion := st.unionMode
		st.unionMode = true
		defer func() { st.unionMode = prevUnion }()
		for _, m := range bt.Members {
			if st.subset(a, m) {
				return true
			}
		}
		return false
	}

	switch at := a.(type) {
	case types.NeverType:
		return true
	case types.AnyType:
		return true
	case types.UnionType:
		prevUnion := st.unionMode
		st.unionMode = true
		defer func() { st.unionMode = prevUnion }()
		for _, m := range at.Members {
			if !st.subset(m, b) {
				return false
			}
		}
		return true
	}

	if bc, ok := b.(types.ClassType); ok && bc.Class != nil && bc.Class.Name == "object" && bc.Class.Module == "builtins" {
		return true
	}

	if st.store != nil {
		if av, ok := a.(types.Var); ok {
			if bound, ok := st.store.Lookup(av); ok {
				return st.subset(bound, b)
			}
			if st.store.eligible(av, st.unionMode) {
				st.store.Bind(av, b)
				return true
			}
		}
		if bv, ok := b.(types.Var); ok {
			if bound, ok := st.store.Lookup(bv); ok {
				return st.subset(a, bound)
			}
			if st.store.eligible(bv, st.unionMode) {
				st.store.Bind(bv, a)
				return true
			}
		}
	}

	switch bt := b.(type) {
	case types.IntersectType:
		for _, m := range bt.Members {
			if !st.subset(a, m) {
				return false
			}
		}
		return true
	case types.OverloadType:
		// Overload on the right: a must satisfy every member's signature.
		for _, m := range bt.Members {
			if !st.subset(a, m) {
				return false
			}
		}
		return true
	}

	switch at := a.(type) {
	case types.IntersectType:
		// Intersect on the left: some member satisfying b is enough.
		for _, m := range at.Members {
			if st.subset(m, b) {
				return true
			}
		}
		return false
	case types.OverloadType:
		// Overload on the left: some member satisfying b is enough.
		for _, m := range at.Members {
			if st.subset(m, b) {
				return true
			}
		}
		return false
	}

	switch at := a.(type) {
	case types.Literal:
		if bl, ok := b.(types.Literal); ok {
			return at.Kind == bl.Kind && at.Value == bl.Value
		}
	case types.NoneType:
		_, ok := b.(types.NoneType)
		return ok
	case types.TupleType:
		bt, ok := b.(types.TupleType)
		if !ok {
			return false
		}
		return st.subsetTuple(at, bt)
	case types.CallableType:
		bt, ok := b.(types.CallableType)
		if !ok {
			return false
		}
		return st.subsetCallable(at, bt)
	case types.TypedDictT:
		bt, ok := b.(types.TypedDictT)
		if !ok {
			return false
		}
		return st.subsetTypedDict(at, bt)
	case types.ClassType:
		return st.subsetClass(at, b)
	}

	return false
}

// subsetClass handles nominal subtyping (ancestry walk) and, when b names
// a protocol, structural matching instead (spec §3's "structural
// protocols" note).
func (st *state) subsetClass(a types.ClassType, b types.Type) bool {
	bt, ok := b.(types.ClassType)
	if !ok {
		return false
	}
	if st.resolver == nil || a.Class == nil || bt.Class == nil {
		return a.Class == bt.Class
	}
	if st.resolver.IsProtocol(bt.Class) {
		return st.satisfiesProtocol(a, bt)
	}
	for _, anc := range st.resolver.Ancestors(a.Class) {
		if anc == bt.Class {
			return st.subsetArgs(a, bt, anc)
		}
	}
	return false
}

func (st *state) satisfiesProtocol(a types.ClassType, proto types.ClassType) bool {
	for _, name := range st.resolver.ProtocolMembers(proto.Class) {
		am, ok := st.resolver.Member(a.Class, name)
		if !ok {
			return false
		}
		pm, ok := st.resolver.Member(proto.Class, name)
		if !ok {
			continue
		}
		if !st.subset(am, pm) {
			return false
		}
	}
	return true
}

// subsetArgs compares class type arguments according to each type
// parameter's declared variance once a itself (or an ancestor sharing
// anc's identity) is known to be a subtype of b nominally.
func (st *state) subsetArgs(a, b types.ClassType, anc *types.ClassObject) bool {
	if len(a.Args) != len(b.Args) {
		return len(a.Args) == 0 || len(b.Args) == 0
	}
	for i := range a.Args {
		v := types.Invariant
		if anc != nil && i < len(anc.Params) {
			v = anc.Params[i].Variance
		}
		switch v {
		case types.Covariant:
			if !st.subset(a.Args[i], b.Args[i]) {
				return false
			}
		case types.Contravariant:
			if !st.subset(b.Args[i], a.Args[i]) {
				return false
			}
		default:
			if !types.Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
	}
	return true
}

// tupleElements flattens a TupleType's shape into the concrete element
// types it is known to contain; an unpacked middle contributes nothing
// concrete and is handled by the unbounded/length checks in subsetTuple.
func tupleElements(t types.TupleType) []types.Type {
	switch t.Kind {
	case types.TupleConcrete:
		return t.Elements
	case types.TupleUnpacked:
		all := append([]types.Type{}, t.Prefix...)
		return append(all, t.Suffix...)
	default:
		return nil
	}
}

func (st *state) subsetTuple(a, b types.TupleType) bool {
	if b.Kind == types.TupleUnbounded {
		for _, e := range tupleElements(a) {
			if !st.subset(e, b.Element) {
				return false
			}
		}
		if a.Kind == types.TupleUnbounded {
			return st.subset(a.Element, b.Element)
		}
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	ae, be := tupleElements(a), tupleElements(b)
	if len(ae) != len(be) {
		return false
	}
	for i := range ae {
		if !st.subset(ae[i], be[i]) {
			return false
		}
	}
	if a.Kind == types.TupleUnpacked {
		return st.subset(a.Middle, b.Middle)
	}
	return true
}

// subsetCallable applies contravariant parameter checking and covariant
// return checking — spec §4.3's "function subtyping" rule.
func (st *state) subsetCallable(a, b types.CallableType) bool {
	if b.Shape == types.ParamsEllipsis {
		return st.subset(a.ReturnType, b.ReturnType)
	}
	if a.Shape != types.ParamsList || b.Shape != types.ParamsList {
		return st.subset(a.ReturnType, b.ReturnType)
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if b.Params[i].Required && !a.Params[i].Required {
			return false
		}
		if !st.subset(b.Params[i].Type, a.Params[i].Type) {
			return false
		}
	}
	return st.subset(a.ReturnType, b.ReturnType)
}

// subsetTypedDict requires every required key of b to be present and
// assignable in a (width subtyping, no new required keys may appear).
func (st *state) subsetTypedDict(a, b types.TypedDictT) bool {
	for name, bf := range b.Fields {
		af, ok := a.Fields[name]
		if !ok {
			if bf.Required {
				return false
			}
			continue
		}
		if bf.Required && !af.Required {
			return false
		}
		if !st.subset(af.Type, bf.Type) {
			return false
		}
	}
	return true
}

// Join computes the least upper bound of two types for spec §4.2's
// narrowing-merge and branch-join operations.
func Join(a, b types.Type) types.Type {
	if types.Equal(a, b) {
		return a
	}
	return types.Canonicalize(a, b)
}

// Err is returned by call sites that want a descriptive subtype failure
// rather than a bare bool (e.g. internal/answers's argument checking).
type Err struct {
	Got, Want types.Type
}

func (e *Err) Error() string {
	return fmt.Sprintf("%s is not assignable to %s", types.String(e.Got), types.String(e.Want))
}

// Check returns nil if a is assignable to b, or an *Err describing the
// mismatch otherwise.
func Check(a, b types.Type, resolver ClassResolver) error {
	if IsSubsetEq(a, b, resolver) {
		return nil
	}
	return &Err{Got: a, Want: b}
}
