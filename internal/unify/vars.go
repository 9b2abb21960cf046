package unify

import (
	"fmt"
	"sync"

	"github.com/oxhq/pyrechk/internal/types"
)

// VarKind tags why a unification variable exists, mirroring spec §4.4's
// "Solver state" enumeration (Contained/Quantified/Recursive/Unwrap are
// the pre-bound states; Answer is represented here simply as bound != nil).
type VarKind int

const (
	// VarContained is an inference placeholder, e.g. the element type of
	// a literal `[]` before its first element is seen.
	VarContained VarKind = iota
	// VarQuantified is introduced by instantiating a generic signature or
	// class; it carries an optional default used at finalization if it
	// is never bound.
	VarQuantified
	// VarRecursive ties a recursive definition's knot (§4.3's recursion
	// placeholder for type-valued keys).
	VarRecursive
	// VarUnwrap decomposes a known container, e.g. the element type
	// extracted from a `list[T]` match.
	VarUnwrap
)

type varState struct {
	kind    VarKind
	bound   types.Type // nil until Answer
	forced  bool       // true once observed by a re-entrant get (spec §4.3 step 4)
	dflt    types.Type // VarQuantified's default, used at finalization if never bound
}

// Store owns every unification variable allocated for one module, per
// spec §5's "Unification variables are owned by exactly one module"
// invariant — Bind and Lookup panic with a "variable leak" message if
// asked to operate on a variable from a different Store.
//
// Grounded on the teacher's internal/typesystem (a package-global
// variable counter plus a Subst map); split into a per-module object
// here because the spec makes module-ownership of variables an explicit
// correctness invariant the teacher's single-process compiler never had
// to enforce.
type Store struct {
	mu    sync.Mutex
	owner string
	next  int64
	vars  map[int64]*varState
}

// NewStore creates a variable store owned by the named module.
func NewStore(owner string) *Store {
	return &Store{owner: owner, vars: map[int64]*varState{}}
}

// Fresh allocates a new unification variable of the given kind.
func (s *Store) Fresh(kind VarKind) types.Var {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.vars[s.next] = &varState{kind: kind}
	return types.Var{ID: s.next, Owner: s.owner}
}

// FreshQuantified allocates a quantified placeholder with a finalization
// default, used when instantiating a generic signature whose type
// parameter was never constrained by any argument.
func (s *Store) FreshQuantified(dflt types.Type) types.Var {
	v := s.Fresh(VarQuantified)
	s.mu.Lock()
	s.vars[v.ID].dflt = dflt
	s.mu.Unlock()
	return v
}

func (s *Store) checkOwner(v types.Var) {
	if v.Owner != s.owner {
		panic(fmt.Sprintf("unify: variable leak: var owned by %q touched by store for %q", v.Owner, s.owner))
	}
}

// Lookup returns the variable's bound type, if any.
func (s *Store) Lookup(v types.Var) (types.Type, bool) {
	s.checkOwner(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.vars[v.ID]
	if !ok || vs.bound == nil {
		return nil, false
	}
	return vs.bound, true
}

// Eligible reports whether v may be forced during a subtype check in the
// current mode: contained variables are always eligible; quantified
// variables are eligible only outside union mode (spec §4.4 "Variables").
func (s *Store) eligible(v types.Var, unionMode bool) bool {
	s.checkOwner(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.vars[v.ID]
	if !ok || vs.bound != nil {
		return false
	}
	if unionMode {
		return vs.kind == VarContained
	}
	return vs.kind == VarContained || vs.kind == VarQuantified
}

// Bind sets v's answer directly, used when a subtype check forces an
// eligible variable to the other side of the comparison.
func (s *Store) Bind(v types.Var, t types.Type) {
	s.checkOwner(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[v.ID].bound = t
}

// MarkForced records that a re-entrant get() observed v's placeholder
// while it was still in-progress (spec §4.3 step 4's "if the placeholder
// was observed, record the tie").
func (s *Store) MarkForced(v types.Var) {
	s.checkOwner(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[v.ID].forced = true
}

// WasForced reports whether MarkForced was ever called on v.
func (s *Store) WasForced(v types.Var) bool {
	s.checkOwner(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[v.ID].forced
}

// RecordRecursive sets a recursion placeholder's final answer, stripping
// any self-reference from a union result (spec §4.4 "Recursive
// assignment": `@1 = @1 | int` becomes `@1 = int`). If the variable was
// already forced to something else while solving, the two are compared
// and a mismatch is reported through the returned error.
func (s *Store) RecordRecursive(v types.Var, t types.Type) error {
	s.checkOwner(v)
	stripped := stripSelfReference(v, t)
	s.mu.Lock()
	vs := s.vars[v.ID]
	prior := vs.bound
	vs.bound = stripped
	wasForced := vs.forced
	s.mu.Unlock()
	if wasForced && prior != nil && !types.Equal(prior, stripped) {
		return &Err{Got: stripped, Want: prior}
	}
	return nil
}

func stripSelfReference(v types.Var, t types.Type) types.Type {
	u, ok := t.(types.UnionType)
	if !ok {
		return t
	}
	var kept []types.Type
	for _, m := range u.Members {
		if mv, ok := m.(types.Var); ok && mv.ID == v.ID && mv.Owner == v.Owner {
			continue
		}
		kept = append(kept, m)
	}
	return types.Canonicalize(kept...)
}

// Force follows t through zero or more bound variables, returning the
// first unbound variable or non-variable type reached.
func (s *Store) Force(t types.Type) types.Type {
	for {
		v, ok := t.(types.Var)
		if !ok || v.Owner != s.owner {
			return t
		}
		bound, ok := s.Lookup(v)
		if !ok {
			return t
		}
		t = bound
	}
}

// Finalize replaces every variable occurrence in t by its currently bound
// type, or by its quantified-kind default if it was never bound (spec
// §4.3's "Finalization" deep-forcing pass). Unbound, default-less
// variables degrade to Any so a stuck inference never blocks Display.
func (s *Store) Finalize(t types.Type) types.Type {
	return finalizeVisited(s, t, map[int64]bool{})
}

func finalizeVisited(s *Store, t types.Type, seen map[int64]bool) types.Type {
	if t == nil {
		return t
	}
	if v, ok := t.(types.Var); ok && v.Owner == s.owner {
		if seen[v.ID] {
			return types.AnyType{}
		}
		seen = copyVisited64(seen)
		seen[v.ID] = true
		if bound, ok := s.Lookup(v); ok {
			return finalizeVisited(s, bound, seen)
		}
		s.mu.Lock()
		vs := s.vars[v.ID]
		dflt := vs.dflt
		s.mu.Unlock()
		if dflt != nil {
			return finalizeVisited(s, dflt, seen)
		}
		return types.AnyType{}
	}

	// Not itself a variable: still descend into any composite that might
	// carry one, mirroring types.Apply's structural walk but substituting
	// via this store instead of a name-keyed Subst.
	switch v := t.(type) {
	case types.ClassType:
		return types.ClassType{Class: v.Class, Args: finalizeAll(s, v.Args, seen)}
	case types.TypedDictT:
		fields := make(map[string]types.TypedDictField, len(v.Fields))
		for k, f := range v.Fields {
			f.Type = finalizeVisited(s, f.Type, seen)
			fields[k] = f
		}
		return types.TypedDictT{Class: v.Class, Args: finalizeAll(s, v.Args, seen), Fields: fields}
	case types.TupleType:
		nt := types.TupleType{Kind: v.Kind}
		nt.Elements = finalizeAll(s, v.Elements, seen)
		if v.Element != nil {
			nt.Element = finalizeVisited(s, v.Element, seen)
		}
		nt.Prefix = finalizeAll(s, v.Prefix, seen)
		if v.Middle != nil {
			nt.Middle = finalizeVisited(s, v.Middle, seen)
		}
		nt.Suffix = finalizeAll(s, v.Suffix, seen)
		return types.Simplify(nt)
	case types.CallableType:
		nc := types.CallableType{Shape: v.Shape, ReturnType: finalizeVisited(s, v.ReturnType, seen), ParamSpec: v.ParamSpec}
		nc.Params = make([]types.Param, len(v.Params))
		for i, p := range v.Params {
			np := p
			if p.Type != nil {
				np.Type = finalizeVisited(s, p.Type, seen)
			}
			nc.Params[i] = np
		}
		return nc
	case types.FunctionType:
		sig, _ := finalizeVisited(s, v.Signature, seen).(types.CallableType)
		return types.FunctionType{Signature: sig, Kind: v.Kind, SourceName: v.SourceName}
	case types.BoundMethodType:
		return types.BoundMethodType{Object: finalizeVisited(s, v.Object, seen), Method: finalizeVisited(s, v.Method, seen)}
	case types.OverloadType:
		return types.OverloadType{Members: finalizeAll(s, v.Members, seen)}
	case types.UnionType:
		return types.Canonicalize(finalizeAll(s, v.Members, seen)...)
	case types.IntersectType:
		return types.IntersectType{Members: finalizeAll(s, v.Members, seen)}
	case types.TypeOfType:
		return types.TypeOfType{Of: finalizeVisited(s, v.Of, seen)}
	case types.TypeAliasType:
		return types.TypeAliasType{Name: v.Name, Style: v.Style, Params: v.Params, Body: finalizeVisited(s, v.Body, seen)}
	case types.GuardType:
		return types.GuardType{Kind: v.Kind, Of: finalizeVisited(s, v.Of, seen)}
	case types.UnpackType:
		return types.UnpackType{Of: finalizeVisited(s, v.Of, seen)}
	case types.ConcatenateType:
		return types.ConcatenateType{Prefix: finalizeAll(s, v.Prefix, seen), ParamSpec: finalizeVisited(s, v.ParamSpec, seen)}
	case types.DecorationType:
		return types.DecorationType{Kind: v.Kind, Of: finalizeVisited(s, v.Of, seen)}
	default:
		// Any, Never, None, Ellipsis, Literal, LiteralString, ClassDef,
		// TypeVarDecl, ParamSpecType, TypeVarTupleDecl, QuantifiedType,
		// ForallType, ModuleType, SpecialFormType, Var owned by another
		// module: nothing further to force.
		return t
	}
}

func finalizeAll(s *Store, ts []types.Type, seen map[int64]bool) []types.Type {
	if ts == nil {
		return nil
	}
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = finalizeVisited(s, t, seen)
	}
	return out
}

func copyVisited64(v map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}
