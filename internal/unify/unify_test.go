package unify

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/types"
)

func intType() types.Type  { return types.ClassType{Class: &types.ClassObject{Name: "int"}} }
func strType() types.Type  { return types.ClassType{Class: &types.ClassObject{Name: "str"}} }
func anyType() types.Type  { return types.AnyType{} }
func neverType() types.Type { return types.NeverType{} }

func TestIntSubsetUnion(t *testing.T) {
	u := types.UnionType{Members: []types.Type{intType(), strType()}}
	if !IsSubsetEq(intType(), u, nil) {
		t.Fatal("int should be a subset of int|str")
	}
}

func TestAnyIsSupertypeOfEverything(t *testing.T) {
	if !IsSubsetEq(intType(), anyType(), nil) {
		t.Fatal("everything is assignable to Any")
	}
}

func TestNeverIsSubtypeOfEverything(t *testing.T) {
	if !IsSubsetEq(neverType(), strType(), nil) {
		t.Fatal("Never is a subset of everything")
	}
}

func TestUnionOfAAndBNotSubsetOfA(t *testing.T) {
	u := types.UnionType{Members: []types.Type{intType(), strType()}}
	if IsSubsetEq(u, intType(), nil) {
		t.Fatal("int|str should not be assignable to plain int")
	}
}

func TestTupleUnboundedAcceptsConcrete(t *testing.T) {
	concrete := types.TupleType{Kind: types.TupleConcrete, Elements: []types.Type{intType(), intType()}}
	unbounded := types.TupleType{Kind: types.TupleUnbounded, Element: intType()}
	if !IsSubsetEq(concrete, unbounded, nil) {
		t.Fatal("tuple[int, int] should be a subset of tuple[int, ...]")
	}
}

func TestCallableContravariantParams(t *testing.T) {
	u := types.UnionType{Members: []types.Type{intType(), strType()}}
	narrow := types.CallableType{Shape: types.ParamsList, Params: []types.Param{{Type: intType(), Required: true}}, ReturnType: intType()}
	wide := types.CallableType{Shape: types.ParamsList, Params: []types.Param{{Type: u, Required: true}}, ReturnType: intType()}
	if !IsSubsetEq(wide, narrow, nil) {
		t.Fatal("a callable accepting int|str should be usable where one accepting int is expected")
	}
	if IsSubsetEq(narrow, wide, nil) {
		t.Fatal("a callable accepting only int should not satisfy one requiring int|str")
	}
}

func TestContainedVarForcesToOtherSide(t *testing.T) {
	store := NewStore("m")
	v := store.Fresh(VarContained)
	if !IsSubsetEqVars(intType(), v, nil, store) {
		t.Fatal("expected a contained variable to accept int")
	}
	bound, ok := store.Lookup(v)
	if !ok || !types.Equal(bound, intType()) {
		t.Fatalf("expected the variable to be bound to int, got %v", bound)
	}
}

func TestQuantifiedVarNotForcedInUnionMode(t *testing.T) {
	store := NewStore("m")
	v := store.FreshQuantified(anyType())
	u := types.UnionType{Members: []types.Type{v, strType()}}
	if IsSubsetEqVars(intType(), u, nil, store) {
		t.Fatal("a quantified variable should not be forced while checking union membership")
	}
	if _, ok := store.Lookup(v); ok {
		t.Fatal("expected the quantified variable to remain unbound")
	}
}

func TestFinalizeAppliesDefaultToUnboundQuantified(t *testing.T) {
	store := NewStore("m")
	v := store.FreshQuantified(strType())
	if got := store.Finalize(v); !types.Equal(got, strType()) {
		t.Fatalf("expected finalize to fall back to the default, got %v", got)
	}
}

func TestRecordRecursiveStripsSelfReference(t *testing.T) {
	store := NewStore("m")
	v := store.Fresh(VarRecursive)
	self := types.UnionType{Members: []types.Type{v, intType()}}
	if err := store.RecordRecursive(v, self); err != nil {
		t.Fatal(err)
	}
	bound, _ := store.Lookup(v)
	if !types.Equal(bound, intType()) {
		t.Fatalf("expected the self-reference to be stripped, got %v", bound)
	}
}

func TestIntersectOnLeftSomeMemberSatisfies(t *testing.T) {
	inter := types.IntersectType{Members: []types.Type{intType(), strType()}}
	if !IsSubsetEq(inter, intType(), nil) {
		t.Fatal("int&str should be a subset of int, since int is one of its members")
	}
}

func TestIntersectOnRightEveryMemberSatisfies(t *testing.T) {
	inter := types.IntersectType{Members: []types.Type{intType(), strType()}}
	u := types.UnionType{Members: []types.Type{intType(), strType()}}
	if IsSubsetEq(u, inter, nil) {
		t.Fatal("int|str should not satisfy int&str, since neither member is assignable to both")
	}
}

func TestOverloadOnRightEveryMemberMustAccept(t *testing.T) {
	acceptsBoth := types.UnionType{Members: []types.Type{intType(), strType()}}
	overload := types.OverloadType{Members: []types.Type{intType(), strType()}}
	if IsSubsetEq(acceptsBoth, overload, nil) {
		t.Fatal("int|str should not satisfy an overload set of (int, str), since neither member is accepted by both arms")
	}
	if IsSubsetEq(intType(), overload, nil) {
		t.Fatal("plain int should not satisfy an overload set requiring str too")
	}
}

func TestOverloadOnLeftSomeMemberSatisfies(t *testing.T) {
	overload := types.OverloadType{Members: []types.Type{intType(), strType()}}
	if !IsSubsetEq(overload, intType(), nil) {
		t.Fatal("an overload set containing int should be usable where plain int is expected")
	}
}

func TestTypedDictWidthSubtyping(t *testing.T) {
	wide := types.TypedDictT{Fields: map[string]types.TypedDictField{
		"x": {Type: intType(), Required: true},
		"y": {Type: strType(), Required: false},
	}}
	narrow := types.TypedDictT{Fields: map[string]types.TypedDictField{
		"x": {Type: intType(), Required: true},
	}}
	if !IsSubsetEq(wide, narrow, nil) {
		t.Fatal("a dict with extra optional keys should satisfy a narrower required TypedDict")
	}
}
