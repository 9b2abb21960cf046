package types

import "testing"

func intClass() *ClassObject  { return &ClassObject{Name: "int", QualName: "builtins.int"} }
func strClass() *ClassObject  { return &ClassObject{Name: "str", QualName: "builtins.str"} }

func TestUnionIdempotent(t *testing.T) {
	i := ClassType{Class: intClass()}
	u := Canonicalize(i, i)
	if String(u) != String(i) {
		t.Fatalf("T | T should display as T, got %s", String(u))
	}
}

func TestUnionFlattensAndDedups(t *testing.T) {
	i := ClassType{Class: intClass()}
	s := ClassType{Class: strClass()}
	nested := Canonicalize(Canonicalize(i, s), i)
	got, ok := nested.(UnionType)
	if !ok {
		t.Fatalf("expected UnionType, got %T", nested)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members after dedup, got %d: %s", len(got.Members), String(got))
	}
}

func TestUnionDisplayAbsorbsAny(t *testing.T) {
	i := ClassType{Class: intClass()}
	a := AnyType{Provenance: ProvImplicit}
	u := UnionType{Members: []Type{i, a}}
	if String(u) != "Any" {
		t.Fatalf("expected display to absorb Any, got %s", String(u))
	}
}

func TestApplyLeavesForallShadowedQuantifiedAlone(t *testing.T) {
	body := QuantifiedType{Name: "T"}
	f := ForallType{Params: []TypeParam{{Name: "T"}}, Body: TupleType{Kind: TupleConcrete, Elements: []Type{body}}}
	s := Subst{"T": ClassType{Class: intClass()}}
	out := Apply(f, s)
	ft, ok := out.(ForallType)
	if !ok {
		t.Fatalf("Apply should not descend into a Forall's own parameters: got %T", out)
	}
	if String(ft) != String(f) {
		t.Fatalf("substitution must not touch shadowed names, got %s", String(ft))
	}
}

func TestForallAlphaEquivalence(t *testing.T) {
	a := ForallType{Params: []TypeParam{{Name: "T"}}, Body: QuantifiedType{Name: "T"}}
	b := ForallType{Params: []TypeParam{{Name: "U"}}, Body: QuantifiedType{Name: "U"}}
	if !Equal(a, b) {
		t.Fatalf("expected alpha-equivalent Foralls to be Equal")
	}
}

func TestTupleSimplify(t *testing.T) {
	out := Simplify(TupleType{Kind: TupleUnpacked, Prefix: []Type{ClassType{Class: intClass()}}})
	if out.(TupleType).Kind != TupleConcrete {
		t.Fatalf("expected empty-middle unpacked tuple to simplify to concrete, got %+v", out)
	}
}

func TestVarDisplayNormalizedInTestMode(t *testing.T) {
	TestMode = true
	defer func() { TestMode = false }()
	a := Var{ID: 1, Owner: "m"}
	b := Var{ID: 2, Owner: "m"}
	if String(a) != String(b) {
		t.Fatalf("expected variable display to normalize to a stable placeholder in test mode")
	}
}
