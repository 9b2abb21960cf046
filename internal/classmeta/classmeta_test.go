package classmeta

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/answers"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/parser"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/unify"
)

func build(t *testing.T, src string) (*binding.Table, *Table) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	ans := answers.NewTable("t", bindings, nil, nil, nil)
	cm := NewTable("t", bindings, ans, diag.NewCollector())
	return bindings, cm
}

// buildWired is build plus the SetClassLookup wiring internal/schedule
// performs in production, needed by any test that resolves expressions
// (attribute access, binary operators, calls) against a class's members
// rather than just inspecting classmeta's own MRO/field data directly.
func buildWired(t *testing.T, src string) (*binding.Table, *answers.Table, *Table, *diag.Collector) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	diags := diag.NewCollector()
	ans := answers.NewTable("t", bindings, nil, diags, nil)
	cm := NewTable("t", bindings, ans, diags)
	ans.SetClassLookup(cm)
	return bindings, ans, cm, diags
}

func TestPlainClassHasTrivialMRO(t *testing.T) {
	bindings, cm := build(t, "class A:\n    pass\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	mro := cm.Ancestors(obj)
	if len(mro) != 1 || mro[0] != obj {
		t.Fatalf("expected a singleton MRO, got %v", mro)
	}
}

func TestSingleInheritanceResolvesMRO(t *testing.T) {
	bindings, cm := build(t, "class A:\n    pass\nclass B(A):\n    pass\n")
	key, _ := bindings.Latest("B")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	mro := cm.Ancestors(obj)
	if len(mro) != 2 || mro[0] != obj || mro[1].Name != "A" {
		t.Fatalf("expected [B, A], got %v", mro)
	}
}

func TestDiamondInheritanceLinearizes(t *testing.T) {
	bindings, cm := build(t, "class A:\n    pass\nclass B(A):\n    pass\nclass C(A):\n    pass\nclass D(B, C):\n    pass\n")
	key, _ := bindings.Latest("D")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	mro := cm.Ancestors(obj)
	names := make([]string, len(mro))
	for i, c := range mro {
		names[i] = c.Name
	}
	want := []string{"D", "B", "C", "A"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestCyclicBaseReportsInvalidInheritance(t *testing.T) {
	bindings, cm := build(t, "class A(B):\n    pass\nclass B(A):\n    pass\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	mro := cm.Ancestors(obj)
	if len(mro) != 1 {
		t.Fatalf("expected a cyclic class to fall back to a singleton MRO, got %v", mro)
	}
}

func TestSelfAttributePromotedAsField(t *testing.T) {
	bindings, cm := build(t, "class A:\n    def __init__(self):\n        self.x = 1\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	typ, ok := cm.Member(obj, "x")
	if !ok {
		t.Fatal("expected x to be promoted to an instance field")
	}
	if _, ok := typ.(types.Literal); !ok {
		t.Fatalf("expected a literal int type for x, got %v", typ)
	}
}

func TestInheritedMemberVisibleThroughMRO(t *testing.T) {
	bindings, cm := build(t, "class A:\n    def f(self):\n        return 1\nclass B(A):\n    pass\n")
	key, _ := bindings.Latest("B")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cm.Member(obj, "f"); !ok {
		t.Fatal("expected f to be visible on B through A")
	}
}

func TestProtocolFlavorDetected(t *testing.T) {
	bindings, cm := build(t, "class P(Protocol):\n    def m(self):\n        ...\n")
	key, _ := bindings.Latest("P")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	if !cm.IsProtocol(obj) {
		t.Fatal("expected P to be recognized as a protocol")
	}
}

func TestEnumMembersTypedAsLiterals(t *testing.T) {
	bindings, cm := build(t, "class Color(Enum):\n    RED = 1\n    GREEN = 2\n")
	key, _ := bindings.Latest("Color")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	typ, ok := cm.Member(obj, "RED")
	if !ok {
		t.Fatal("expected RED to be a member")
	}
	lit, ok := typ.(types.Literal)
	if !ok || lit.Kind != types.LitEnumMember || lit.EnumMember != "RED" {
		t.Fatalf("expected an enum-member literal for RED, got %v", typ)
	}
}

func TestNamedTupleSynthesizesInit(t *testing.T) {
	bindings, cm := build(t, "class Point(NamedTuple):\n    x: int\n    y: int\n")
	key, _ := bindings.Latest("Point")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	init, ok := cm.Member(obj, "__init__")
	if !ok {
		t.Fatal("expected a synthesized __init__")
	}
	fn, ok := init.(types.FunctionType)
	if !ok || len(fn.Signature.Params) != 3 {
		t.Fatalf("expected __init__(self, x, y), got %v", init)
	}
}

func TestTypedDictFlavorDetected(t *testing.T) {
	bindings, cm := build(t, "class Movie(TypedDict):\n    title: str\n    year: int\n")
	key, _ := bindings.Latest("Movie")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := cm.metaOf(obj); !ok || m.Flavor != FlavorTypedDict {
		t.Fatal("expected Movie to carry the TypedDict flavor")
	}
	if _, ok := cm.Member(obj, "title"); !ok {
		t.Fatal("expected title to be a field")
	}
}

func TestAccessMemberBindsPlainMethodThroughInstance(t *testing.T) {
	bindings, cm := build(t, "class A:\n    def m(self):\n        return 1\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	typ, ok := cm.AccessMember(obj, "m", true)
	if !ok {
		t.Fatal("expected m to resolve")
	}
	if _, ok := typ.(types.BoundMethodType); !ok {
		t.Fatalf("expected a plain method accessed through an instance to bind, got %v", typ)
	}
}

func TestAccessMemberBindsClassmethodToClassRegardlessOfAccessPath(t *testing.T) {
	bindings, cm := build(t, "class A:\n    @classmethod\n    def m(cls):\n        return 1\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	for _, instance := range []bool{true, false} {
		typ, ok := cm.AccessMember(obj, "m", instance)
		if !ok {
			t.Fatal("expected m to resolve")
		}
		bm, ok := typ.(types.BoundMethodType)
		if !ok {
			t.Fatalf("expected a classmethod to always bind, got %v", typ)
		}
		if _, ok := bm.Object.(types.ClassDef); !ok {
			t.Fatalf("expected a classmethod to bind to the class object, got %v", bm.Object)
		}
	}
}

func TestAccessMemberStaticMethodNeverBinds(t *testing.T) {
	bindings, cm := build(t, "class A:\n    @staticmethod\n    def m():\n        return 1\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	typ, ok := cm.AccessMember(obj, "m", true)
	if !ok {
		t.Fatal("expected m to resolve")
	}
	if _, ok := typ.(types.BoundMethodType); ok {
		t.Fatalf("expected a staticmethod to never bind, got %v", typ)
	}
}

func TestHasMetaDistinguishesKnownFromUnknownClasses(t *testing.T) {
	bindings, cm := build(t, "class A:\n    pass\n")
	key, _ := bindings.Latest("A")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	if !cm.HasMeta(obj) {
		t.Fatal("expected HasMeta to be true for a class this table resolved")
	}
	unknown := &types.ClassObject{Name: "Other", Module: "elsewhere"}
	if cm.HasMeta(unknown) {
		t.Fatal("expected HasMeta to be false for a class this table never saw")
	}
}

func TestForwardBinaryOperatorResolvesThroughDunderAdd(t *testing.T) {
	bindings, ans, _, diags := buildWired(t, "class Vector:\n    def __add__(self, other):\n        return self\n\nv = Vector() + Vector()\n")
	key, _ := bindings.Latest("v")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "Vector" {
		t.Fatalf("expected Vector() + Vector() to resolve via __add__ to Vector, got %v", got)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics when __add__ matches, got %v", diags.Diagnostics())
	}
}

func TestReflectedBinaryOperatorResolvesThroughRAdd(t *testing.T) {
	bindings, ans, _, diags := buildWired(t, "class Left:\n    pass\nclass Right:\n    def __radd__(self, other):\n        return self\n\nv = Left() + Right()\n")
	key, _ := bindings.Latest("v")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "Right" {
		t.Fatalf("expected Left() + Right() to fall back to Right.__radd__, got %v", got)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics when __radd__ matches, got %v", diags.Diagnostics())
	}
}

func TestBinaryOperatorWithNoMatchingDunderReportsUnsupportedOperand(t *testing.T) {
	bindings, ans, _, diags := buildWired(t, "class Left:\n    pass\nclass Right:\n    pass\n\nv = Left() + Right()\n")
	key, _ := bindings.Latest("v")
	if _, err := ans.Get(*key); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Kind == diag.KindUnsupportedOperand {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unsupported-operand for two classes with no dunder in common, got %v", diags.Diagnostics())
	}
}

func TestAugmentedAssignmentPrefersInPlaceDunder(t *testing.T) {
	bindings, ans, _, diags := buildWired(t, "class Counter:\n    def __iadd__(self, other):\n        return self\n\nc = Counter()\nc += 1\n")
	key, _ := bindings.Latest("c")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "Counter" {
		t.Fatalf("expected c += 1 to resolve via __iadd__ to Counter, got %v", got)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics when __iadd__ matches, got %v", diags.Diagnostics())
	}
}

func TestProtocolStructuralSubtypingRejectsIncompleteImplementation(t *testing.T) {
	bindings, cm := build(t, "class P(Protocol):\n    def m(self):\n        ...\nclass Impl:\n    pass\n")
	pKey, _ := bindings.Latest("P")
	pObj, err := cm.ClassObjectFor(*pKey)
	if err != nil {
		t.Fatal(err)
	}
	implKey, _ := bindings.Latest("Impl")
	implObj, err := cm.ClassObjectFor(*implKey)
	if err != nil {
		t.Fatal(err)
	}
	a := types.ClassType{Class: implObj}
	b := types.ClassType{Class: pObj}
	if unify.IsSubsetEq(a, b, cm) {
		t.Fatal("expected Impl, which never defines m, to fail P's structural check")
	}
}

func TestProtocolStructuralSubtypingAcceptsMatchingShape(t *testing.T) {
	bindings, cm := build(t, "class P(Protocol):\n    def m(self):\n        ...\nclass Impl:\n    def m(self):\n        return 1\n")
	pKey, _ := bindings.Latest("P")
	pObj, err := cm.ClassObjectFor(*pKey)
	if err != nil {
		t.Fatal(err)
	}
	implKey, _ := bindings.Latest("Impl")
	implObj, err := cm.ClassObjectFor(*implKey)
	if err != nil {
		t.Fatal(err)
	}
	a := types.ClassType{Class: implObj}
	b := types.ClassType{Class: pObj}
	if !unify.IsSubsetEq(a, b, cm) {
		t.Fatal("expected Impl, which defines m, to satisfy P's structural check")
	}
}

func TestDataclassSynthesizesInit(t *testing.T) {
	bindings, cm := build(t, "@dataclass\nclass Point:\n    x: int\n    y: int\n")
	key, _ := bindings.Latest("Point")
	obj, err := cm.ClassObjectFor(*key)
	if err != nil {
		t.Fatal(err)
	}
	init, ok := cm.Member(obj, "__init__")
	if !ok {
		t.Fatal("expected a synthesized __init__")
	}
	fn, ok := init.(types.FunctionType)
	if !ok || len(fn.Signature.Params) != 3 {
		t.Fatalf("expected __init__(self, x, y), got %v", init)
	}
}
