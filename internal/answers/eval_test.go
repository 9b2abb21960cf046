package answers

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/parser"
	"github.com/oxhq/pyrechk/internal/types"
)

func TestAnnotatedAssignWithMismatchedValueReportsDiagnostic(t *testing.T) {
	mod, errs := parser.ParseModule("x: int = 'a'\n", "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	diags := diag.NewCollector()
	ans := NewTable("t", bindings, nil, diags, nil)

	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "int" {
		t.Fatalf("expected the declared type int to win, got %v", got)
	}
	if len(diags.Diagnostics()) == 0 {
		t.Fatal("expected a diagnostic for the mismatched annotation")
	}
}

func TestAnnotatedAssignWithMatchingValueReportsNoDiagnostic(t *testing.T) {
	mod, errs := parser.ParseModule("x: int = 1\n", "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	diags := diag.NewCollector()
	ans := NewTable("t", bindings, nil, diags, nil)

	key, _ := bindings.Latest("x")
	if _, err := ans.Get(*key); err != nil {
		t.Fatal(err)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics for a matching annotation, got %v", diags.Diagnostics())
	}
}

func TestLaterUnannotatedReassignmentKeepsDeclaredType(t *testing.T) {
	bindings, ans := solve(t, "x: int = 1\nx = 2\n")
	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "int" {
		t.Fatalf("expected the later unannotated assignment to still resolve to the declared type int, got %v", got)
	}
}

func TestSubscriptOnListYieldsElementType(t *testing.T) {
	bindings, ans := solve(t, "xs = [1]\ny = xs[0]\n")
	key, _ := bindings.Latest("y")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(types.Literal); !ok {
		t.Fatalf("expected xs[0] to carry the joined int literal element type, got %v", got)
	}
}

func TestSliceSubscriptKeepsContainerType(t *testing.T) {
	bindings, ans := solve(t, "xs = [1, 2, 3]\ny = xs[1:2]\n")
	key, _ := bindings.Latest("y")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "list" {
		t.Fatalf("expected xs[1:2] to stay a list, got %v", got)
	}
}

func TestForLoopTargetGetsIterableElementType(t *testing.T) {
	bindings, ans := solve(t, "xs = [1]\nfor v in xs:\n    pass\n")
	key, _ := bindings.Latest("v")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(types.Literal); !ok {
		t.Fatalf("expected v to carry xs's element type, got %v", got)
	}
}

func TestComprehensionTargetGetsIterableElementType(t *testing.T) {
	bindings, ans := solve(t, "xs = [1]\nys = [v for v in xs]\n")
	key, _ := bindings.Latest("ys")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "list" {
		t.Fatalf("expected a list comprehension to produce list[...], got %v", got)
	}
}

func TestDictComprehensionProducesDictType(t *testing.T) {
	bindings, ans := solve(t, "d = {k: k for k in [1, 2]}\n")
	key, _ := bindings.Latest("d")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "dict" {
		t.Fatalf("expected a dict comprehension to produce dict[...], got %v", got)
	}
}

func TestCallOnClassReferenceProducesInstance(t *testing.T) {
	bindings, ans := solve(t, "class C:\n    pass\nc = C()\n")
	key, _ := bindings.Latest("c")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "C" {
		t.Fatalf("expected C() to produce an instance of C, got %v", got)
	}
}

func TestCallOnFunctionProducesDeclaredReturnType(t *testing.T) {
	bindings, ans := solve(t, "def f() -> str:\n    return ''\ny = f()\n")
	key, _ := bindings.Latest("y")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "str" {
		t.Fatalf("expected f() to produce f's declared return type, got %v", got)
	}
}

func TestNarrowingIsNoneFiltersUnionInsideIfBranch(t *testing.T) {
	bindings, ans := solve(t, "def f(x: Optional[int]):\n    if x is None:\n        y = x\n    else:\n        z = x\n")
	yKey, _ := bindings.Latest("y")
	y, err := ans.Get(*yKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := y.(types.NoneType); !ok {
		t.Fatalf("expected x narrowed to None inside the is-None branch, got %v", y)
	}
}

func TestNarrowingIsNoneStripsNoneFromElseBranch(t *testing.T) {
	bindings, ans := solve(t, "def f(x: Optional[int]):\n    if x is None:\n        y = x\n    else:\n        z = x\n")
	zKey, _ := bindings.Latest("z")
	z, err := ans.Get(*zKey)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := z.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "int" {
		t.Fatalf("expected x narrowed to int (None excluded) inside the else branch, got %v", z)
	}
}

func TestNarrowingJoinsBackToOriginalUnionAfterIf(t *testing.T) {
	bindings, ans := solve(t, "def f(x: Optional[int]):\n    if x is None:\n        y = x\n    else:\n        z = x\n    w = x\n")
	wKey, _ := bindings.Latest("w")
	w, err := ans.Get(*wKey)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := w.(types.UnionType)
	if !ok || len(u.Members) != 2 {
		t.Fatalf("expected x to rejoin to int | None after the if, got %v", w)
	}
	sawNone, sawInt := false, false
	for _, m := range u.Members {
		switch mt := m.(type) {
		case types.NoneType:
			sawNone = true
		case types.ClassType:
			if mt.Class != nil && mt.Class.Name == "int" {
				sawInt = true
			}
		}
	}
	if !sawNone || !sawInt {
		t.Fatalf("expected the rejoined type to cover both None and int, got %v", w)
	}
}

func TestNarrowingReturnInIfBranchNarrowsAfterWithoutPhi(t *testing.T) {
	bindings, ans := solve(t, "def f(x: Optional[int]):\n    if x is None:\n        return\n    w = x\n")
	wKey, _ := bindings.Latest("w")
	w, err := ans.Get(*wKey)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := w.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "int" {
		t.Fatalf("expected x narrowed to int after an early return on the None branch, got %v", w)
	}
}

func TestYieldFromProducesElementType(t *testing.T) {
	bindings, ans := solve(t, "def f():\n    xs = [1]\n    y = (yield from xs)\n")
	key, ok := bindings.Latest("y")
	if !ok {
		t.Fatal("expected a binding for y")
	}
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(types.Literal); !ok {
		t.Fatalf("expected yield-from to carry the delegate's element type, got %v", got)
	}
}
