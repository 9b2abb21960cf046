package answers

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/parser"
	"github.com/oxhq/pyrechk/internal/types"
)

func solve(t *testing.T, src string) (*binding.Table, *Table) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	return bindings, NewTable("t", bindings, nil, nil, nil)
}

func TestIntLiteralAssignmentGetsLiteralIntType(t *testing.T) {
	bindings, ans := solve(t, "x = 1\n")
	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	lit, ok := got.(types.Literal)
	if !ok || lit.Kind != types.LitInt {
		t.Fatalf("expected an int literal type, got %v", got)
	}
}

func TestAnnotatedAssignmentWinsOverInferredLiteral(t *testing.T) {
	bindings, ans := solve(t, "x: object = 1\n")
	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class == nil || ct.Class.Name != "object" {
		t.Fatalf("expected the declared object type to win, got %v", got)
	}
}

func TestReassignmentUsesLatestValue(t *testing.T) {
	bindings, ans := solve(t, "x = 1\nx = 'a'\n")
	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(types.ClassType); !ok {
		t.Fatalf("expected the second assignment's str type, got %v", got)
	}
}

func TestFunctionDefProducesCallableSignature(t *testing.T) {
	bindings, ans := solve(t, "def f(x: int) -> str:\n    return x\n")
	key, _ := bindings.Latest("f")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := got.(types.FunctionType)
	if !ok {
		t.Fatalf("expected a FunctionType, got %v", got)
	}
	if len(fn.Signature.Params) != 1 || fn.Signature.Params[0].Name != "x" {
		t.Fatalf("expected one parameter x, got %v", fn.Signature.Params)
	}
}

func TestUnionAnnotationJoinsBothSides(t *testing.T) {
	bindings, ans := solve(t, "x: int | str\n")
	key, _ := bindings.Latest("x")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(types.UnionType); !ok {
		t.Fatalf("expected a union type for `int | str`, got %v", got)
	}
}

func TestListLiteralInfersElementJoin(t *testing.T) {
	bindings, ans := solve(t, "xs = [1, 2, 3]\n")
	key, _ := bindings.Latest("xs")
	got, err := ans.Get(*key)
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := got.(types.ClassType)
	if !ok || ct.Class.Name != "list" {
		t.Fatalf("expected list[...], got %v", got)
	}
}

func TestFinalizeReplacesUnboundContainedVarWithAny(t *testing.T) {
	bindings, ans := solve(t, "xs = []\n")
	key, _ := bindings.Latest("xs")
	if _, err := ans.Get(*key); err != nil {
		t.Fatal(err)
	}
	solutions := ans.Finalize()
	if _, ok := solutions[*key]; !ok {
		t.Fatal("expected a finalized entry for xs")
	}
	ct, ok := solutions[*key].(types.ClassType)
	if !ok || len(ct.Args) != 1 {
		t.Fatalf("expected list[...] with one argument, got %v", solutions[*key])
	}
	if _, isAny := ct.Args[0].(types.AnyType); !isAny {
		t.Fatalf("expected the unbound element variable to finalize to Any, got %v", ct.Args[0])
	}
}

func TestRecursiveSelfReferenceDoesNotDeadlock(t *testing.T) {
	bindings, ans := solve(t, "x = x\n")
	key, _ := bindings.Latest("x")
	// Re-entrant lookups must return a placeholder rather than block
	// forever (spec §4.3's calculation protocol is the only place cycles
	// are permitted).
	if _, err := ans.Get(*key); err != nil {
		t.Fatal(err)
	}
}
