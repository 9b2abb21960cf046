package binding

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/parser"
)

func build(t *testing.T, src string) *Table {
	t.Helper()
	mod, errs := parser.ParseModule(src, "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return Build("t", mod)
}

func TestAssignProducesNameAssignBinding(t *testing.T) {
	table := build(t, "x = 1\n")
	key, ok := table.Latest("x")
	if !ok {
		t.Fatal("expected a binding for x")
	}
	if key.Kind != KeyNameAssign {
		t.Fatalf("expected KeyNameAssign, got %v", key.Kind)
	}
}

func TestAnnotatedAssignProducesNameAnnotation(t *testing.T) {
	table := build(t, "x: int = 1\n")
	key, ok := table.Latest("x")
	if !ok {
		t.Fatal("expected a binding for x")
	}
	if key.Kind != KeyNameAnnotation {
		t.Fatalf("expected KeyNameAnnotation, got %v", key.Kind)
	}
}

func TestAnnotatedAssignCapturesAnnotationExpr(t *testing.T) {
	table := build(t, "x: int = 1\n")
	key, ok := table.Latest("x")
	if !ok {
		t.Fatal("expected a binding for x")
	}
	bd, ok := table.Get(*key)
	if !ok || bd.Annotation == nil {
		t.Fatal("expected the NameAnnotation binding to carry the declared-type expression")
	}
	if name, ok := bd.Annotation.(*ast.Name); !ok || name.Value != "int" {
		t.Fatalf("expected Annotation to be the name int, got %#v", bd.Annotation)
	}
}

func TestLaterUnannotatedAssignInheritsAnnotationKey(t *testing.T) {
	table := build(t, "x: int = 1\nx = 2\n")
	annKey := table.byName["x"][0]
	key, ok := table.Latest("x")
	if !ok || key.Kind != KeyNameAssign {
		t.Fatal("expected the second assignment to be a plain KeyNameAssign")
	}
	bd, ok := table.Get(*key)
	if !ok || bd.AnnotationKey == nil {
		t.Fatal("expected the later assignment to carry an AnnotationKey back-reference")
	}
	if *bd.AnnotationKey != *annKey {
		t.Fatalf("expected AnnotationKey to point at the original annotation, got %v want %v", bd.AnnotationKey, annKey)
	}
}

func TestTupleAssignBindsEachLeaf(t *testing.T) {
	table := build(t, "a, b = 1, 2\n")
	if _, ok := table.Latest("a"); !ok {
		t.Fatal("expected a binding for a")
	}
	if _, ok := table.Latest("b"); !ok {
		t.Fatal("expected a binding for b")
	}
}

func TestReassignmentChainsPrevious(t *testing.T) {
	table := build(t, "x = 1\nx = 2\n")
	key, ok := table.Latest("x")
	if !ok {
		t.Fatal("expected a binding for x")
	}
	bd, ok := table.Get(*key)
	if !ok {
		t.Fatal("expected a binding value")
	}
	if bd.Previous == nil {
		t.Fatal("expected the second assignment to chain to the first")
	}
}

func TestFuncDefBindsNameAndParams(t *testing.T) {
	table := build(t, "def f(x: int, y=1):\n    return x\n")
	key, ok := table.Latest("f")
	if !ok || key.Kind != KeyFunctionDef {
		t.Fatal("expected a KeyFunctionDef binding for f")
	}
	if _, ok := table.Latest("x"); !ok {
		t.Fatal("expected a parameter binding for x")
	}
}

func TestClassDefPromotesSelfAttributes(t *testing.T) {
	table := build(t, "class C:\n    def __init__(self):\n        self.x = 1\n")
	found := false
	for _, bd := range table.All() {
		if bd.Key.Kind == KeySelfAttribute && bd.Key.Name == "x" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected self.x to promote to a KeySelfAttribute binding")
	}
}

func TestForLoopBindsTargetAsForTarget(t *testing.T) {
	table := build(t, "for i in range(3):\n    pass\n")
	key, ok := table.Latest("i")
	if !ok || key.Kind != KeyForTarget {
		t.Fatal("expected a KeyForTarget binding for i")
	}
}

func TestWithStatementBindsTargetAsWithTarget(t *testing.T) {
	table := build(t, "with open('f') as fh:\n    pass\n")
	key, ok := table.Latest("fh")
	if !ok || key.Kind != KeyWithTarget {
		t.Fatal("expected a KeyWithTarget binding for fh")
	}
}

func TestExceptHandlerBindsName(t *testing.T) {
	table := build(t, "try:\n    pass\nexcept Exception as e:\n    pass\n")
	key, ok := table.Latest("e")
	if !ok || key.Kind != KeyExceptName {
		t.Fatal("expected a KeyExceptName binding for e")
	}
}

func TestMatchCaptureBindsPattern(t *testing.T) {
	table := build(t, "match x:\n    case [a, b]:\n        pass\n    case _:\n        pass\n")
	if _, ok := table.Latest("a"); !ok {
		t.Fatal("expected a pattern capture binding for a")
	}
	if _, ok := table.Latest("b"); !ok {
		t.Fatal("expected a pattern capture binding for b")
	}
}

func TestComprehensionTargetIsScopedToComprehension(t *testing.T) {
	table := build(t, "xs = [y for y in range(3)]\n")
	key, ok := table.Latest("y")
	if !ok || key.Kind != KeyComprehensionTarget {
		t.Fatal("expected a KeyComprehensionTarget binding for y")
	}
}

func TestImportBindsLocalName(t *testing.T) {
	table := build(t, "import os.path as p\n")
	key, ok := table.Latest("p")
	if !ok || key.Kind != KeyImport {
		t.Fatal("expected a KeyImport binding for p")
	}
}

func TestImportFromBindsEachName(t *testing.T) {
	table := build(t, "from os import path, sep as s\n")
	if _, ok := table.Latest("path"); !ok {
		t.Fatal("expected a binding for path")
	}
	key, ok := table.Latest("s")
	if !ok || key.Kind != KeyImportFrom {
		t.Fatal("expected a KeyImportFrom binding for s")
	}
}

func TestWalrusBindsInsideEnclosingScope(t *testing.T) {
	table := build(t, "if (n := 10) > 5:\n    pass\n")
	if _, ok := table.Latest("n"); !ok {
		t.Fatal("expected a binding for the walrus target n")
	}
}

func TestBreakSkipsLoopElse(t *testing.T) {
	table := build(t, "for i in range(3):\n    if i == 1:\n        break\nelse:\n    y = 1\n")
	if _, ok := table.Latest("i"); !ok {
		t.Fatal("expected a binding for i")
	}
	if _, ok := table.Latest("y"); ok {
		t.Fatal("expected the loop-else binding for y to be skipped after a break")
	}
}
