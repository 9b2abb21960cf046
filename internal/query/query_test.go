package query

import (
	"testing"

	"github.com/oxhq/pyrechk/internal/answers"
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/parser"
	"github.com/oxhq/pyrechk/internal/types"
)

func build(t *testing.T, src string) (*ast.Module, *binding.Table, *answers.Table) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "t.py")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bindings := binding.Build("t", mod)
	ans := answers.NewTable("t", bindings, nil, nil, nil)
	for _, b := range bindings.All() {
		ans.Get(b.Key)
	}
	return mod, bindings, ans
}

func TestHoverOnAssignmentTargetReportsInferredType(t *testing.T) {
	mod, bindings, ans := build(t, "x = 1\n")
	res, ok := Hover(mod, bindings, ans, Position{Line: 1, Column: 1})
	if !ok {
		t.Fatal("expected a hover result")
	}
	if res.Name != "x" {
		t.Fatalf("expected to hover x, got %q", res.Name)
	}
	if _, ok := res.Type.(types.Literal); !ok {
		t.Fatalf("expected a literal int type, got %v", res.Type)
	}
}

func TestHoverOnUseReportsSameTypeAsDefinition(t *testing.T) {
	mod, bindings, ans := build(t, "x = 1\ny = x\n")
	res, ok := Hover(mod, bindings, ans, Position{Line: 2, Column: 5})
	if !ok {
		t.Fatal("expected a hover result")
	}
	if res.Name != "x" {
		t.Fatalf("expected to hover x, got %q", res.Name)
	}
	if _, ok := res.Type.(types.Literal); !ok {
		t.Fatalf("expected x's literal int type, got %v", res.Type)
	}
}

func TestGotoDefinitionOnUseJumpsToAssignment(t *testing.T) {
	mod, bindings, _ := build(t, "x = 1\ny = x\n")
	loc, ok := GotoDefinition("t", mod, bindings, Position{Line: 2, Column: 5}, nil)
	if !ok {
		t.Fatal("expected a definition location")
	}
	if loc.Module != "t" || loc.Range.StartLine != 1 {
		t.Fatalf("expected the definition on line 1, got %+v", loc)
	}
}

func TestGotoDefinitionFollowsReassignmentNearestCursor(t *testing.T) {
	mod, bindings, _ := build(t, "x = 1\nx = 'a'\ny = x\n")
	loc, ok := GotoDefinition("t", mod, bindings, Position{Line: 3, Column: 5}, nil)
	if !ok {
		t.Fatal("expected a definition location")
	}
	if loc.Range.StartLine != 2 {
		t.Fatalf("expected the nearest preceding reassignment on line 2, got %+v", loc)
	}
}

func TestInlayHintsSkipsAnnotatedBindings(t *testing.T) {
	mod, bindings, ans := build(t, "x: int = 1\ny = 2\n")
	_ = mod
	hints := InlayHints(bindings, ans)
	if len(hints) != 1 {
		t.Fatalf("expected exactly one hint (for y), got %d: %+v", len(hints), hints)
	}
	if hints[0].Text != ": Literal[2]" {
		t.Fatalf("expected y's hint to read ': Literal[2]', got %q", hints[0].Text)
	}
}
