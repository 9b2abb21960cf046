package symtab

import "testing"

func TestResolveFindsEnclosingModuleName(t *testing.T) {
	s := New()
	s.Module().Declare(&Symbol{Name: "x", Kind: SymVariable})
	s.Push(ScopeFunction, nil)
	defer s.Pop()
	sc, sym, ok := s.Resolve("x")
	if !ok || sym.Name != "x" || sc.Kind != ScopeModule {
		t.Fatalf("expected to resolve x in module scope, got ok=%v sym=%v", ok, sym)
	}
}

func TestFunctionScopeIsABarrier(t *testing.T) {
	s := New()
	s.Push(ScopeFunction, nil)
	s.Current().Declare(&Symbol{Name: "outer", Kind: SymVariable})
	s.Push(ScopeFunction, nil)
	defer s.Pop()
	_, _, ok := s.Resolve("outer")
	if ok {
		t.Fatal("a nested function should not see an enclosing function's locals without nonlocal")
	}
}

func TestGlobalDeclarationReachesModuleScope(t *testing.T) {
	s := New()
	s.Module().Declare(&Symbol{Name: "x", Kind: SymVariable})
	s.Push(ScopeFunction, nil)
	defer s.Pop()
	s.Current().Declare(&Symbol{Name: "x", Kind: SymVariable, IsGlobal: true})
	sc, _, ok := s.Resolve("x")
	if !ok || sc.Kind != ScopeModule {
		t.Fatal("global x should resolve to the module scope symbol")
	}
}

func TestLoopBreakTracking(t *testing.T) {
	s := New()
	s.PushLoop()
	s.MarkBreak()
	if !s.PopLoop() {
		t.Fatal("expected hasBreak to be true after MarkBreak")
	}
}

func TestFlowSnapshotRestore(t *testing.T) {
	s := New()
	sc := s.Current()
	sc.SetFlow("x", nil)
	snap := sc.Snapshot()
	sc.SetFlow("x", nil)
	sc.Restore(snap)
	if _, ok := sc.Flow("x"); !ok {
		t.Fatal("expected restored flow to still have x")
	}
}
