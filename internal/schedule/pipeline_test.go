package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/types"
)

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSingleModuleReachesDone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "x = 1\n")

	cfg := config.Default()
	diags := diag.NewCollector()
	p := New(cfg, NewFSResolver(cfg, dir), diags)
	if err := p.Run(context.Background(), "m"); err != nil {
		t.Fatal(err)
	}

	sols := p.Solutions("m")
	if sols == nil {
		t.Fatal("expected solutions for m")
	}
}

func TestImportAcrossModulesResolvesExport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "VALUE = 1\n")
	writeFile(t, dir, "b.py", "import a\n")

	cfg := config.Default()
	diags := diag.NewCollector()
	p := New(cfg, NewFSResolver(cfg, dir), diags)
	if err := p.Run(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}

	mod, ok := p.Registry().Get("a")
	if !ok {
		t.Fatal("expected module a to be discovered via b's import")
	}
	if !mod.IsExported("VALUE") {
		t.Fatal("expected VALUE to be exported from a")
	}

	bt, ok := p.ResolveTable("b")
	if !ok {
		t.Fatal("expected a cross-module answers table for b")
	}

	v, ok := bt.CrossModuleGet("a", "VALUE")
	if !ok {
		t.Fatal("expected CrossModuleGet to resolve a.VALUE")
	}
	if _, ok := v.(types.Literal); !ok {
		t.Fatalf("expected a literal int type, got %v", v)
	}
}

func TestPackagePriorityOrdersByStage(t *testing.T) {
	var q priorityQueue
	q = append(q, pqItem{name: "a", stage: StageLoad}, pqItem{name: "b", stage: StageAnswers})
	if !q.Less(1, 0) {
		t.Fatal("expected the module further along to sort first")
	}
}
