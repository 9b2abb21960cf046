package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oxhq/pyrechk/internal/config"
)

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckReturnsSolutionsForEntryModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "x = 1\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Solutions["m"]; !ok {
		t.Fatalf("expected solutions for module m, got %v", res.Solutions)
	}
}

func TestCheckReportsTypeMismatchDiagnostic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "x: int = 'a'\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic for the mismatched annotation")
	}
}

func TestCheckRejectsEntryOutsideSourceRoots(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SourceRoots = []string{"src"}

	if _, err := Check(context.Background(), cfg, dir, "../outside.py"); err == nil {
		t.Fatal("expected an error for an entry path outside every source root")
	}
}

func diagKinds(res *Result) map[string]bool {
	kinds := map[string]bool{}
	for _, d := range res.Diagnostics {
		kinds[string(d.Kind)] = true
	}
	return kinds
}

func TestCheckReportsMissingAttributeOnUserDefinedClass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "class C:\n    def __init__(self):\n        self.x = 1\n\nc = C()\ny = c.missing\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if !diagKinds(res)["missing-attribute"] {
		t.Fatalf("expected missing-attribute for c.missing, got %v", res.Diagnostics)
	}
}

func TestCheckDoesNotFlagOrdinaryBuiltinAttributeAccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py", "s = 'hi'\nn = s.upper()\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if diagKinds(res)["missing-attribute"] {
		t.Fatalf("did not expect missing-attribute against an unknown builtin's members, got %v", res.Diagnostics)
	}
}

func TestCheckResolvesOverloadedFunctionCallPerArgumentType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py",
		"from typing import overload\n\n"+
			"@overload\n"+
			"def f(x: int) -> int: ...\n"+
			"@overload\n"+
			"def f(x: str) -> str: ...\n"+
			"def f(x):\n    return x\n\n"+
			"a = f(1)\n"+
			"b = f('x')\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if diagKinds(res)["no-matching-overload"] {
		t.Fatalf("did not expect no-matching-overload for arguments matching some overload, got %v", res.Diagnostics)
	}
}

func TestCheckReportsNoMatchingOverloadForUnmatchedCallSite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py",
		"from typing import overload\n\n"+
			"class Other:\n    pass\n\n"+
			"@overload\n"+
			"def f(x: int) -> int: ...\n"+
			"@overload\n"+
			"def f(x: str) -> str: ...\n"+
			"def f(x):\n    return x\n\n"+
			"c = f(Other())\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if !diagKinds(res)["no-matching-overload"] {
		t.Fatalf("expected no-matching-overload for f(Other()), got %v", res.Diagnostics)
	}
}

func TestCheckReportsNoMatchingOverloadForBadSubscriptAssignment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.py",
		"class Row:\n"+
			"    def __setitem__(self, key: int, value: int) -> None:\n"+
			"        pass\n\n"+
			"r = Row()\n"+
			"r[0] = 'oops'\n")

	res, err := Check(context.Background(), config.Default(), dir, "m.py")
	if err != nil {
		t.Fatal(err)
	}
	if !diagKinds(res)["no-matching-overload"] {
		t.Fatalf("expected no-matching-overload for r[0] = 'oops', got %v", res.Diagnostics)
	}
}
