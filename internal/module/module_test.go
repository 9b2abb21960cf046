package module

import "testing"

type fakeResolver map[string][]string

func (f fakeResolver) Resolve(name string) ([]string, bool) {
	paths, ok := f[name]
	return paths, ok
}

func TestGetOrCreateReturnsSamePlaceholder(t *testing.T) {
	r := NewRegistry(nil)
	a := r.GetOrCreate("pkg.mod")
	b := r.GetOrCreate("pkg.mod")
	if a != b {
		t.Fatal("expected GetOrCreate to return the same placeholder on repeat calls")
	}
	if a.ID == (ID{}) {
		t.Fatal("expected a non-zero module ID")
	}
}

func TestExportTracksNames(t *testing.T) {
	m := newModule("m", "")
	m.Export("Foo")
	if !m.IsExported("Foo") {
		t.Fatal("expected Foo to be exported")
	}
	if m.IsExported("Bar") {
		t.Fatal("did not expect Bar to be exported")
	}
}

func TestResolveDelegatesToResolver(t *testing.T) {
	r := NewRegistry(fakeResolver{"a.b": {"/src/a/b.py"}})
	paths, ok := r.Resolve("a.b")
	if !ok || len(paths) != 1 || paths[0] != "/src/a/b.py" {
		t.Fatalf("unexpected resolve result: %v %v", paths, ok)
	}
}

func TestBootstrapMarksBuiltinsReady(t *testing.T) {
	r := NewRegistry(nil)
	b, err := Bootstrap(r, func(b *Module) {
		b.Export("object")
	})
	if err != nil {
		t.Fatal(err)
	}
	if !b.ExportsReady || !b.AnswersReady || !b.IsExported("object") {
		t.Fatal("expected bootstrap to finalize builtins")
	}
}
