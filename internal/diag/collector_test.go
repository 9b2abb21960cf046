package diag

import "testing"

func TestDedupByPositionAndKind(t *testing.T) {
	c := NewCollector()
	r := Range{Path: "m.py", StartLine: 3, StartColumn: 1}
	c.Add(New(r, KindTypeMismatch, "first"))
	c.Add(New(r, KindTypeMismatch, "second"))
	if len(c.Diagnostics()) != 1 {
		t.Fatalf("expected dedup to collapse to one diagnostic, got %d", len(c.Diagnostics()))
	}
	if c.Diagnostics()[0].Message != "second" {
		t.Fatalf("expected the later report to win, got %q", c.Diagnostics()[0].Message)
	}
}

func TestBlanketSuppressionStillReported(t *testing.T) {
	c := NewCollector()
	c.Suppress("m.py", 5, nil)
	c.Add(New(Range{Path: "m.py", StartLine: 5}, KindBadReturn, "boom"))
	ds := c.Diagnostics()
	if len(ds) != 1 || !ds[0].Ignored {
		t.Fatalf("expected the suppressed diagnostic to remain reported with Ignored=true")
	}
	if len(c.Active()) != 0 {
		t.Fatalf("expected Active() to drop ignored diagnostics")
	}
}

func TestSpecificSuppressionOnlyMatchesListedKind(t *testing.T) {
	c := NewCollector()
	c.Suppress("m.py", 5, []Kind{KindBadReturn})
	c.Add(New(Range{Path: "m.py", StartLine: 5, StartColumn: 1}, KindBadReturn, "a"))
	c.Add(New(Range{Path: "m.py", StartLine: 5, StartColumn: 2}, KindTypeMismatch, "b"))
	ds := c.Diagnostics()
	for _, d := range ds {
		if d.Kind == KindBadReturn && !d.Ignored {
			t.Fatalf("expected bad-return to be suppressed")
		}
		if d.Kind == KindTypeMismatch && d.Ignored {
			t.Fatalf("expected type-mismatch to remain active")
		}
	}
}

func TestDeterministicOrdering(t *testing.T) {
	c := NewCollector()
	c.Add(New(Range{Path: "b.py", StartLine: 1, StartColumn: 1}, KindUnknownName, "x"))
	c.Add(New(Range{Path: "a.py", StartLine: 5, StartColumn: 1}, KindUnknownName, "y"))
	c.Add(New(Range{Path: "a.py", StartLine: 1, StartColumn: 1}, KindUnknownName, "z"))
	ds := c.Diagnostics()
	if ds[0].Path != "a.py" || ds[0].Range.StartLine != 1 {
		t.Fatalf("expected sort by path then line, got %+v", ds[0])
	}
}
