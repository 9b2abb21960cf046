package diag

import (
	"fmt"
	"sort"
)

// Collector accumulates diagnostics for one module, deduplicating by
// position+kind exactly like the teacher's walker.addError
// (internal/analyzer/analyzer.go): "%d:%d:%s" keyed on line, column, code.
// The solver never raises (§7's propagation policy); every error path
// funnels through Add instead.
type Collector struct {
	seen  map[string]*Diagnostic
	order []string

	// suppressed holds, per "path:line" key, the kinds a
	// `# type: ignore[code]` comment suppresses on that line; blanket marks
	// the lines carrying a bare `# type: ignore`, which suppresses every
	// kind — the rule from SPEC_FULL.md's suppression-comment section.
	suppressed map[string]map[Kind]bool
	blanket    map[string]bool
}

func NewCollector() *Collector {
	return &Collector{
		seen:       map[string]*Diagnostic{},
		suppressed: map[string]map[Kind]bool{},
		blanket:    map[string]bool{},
	}
}

func lineKey(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// Suppress records that the given line carries a suppression comment.
// kinds == nil means "# type: ignore" (suppress everything on the line);
// a non-nil, possibly-empty slice means "# type: ignore[k1,k2]".
func (c *Collector) Suppress(path string, line int, kinds []Kind) {
	key := lineKey(path, line)
	if kinds == nil {
		c.blanket[key] = true
		return
	}
	set := c.suppressed[key]
	if set == nil {
		set = map[Kind]bool{}
		c.suppressed[key] = set
	}
	for _, k := range kinds {
		set[k] = true
	}
}

// Add records d, applying suppression and deduplication. A suppressed
// diagnostic is still recorded (with Ignored = true) so it reaches the
// auxiliary channel spec §7 requires, rather than being dropped.
func (c *Collector) Add(d *Diagnostic) {
	key := lineKey(d.Path, d.Range.StartLine)
	if c.blanket[key] {
		d.Ignored = true
	} else if set := c.suppressed[key]; set != nil && set[d.Kind] {
		d.Ignored = true
	}

	dedupKey := fmt.Sprintf("%s:%d:%d:%s", d.Path, d.Range.StartLine, d.Range.StartColumn, d.Kind)
	if _, ok := c.seen[dedupKey]; !ok {
		c.order = append(c.order, dedupKey)
	}
	c.seen[dedupKey] = d
}

// Diagnostics returns every recorded diagnostic, sorted for the
// deterministic delivery order §5 requires ("emitted errors are sorted
// and deduplicated before being delivered").
func (c *Collector) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, 0, len(c.seen))
	for _, k := range c.order {
		out = append(out, c.seen[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Range.StartLine != b.Range.StartLine {
			return a.Range.StartLine < b.Range.StartLine
		}
		if a.Range.StartColumn != b.Range.StartColumn {
			return a.Range.StartColumn < b.Range.StartColumn
		}
		return a.Kind < b.Kind
	})
	return out
}

// Active returns only non-ignored diagnostics, the ones a CLI run should
// fail on.
func (c *Collector) Active() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range c.Diagnostics() {
		if !d.Ignored {
			out = append(out, d)
		}
	}
	return out
}
