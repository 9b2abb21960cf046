// Package answers is the lazy half of spec §4.3: given a module's
// binding.Table, resolve any key's value on demand, tying recursive
// knots with a three-state calculation cell per key (unset, in-progress
// with a recursion placeholder, done), and finally deep-force every
// unification variable into a concrete type before the module's
// Solutions are published.
//
// Grounded on the teacher's internal/analyzer/inference_solver.go
// (SolveConstraints's iterative fixed-point loop over pending
// constraints) and processor.go's pass sequencing, adapted from an eager
// single pass into the demand-driven get(key) the specification
// requires so two bindings that reference each other resolve correctly
// regardless of which one a caller asks for first.
package answers

import (
	"fmt"
	"sync"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/module"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/unify"
)

// State is one calculation cell's phase, per spec §4.3.
type State int

const (
	StateUnset State = iota
	StateInProgress
	StateDone
)

type cell struct {
	state       State
	placeholder types.Type // a Var for type-valued keys, nil otherwise
	value       types.Type
	err         error
}

// ClassLookup is the narrow interface answers needs from internal/classmeta
// to type ClassDef bindings (a full ClassObject, with MRO/attributes
// resolved) without importing classmeta directly — classmeta depends on
// answers to resolve base-class expressions, so the dependency must run
// this direction only.
type ClassLookup interface {
	// ClassObjectFor returns the ClassObject synthesized for a ClassDef
	// binding's key, computing it on first request.
	ClassObjectFor(key binding.Key) (*types.ClassObject, error)

	// Member resolves name by walking cls's MRO, applying descriptor
	// rules along the way — the same lookup spec §4.5's attribute-access
	// rule performs, needed here so evalExpr can type `instance.attr`
	// and `ClassName.attr` expressions.
	Member(cls *types.ClassObject, name string) (types.Type, bool)

	// AccessMember is Member plus real instance/class binding: a plain
	// callable becomes a bound method when instance is true, a
	// classmethod always binds to the class, a staticmethod never binds.
	AccessMember(cls *types.ClassObject, name string, instance bool) (types.Type, bool)

	// HasMeta reports whether cls is one this lookup actually has
	// metadata for, so a lookup miss against an unknown class (a
	// builtin, an unresolved import) doesn't get reported the same way
	// as a genuine missing-attribute against a known one.
	HasMeta(cls *types.ClassObject) bool
}

// Table is one module's answers memo: a calculation cell per binding key,
// a private unification-variable Store, and enough cross-module wiring
// (a registry handle, a diagnostic sink) to resolve imported names and
// report subtype failures encountered while solving.
type Table struct {
	Module   string
	bindings *binding.Table
	store    *unify.Store
	builtins *Builtins

	mu    sync.Mutex
	cells map[binding.Key]*cell

	registry *module.Registry
	diags    *diag.Collector
	classes  ClassLookup
	cross    CrossModuleResolver
}

// NewTable creates an empty answers table over bindings, ready for
// get() calls. classes may be nil until internal/classmeta is wired in;
// ClassDef keys resolve to a best-effort bare ClassObject until then.
func NewTable(mod string, bindings *binding.Table, registry *module.Registry, diags *diag.Collector, classes ClassLookup) *Table {
	return &Table{
		Module:   mod,
		bindings: bindings,
		store:    unify.NewStore(mod),
		builtins: NewBuiltins(),
		cells:    map[binding.Key]*cell{},
		registry: registry,
		diags:    diags,
		classes:  classes,
	}
}

// SetClassLookup wires this table's ClassDef resolution to cl after
// construction. internal/classmeta.Table needs a *Table to type
// base-list and field expressions, and this table needs a ClassLookup to
// resolve ClassDef bindings, so internal/schedule builds both empty and
// links them together once each exists rather than forcing either
// package to depend on the other's constructor argument.
func (t *Table) SetClassLookup(cl ClassLookup) { t.classes = cl }

// SetCrossModuleResolver wires the index CrossModuleGet needs to reach
// another module's Table. Only internal/schedule holds every module's
// Table at once, so it is the only thing that can supply one.
func (t *Table) SetCrossModuleResolver(r CrossModuleResolver) { t.cross = r }

// CrossModuleResolver looks up another already-registered module's
// answers Table by its dotted name.
type CrossModuleResolver interface {
	ResolveTable(modName string) (*Table, bool)
}

// Store exposes the table's private variable store, e.g. for
// internal/classmeta to allocate placeholders owned by this module.
func (t *Table) Store() *unify.Store { return t.store }

// Get resolves key's value, following the three-state protocol: done
// cells return their cached value; unset cells transition to in-progress
// behind a freshly allocated recursion placeholder before the
// key-specific evaluator runs; a re-entrant call during that evaluator's
// own run sees the placeholder and is expected to use it, tying the knot
// once the original call records the real answer.
func (t *Table) Get(key binding.Key) (types.Type, error) {
	t.mu.Lock()
	c, ok := t.cells[key]
	if !ok {
		c = &cell{state: StateUnset}
		t.cells[key] = c
	}
	switch c.state {
	case StateDone:
		t.mu.Unlock()
		return c.value, c.err
	case StateInProgress:
		// Re-entry: hand back the placeholder and record that this
		// happened so the outer call can tie the knot (spec §4.3 step 4).
		if v, ok := c.placeholder.(types.Var); ok {
			t.store.MarkForced(v)
		}
		t.mu.Unlock()
		return c.placeholder, nil
	}

	c.state = StateInProgress
	c.placeholder = t.freshPlaceholder(key)
	t.mu.Unlock()

	bd, ok := t.bindings.Get(key)
	if !ok {
		return t.finish(key, c, nil, fmt.Errorf("answers: no binding for key %s", key))
	}
	value, err := t.evaluate(key, bd)

	t.mu.Lock()
	placeholder := c.placeholder
	t.mu.Unlock()
	// Only tie the knot through the placeholder variable when some
	// re-entrant caller actually observed it (spec §4.3 step 4); the
	// common acyclic case publishes evaluate's result directly so callers
	// see a concrete type rather than an extra indirection to resolve.
	if v, ok := placeholder.(types.Var); ok && t.store.WasForced(v) {
		if werr := t.store.RecordRecursive(v, value); werr != nil && err == nil {
			err = werr
		}
		value = v
	}
	return t.finish(key, c, value, err)
}

func (t *Table) finish(key binding.Key, c *cell, value types.Type, err error) (types.Type, error) {
	t.mu.Lock()
	c.state = StateDone
	c.value = value
	c.err = err
	t.mu.Unlock()
	return value, err
}

// freshPlaceholder allocates the recursion placeholder appropriate to a
// key's shape: a unification variable for ordinary type-valued keys. The
// specification also names unit placeholders for "expectation" keys and
// sentinel ClassField/ClassMetadata placeholders for class-shaped keys;
// those belong to internal/classmeta's own calculation cells once it
// exists; the cells this table owns are all type-valued.
func (t *Table) freshPlaceholder(key binding.Key) types.Type {
	v := t.store.Fresh(unify.VarRecursive)
	return v
}

// GetType is a Get wrapper that always returns a type: on error it
// substitutes Any and drops the error without reporting it, for callers
// that need a best-effort answer rather than a propagated failure.
func (t *Table) GetType(key binding.Key) types.Type {
	v, err := t.Get(key)
	if err != nil {
		return types.AnyType{}
	}
	return v
}

// Finalize deep-forces every variable reachable from t into a concrete
// type (spec §4.3's "Finalization"), producing the frozen Solutions map
// for the module: one resolved type per binding key.
func (t *Table) Finalize() map[binding.Key]types.Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[binding.Key]types.Type, len(t.cells))
	for k, c := range t.cells {
		if c.state != StateDone || c.err != nil {
			out[k] = types.AnyType{}
			continue
		}
		out[k] = t.store.Finalize(c.value)
	}
	return out
}

// CrossModuleGet resolves an exported key belonging to another module,
// per spec §4.3's "Cross-module lookups": only a module's finalized,
// exported answers may be read from outside it.
func (t *Table) CrossModuleGet(modName, exportedName string) (types.Type, bool) {
	if t.registry == nil || t.cross == nil {
		return nil, false
	}
	m, ok := t.registry.Get(modName)
	if !ok || !m.AnswersReady || !m.IsExported(exportedName) {
		return nil, false
	}
	owner, ok := t.cross.ResolveTable(modName)
	if !ok {
		return nil, false
	}
	key, ok := owner.bindings.Latest(exportedName)
	if !ok {
		return nil, false
	}
	return owner.Get(*key)
}

// classResolver narrows t.classes to unify.ClassResolver for subtype
// checks: ClassLookup does not include the whole of unify.ClassResolver,
// but the classmeta.Table wired in via SetClassLookup always satisfies
// the wider interface too. Returns nil before classmeta is wired in or if a
// narrower stand-in is supplied (e.g. in a unit test), which unify.Check
// treats as "only identical classes are assignable".
func (t *Table) classResolver() unify.ClassResolver {
	cr, _ := t.classes.(unify.ClassResolver)
	return cr
}

// widenLiteral promotes a literal value type to its general class before a
// subtype check: unify's subset relation only compares two Literals for
// equality, so `x: int = 1` would otherwise report int's own literal form
// as not assignable to int itself.
func (t *Table) widenLiteral(got types.Type) types.Type {
	lit, ok := got.(types.Literal)
	if !ok {
		return got
	}
	return types.PromoteLiteral(lit, t.builtins.Int, t.builtins.Str, t.builtins.Bytes, t.builtins.Bool)
}

func (t *Table) reportSubtypeError(node ast.Node, kind diag.Kind, ctx diag.Context, got, want types.Type) {
	if t.diags == nil {
		return
	}
	r := node.Range()
	d := diag.New(diag.Range{Path: r.Path, StartLine: r.StartLine, StartColumn: r.StartColumn, EndLine: r.EndLine, EndColumn: r.EndColumn},
		kind, "%s is not assignable to %s", types.String(got), types.String(want))
	t.diags.Add(d.WithContext(ctx))
}

// reportAt records a free-form diagnostic at node's range, for checks
// that don't reduce to reportSubtypeError's "got is not assignable to
// want" shape (no-matching-overload, missing-attribute, unsupported
// operand).
func (t *Table) reportAt(node ast.Node, kind diag.Kind, format string, args ...any) {
	if t.diags == nil || node == nil {
		return
	}
	r := node.Range()
	d := diag.New(diag.Range{Path: r.Path, StartLine: r.StartLine, StartColumn: r.StartColumn, EndLine: r.EndLine, EndColumn: r.EndColumn},
		kind, format, args...)
	t.diags.Add(d)
}
