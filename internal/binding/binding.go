// Package binding is the Builder half of spec §4.1: one walk over a
// module's syntax tree produces a flat table of Binding Keys (one per
// name-definition site, per spec §3's "Binding keys" list) and the
// Binding each key maps to, without yet resolving any type — resolution
// is internal/answers's job, run lazily against this table.
//
// Grounded on the teacher's internal/analyzer (a single eager pass that
// both builds and immediately resolves bindings via
// InferenceContext/SolveConstraints); split here into a build phase and
// a separate lazy solve phase because spec §4.4 requires resolution to
// be driven by demand (one name at a time, the first time something asks
// for it) rather than eagerly in source order, so cyclic definitions
// resolve correctly.
package binding

import (
	"fmt"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/symtab"
)

// KeyKind names the flavor of binding key, mirroring spec §3's list
// (NameAssign, NameAnnotation, ParameterAnnotation, FunctionDef,
// ClassDef, Import, ImportFrom, ForTarget, WithTarget, ExceptName,
// PatternCapture, ComprehensionTarget, TypeAliasDef, TypeParam,
// SelfAttribute, AugAssign), plus the SubscriptValue, Narrow and Phi
// kinds documented below. global/nonlocal declarations produce no key;
// they are recorded in the scope table only.
type KeyKind int

const (
	KeyNameAssign KeyKind = iota
	KeyNameAnnotation
	KeyParameterAnnotation
	KeyFunctionDef
	KeyClassDef
	KeyImport
	KeyImportFrom
	KeyForTarget
	KeyWithTarget
	KeyExceptName
	KeyPatternCapture
	KeyComprehensionTarget
	KeyTypeAliasDef
	KeyTypeParam
	KeySelfAttribute
	KeyAugAssign
	// KeySubscriptValue records a `x[i] = v` target per spec §3's
	// SubscriptValue(sub-binding, subscript-expression) key: the base
	// expression and index live on Base/Index, the assigned value on Expr.
	KeySubscriptValue
	// KeyNarrow records a name's narrowed type inside one branch of an
	// `if`, per spec §4.2: NarrowBase names the key being narrowed and
	// NarrowOp the predicate extracted from the branch's test expression.
	KeyNarrow
	// KeyPhi joins the types two or more prior keys resolve to, used to
	// merge an if/else's branch exits back into one flow fact for uses
	// after the statement.
	KeyPhi
)

// NarrowOpKind is the flavor of predicate a branch's test expression can
// assert about a name, per spec §4.2's narrowing list.
type NarrowOpKind int

const (
	NarrowIsNone NarrowOpKind = iota
	NarrowIsNotNone
	NarrowTruthy
	NarrowFalsy
	NarrowIsInstance
	NarrowIsNotInstance
)

// NarrowOp is one narrowing predicate bindIf extracted from a test
// expression. Class is set only for NarrowIsInstance/NarrowIsNotInstance,
// naming the class expression isinstance() was called with.
type NarrowOp struct {
	Kind  NarrowOpKind
	Class ast.Expr
}

// Key identifies one binding uniquely within a module: the name plus the
// syntax location that introduced it, so two assignments to the same
// name produce two keys (spec §4.1's per-assignment, not per-name,
// granularity — narrowing needs to tell them apart).
type Key struct {
	Module string
	Name   string
	Kind   KeyKind
	Node   ast.Node
}

func (k Key) String() string {
	r := k.Node.Range()
	return fmt.Sprintf("%s:%s@%d:%d", k.Module, k.Name, r.StartLine, r.StartColumn)
}

// Binding is the not-yet-resolved right-hand side of a Key: the syntax
// that determines its type, plus enough context (an enclosing function's
// parameter list, a class's bases) for internal/answers to evaluate it
// without re-walking the tree.
type Binding struct {
	Key Key

	// Expr is set for bindings whose type comes from evaluating an
	// expression (assignment values, annotations, default values). For a
	// KeyNameAnnotation binding this is the assigned value (`x: T = value`),
	// never the annotation itself; see Annotation.
	Expr ast.Expr

	// Annotation is the declared type expression of a `x: T` or
	// `x: T = value` statement, set only on KeyNameAnnotation bindings.
	// Kept separate from Expr so the value (if any) can still be
	// evaluated and checked against the declared type.
	Annotation ast.Expr

	// Stmt is set for bindings whose type comes from a larger
	// declaration (FunctionDef, ClassDef, Import).
	Stmt ast.Stmt

	// Previous chains NameAssign-family bindings in flow order so the
	// answers solver can compute a narrowed/declared type without
	// re-scanning the scope, and so a PatternCapture binding (no static
	// annotation) can fall back to its predecessor's declared type.
	Previous *Key

	// AnnotationKey points to the key holding a prior `x: T` annotation
	// for a name now being assigned without one, honoring spec §4.1's
	// "declared type wins even for later unannotated assignments" rule.
	AnnotationKey *Key

	// Base and Index are set for KeySubscriptValue bindings: the
	// subscripted object expression and its index/slice expression(s).
	// Expr holds the assigned value.
	Base  ast.Expr
	Index []ast.Expr

	// NarrowBase and NarrowOp are set for KeyNarrow bindings: the key
	// whose type this one narrows, and the predicate to apply to it.
	NarrowBase *Key
	NarrowOp   *NarrowOp

	// PhiKeys is set for KeyPhi bindings: the keys to join once each is
	// resolved, replacing the dead flow-snapshot merge a branch used to
	// perform at bind time.
	PhiKeys []Key
}

// Table is one module's complete binding set plus the narrowing/scope
// structure the Builder produced while walking it.
type Table struct {
	Module   string
	bindings map[Key]*Binding
	byName   map[string][]*Key
}

func NewTable(module string) *Table {
	return &Table{Module: module, bindings: map[Key]*Binding{}, byName: map[string][]*Key{}}
}

func (t *Table) Add(b *Binding) {
	t.bindings[b.Key] = b
	t.byName[b.Key.Name] = append(t.byName[b.Key.Name], &b.Key)
}

func (t *Table) Get(k Key) (*Binding, bool) {
	b, ok := t.bindings[k]
	return b, ok
}

// Latest returns the most recently added binding key for name, the one
// flow-order assignment resolution should start from.
func (t *Table) Latest(name string) (*Key, bool) {
	keys := t.byName[name]
	if len(keys) == 0 {
		return nil, false
	}
	return keys[len(keys)-1], true
}

// KeysFor returns every key recorded for name, in the order the Builder
// added them (source/flow order) — internal/query needs the whole run,
// not just Latest's last element, to find the definition in scope at a
// particular cursor position rather than the one last in the file.
func (t *Table) KeysFor(name string) []*Key {
	keys := t.byName[name]
	out := make([]*Key, len(keys))
	copy(out, keys)
	return out
}

// byNameSnapshot returns the number of keys currently recorded for name,
// so bindIf can restore name's lookup history to this point after
// walking a branch that may have shadowed it with a narrowed binding.
func (t *Table) byNameSnapshot(name string) int {
	return len(t.byName[name])
}

// byNameRestore truncates name's key history back to n entries, as if
// every key appended to it since the matching byNameSnapshot had never
// been added. The bindings themselves stay in t.bindings; only the
// by-name index used by Latest rewinds, so a sibling branch (or code
// after the branch) doesn't see the other branch's narrowing.
func (t *Table) byNameRestore(name string, n int) {
	if keys, ok := t.byName[name]; ok && len(keys) > n {
		t.byName[name] = keys[:n]
	}
}

func (t *Table) All() []*Binding {
	out := make([]*Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, b)
	}
	return out
}

// Builder walks one module's syntax tree once, populating a Table and a
// symtab.Stack together so later phases see both the flat binding table
// and the scope nesting each binding was declared in.
type Builder struct {
	module string
	table  *Table
	scopes *symtab.Stack
	// selfAttrs accumulates `self.x = ...` assignments found inside
	// method bodies, promoted to KeySelfAttribute bindings on the owning
	// class once the method finishes (spec §4.1 "Self-attribute
	// promotion").
	selfAttrs map[string][]*Binding
	selfName  string
}

func NewBuilder(module string) *Builder {
	return &Builder{
		module:    module,
		table:     NewTable(module),
		scopes:    symtab.New(),
		selfAttrs: map[string][]*Binding{},
	}
}

// Build walks m and returns the completed Table.
func Build(module string, m *ast.Module) *Table {
	b := NewBuilder(module)
	for _, stmt := range m.Body {
		b.stmt(stmt)
	}
	return b.table
}

func (b *Builder) key(name string, kind KeyKind, node ast.Node) Key {
	return Key{Module: b.module, Name: name, Kind: kind, Node: node}
}

func (b *Builder) add(bd *Binding) *Key {
	if prev, ok := b.table.Latest(bd.Key.Name); ok {
		bd.Previous = prev
		if bd.AnnotationKey == nil && usesDeclaredType(bd.Key.Kind) {
			if prevBd, ok := b.table.Get(*prev); ok {
				if prev.Kind == KeyNameAnnotation {
					bd.AnnotationKey = prev
				} else {
					bd.AnnotationKey = prevBd.AnnotationKey
				}
			}
		}
	}
	b.table.Add(bd)
	b.scopes.Current().Declare(&symtab.Symbol{Name: bd.Key.Name, Kind: symtab.SymVariable, Node: bd.Key.Node})
	k := bd.Key
	return &k
}

// usesDeclaredType reports whether a binding of kind k should inherit a
// prior KeyNameAnnotation's declared type, honoring spec §4.1's "declared
// type wins even for later unannotated assignments" rule.
func usesDeclaredType(k KeyKind) bool {
	switch k {
	case KeyNameAssign, KeyAugAssign, KeyWithTarget, KeyPatternCapture,
		KeyForTarget, KeyComprehensionTarget:
		return true
	}
	return false
}
