// Package classmeta is spec §4.5's class-metadata subsystem: per-class
// method-resolution order, attribute lookup through that ancestry,
// descriptor handling (classmethod/staticmethod/property/generic
// descriptors), protocol structural membership, and dataclass field
// synthesis — computed lazily, one class at a time, through the same
// three-state calculation protocol internal/answers uses for ordinary
// bindings (spec's "a reserved sentinel ClassField or ClassMetadata for
// class-shaped keys").
//
// Grounded on the teacher's internal/analyzer/declarations_instances*.go
// (trait-instance resolution: look up a named declaration, validate its
// shape, record a diagnostic and fall back to an empty result rather than
// panic on failure) and internal/symbols/symbol_table_traits.go (a
// by-name registry of declarations consulted lazily, with outer-scope
// fallback on miss); restructured around nominal single-rooted class
// inheritance and C3 linearization instead of Funxy's trait/instance
// model, since the source language here has neither traits nor instance
// declarations.
package classmeta

import (
	"fmt"
	"sync"

	"github.com/oxhq/pyrechk/internal/answers"
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/types"
)

// Flavor tags the synthesis a class underwent, per spec §4.5's "optional
// flavor metadata (typed-dict, named-tuple, enum, protocol, dataclass,
// NewType)".
type Flavor int

const (
	FlavorPlain Flavor = iota
	FlavorProtocol
	FlavorDataclass
	FlavorEnum
	FlavorTypedDict
	FlavorNamedTuple
	FlavorNewType
)

// Field is one attribute a class defines directly (not through ancestry):
// a method, a class-level assignment, or a synthesized self-attribute.
type Field struct {
	Type       types.Type
	ReadOnly   bool // frozen dataclass field, or a descriptor with no __set__
	ClassVar   bool
	Origin     *types.ClassObject
	Decoration *types.DecorationKind // non-nil for classmethod/staticmethod/property members
	KWOnly     bool // dataclass field declared after a KW_ONLY sentinel
	HasDefault bool
}

// Meta is one class's resolved metadata: everything spec §4.5 names.
type Meta struct {
	Class      *types.ClassObject
	Bases      []*types.ClassObject
	MRO        []*types.ClassObject // Class itself first; empty on linearization failure
	Metaclass  *types.ClassObject
	Keywords   map[string]types.Type
	Flavor     Flavor
	Fields     map[string]*Field // own fields only; ancestry walked separately
	FieldOrder []string          // Fields' keys in declaration order, for dataclass synthesis
	MROFailed  bool
	resolving  bool
}

// addField records f under name, appending to FieldOrder the first time
// name is seen so dataclass synthesis can walk fields in declaration
// order despite Fields itself being a map.
func (m *Meta) addField(name string, f *Field) {
	if _, exists := m.Fields[name]; !exists {
		m.FieldOrder = append(m.FieldOrder, name)
	}
	m.Fields[name] = f
}

type cellState int

const (
	stateUnset cellState = iota
	stateInProgress
	stateDone
)

type cell struct {
	state  cellState
	object *types.ClassObject
	meta   *Meta
	err    error
}

// Table is one module's class-metadata memo, mirroring answers.Table's
// shape: one calculation cell per ClassDef binding key, plus a side index
// from *types.ClassObject to its Meta so the unify.ClassResolver and
// answers.ClassLookup methods below can serve lookups that only have the
// object, not the originating key (an imported base class, say).
type Table struct {
	Module   string
	bindings *binding.Table
	answers  *answers.Table
	diags    *diag.Collector

	mu      sync.Mutex
	cells   map[binding.Key]*cell
	byClass map[*types.ClassObject]*Meta
}

// NewTable creates an empty class-metadata table. answers is this
// module's resolved-value table, used to type base-list and field
// expressions with the same evaluator ordinary bindings use; diags may be
// nil to discard class-definition diagnostics (e.g. in tests).
func NewTable(mod string, bindings *binding.Table, ans *answers.Table, diags *diag.Collector) *Table {
	return &Table{
		Module:   mod,
		bindings: bindings,
		answers:  ans,
		diags:    diags,
		cells:    map[binding.Key]*cell{},
		byClass:  map[*types.ClassObject]*Meta{},
	}
}

// ClassObjectFor implements answers.ClassLookup: resolve key's ClassDef
// binding to a fully-metadata'd ClassObject, computing MRO/fields/flavor
// on first request.
func (t *Table) ClassObjectFor(key binding.Key) (*types.ClassObject, error) {
	t.mu.Lock()
	c, ok := t.cells[key]
	if !ok {
		c = &cell{state: stateUnset}
		t.cells[key] = c
	}
	switch c.state {
	case stateDone:
		t.mu.Unlock()
		return c.object, c.err
	case stateInProgress:
		// A base-class cycle: hand back the partially built object with
		// empty ancestry; the caller (our own MRO computation further up
		// the call stack) reports the cycle once it unwinds.
		t.mu.Unlock()
		return c.object, nil
	}
	c.state = stateInProgress
	bd, ok := t.bindings.Get(key)
	if !ok {
		return t.finish(c, nil, fmt.Errorf("classmeta: no binding for key %s", key))
	}
	cd, ok := bd.Stmt.(*ast.ClassDef)
	if !ok {
		return t.finish(c, nil, fmt.Errorf("classmeta: binding for key %s is not a class", key))
	}
	obj := &types.ClassObject{Name: cd.Name, Module: t.Module, QualName: t.Module + "." + cd.Name}
	meta := &Meta{Class: obj, Keywords: map[string]types.Type{}, Fields: map[string]*Field{}, resolving: true}
	t.byClass[obj] = meta
	c.object = obj
	t.mu.Unlock()

	t.buildMeta(key, cd, meta)

	t.mu.Lock()
	meta.resolving = false
	if obj.Params == nil {
		obj.Params = typeParamsOf(cd.TypeParams)
	}
	if meta.Flavor == FlavorProtocol {
		obj.IsProtocol = true
	}
	t.mu.Unlock()

	return t.finish(c, obj, nil)
}

func (t *Table) finish(c *cell, obj *types.ClassObject, err error) (*types.ClassObject, error) {
	t.mu.Lock()
	c.state = stateDone
	c.object = obj
	c.err = err
	t.mu.Unlock()
	return obj, err
}

// metaOf returns cls's metadata if this table computed it; classes from
// another module or the builtins shim have none, and callers treat that
// as "no further ancestry, no structural members known".
func (t *Table) metaOf(cls *types.ClassObject) (*Meta, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byClass[cls]
	return m, ok
}

func typeParamsOf(specs []ast.TypeParamSpec) []types.TypeParam {
	if len(specs) == 0 {
		return nil
	}
	out := make([]types.TypeParam, len(specs))
	for i, sp := range specs {
		out[i] = types.TypeParam{Name: sp.Name, IsTuple: sp.IsTuple, IsParamSpec: sp.IsParamSpec}
	}
	return out
}
