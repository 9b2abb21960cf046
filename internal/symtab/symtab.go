// Package symtab is the scope-stack half of spec §4.1's binder: a flow-
// sensitive stack of scopes a syntax walk pushes and pops as it descends
// into functions, classes, and comprehensions, tracking both the static
// declaration set of a scope and (within function bodies) the
// flow-narrowed type of each name at the current program point.
//
// Grounded on the teacher's internal/symbols package (Symbol/SymbolKind/
// ScopeType, one flat SymbolTable per compilation unit with explicit
// Scope push/pop); restructured here as an explicit stack object rather
// than a table-plus-depth-counter, since the checker needs to save and
// restore flow state across branches (spec §4.1 "Narrowing") in a way
// Funxy's non-narrowing analyzer never had to.
package symtab

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/types"
)

// ScopeKind distinguishes the lexical scopes spec §4.1 names.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClassBody
	ScopeFunction
	ScopeLambda
	ScopeComprehension
	ScopeAnnotation
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClassBody:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	case ScopeAnnotation:
		return "annotation"
	}
	return "?"
}

// SymbolKind tags what a name inside a scope refers to.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymClass
	SymParam
	SymImport
	SymTypeParam
)

// Symbol is one static declaration inside a Scope.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Node       ast.Node
	IsGlobal   bool // declared `global` in the enclosing function
	IsNonlocal bool // declared `nonlocal`
}

// Scope is one entry of the stack: the static declaration set found by a
// pre-pass over the body (spec §4.1's "scope is built before narrowing
// runs") plus a flow table of the narrowed type each name currently
// holds at the walk's present position.
type Scope struct {
	Kind    ScopeKind
	Node    ast.Node
	symbols map[string]*Symbol
	flow    map[string]types.Type
	// barrier marks a function/lambda/comprehension scope boundary: a
	// name lookup that reaches a barrier without a `global`/`nonlocal`
	// declaration skips the enclosing non-module scopes and checks only
	// the module scope.
	barrier bool
}

func newScope(kind ScopeKind, node ast.Node, barrier bool) *Scope {
	return &Scope{
		Kind:    kind,
		Node:    node,
		symbols: map[string]*Symbol{},
		flow:    map[string]types.Type{},
		barrier: barrier,
	}
}

// Declare adds a static declaration to the scope, overwriting a same-
// named prior declaration (re-assignment and redefinition both flow
// through this single call site).
func (s *Scope) Declare(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// LookupLocal returns the symbol declared directly in this scope.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// SetFlow records name's narrowed type at the current program point.
func (s *Scope) SetFlow(name string, t types.Type) {
	s.flow[name] = t
}

// Flow returns name's narrowed type if the current scope has one.
func (s *Scope) Flow(name string) (types.Type, bool) {
	t, ok := s.flow[name]
	return t, ok
}

// Snapshot copies the flow table, for branch narrowing (spec §4.1): each
// arm of an if/else narrows from the same starting snapshot and the
// results are joined back on exit.
func (s *Scope) Snapshot() map[string]types.Type {
	cp := make(map[string]types.Type, len(s.flow))
	for k, v := range s.flow {
		cp[k] = v
	}
	return cp
}

// Restore replaces the flow table with a previously taken Snapshot.
func (s *Scope) Restore(snap map[string]types.Type) {
	s.flow = snap
}

// Stack is the scope stack a syntax walk threads through one module's
// binding pass.
type Stack struct {
	scopes []*Scope
	// loops tracks nested loop bodies so `break`/`continue` binding can
	// validate placement and narrowing can special-case the loop-else
	// clause (spec §4.2's For/While Orelse).
	loops []loopCtx
}

type loopCtx struct {
	hasBreak bool
}

// New starts a stack rooted at one module scope.
func New() *Stack {
	s := &Stack{}
	s.Push(ScopeModule, nil)
	return s
}

// Push enters a new scope. Function, lambda, and comprehension scopes are
// lookup barriers; module and class-body scopes are not (a class body can
// see its enclosing module's names without `global`).
func (s *Stack) Push(kind ScopeKind, node ast.Node) *Scope {
	barrier := kind == ScopeFunction || kind == ScopeLambda || kind == ScopeComprehension
	sc := newScope(kind, node, barrier)
	s.scopes = append(s.scopes, sc)
	return sc
}

// Pop leaves the innermost scope.
func (s *Stack) Pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Current returns the innermost scope.
func (s *Stack) Current() *Scope {
	return s.scopes[len(s.scopes)-1]
}

// Module returns the outermost (module) scope.
func (s *Stack) Module() *Scope {
	return s.scopes[0]
}

// Resolve walks outward from the innermost scope looking for name,
// honoring `global`/`nonlocal` overrides and lookup barriers, and
// returns the scope that owns the declaration.
func (s *Stack) Resolve(name string) (*Scope, *Symbol, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sym, ok := sc.LookupLocal(name); ok {
			if sym.IsGlobal {
				if gsym, ok := s.Module().LookupLocal(name); ok {
					return s.Module(), gsym, true
				}
				return nil, nil, false
			}
			return sc, sym, true
		}
		if sc.barrier && !sc.declaresGlobalOrNonlocal(name) {
			if sym, ok := s.Module().LookupLocal(name); ok && i > 0 {
				return s.Module(), sym, true
			}
			break
		}
	}
	return nil, nil, false
}

func (sc *Scope) declaresGlobalOrNonlocal(name string) bool {
	sym, ok := sc.symbols[name]
	return ok && (sym.IsGlobal || sym.IsNonlocal)
}

// PushLoop enters a `for`/`while` body for break/continue tracking.
func (s *Stack) PushLoop() {
	s.loops = append(s.loops, loopCtx{})
}

// PopLoop leaves a loop body, returning whether it contained a `break`
// (spec §4.2: a loop's Orelse is skipped when a break fired).
func (s *Stack) PopLoop() bool {
	l := s.loops[len(s.loops)-1]
	s.loops = s.loops[:len(s.loops)-1]
	return l.hasBreak
}

// MarkBreak records that the innermost loop was exited via `break`.
func (s *Stack) MarkBreak() {
	if len(s.loops) > 0 {
		s.loops[len(s.loops)-1].hasBreak = true
	}
}

// InLoop reports whether a `break`/`continue` at the current position is
// valid.
func (s *Stack) InLoop() bool {
	return len(s.loops) > 0
}
