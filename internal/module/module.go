// Package module is the cross-module state spec §4.5 describes: a
// registry keyed by dotted module name, a resolver interface for finding
// a module's source given an import statement, and the two-phase stdlib
// shim bootstrap that breaks the chicken-and-egg problem of needing
// `builtins` loaded before anything else can type-check but needing the
// checker running before `builtins` can be loaded.
//
// Grounded on the teacher's internal/modules package (Module struct with
// HeadersAnalyzed/HeadersAnalyzing/BodiesAnalyzed/BodiesAnalyzing flags,
// a Name/Dir/Files/Exports/Imports shape, IsVirtual for built-in
// packages) and virtual_init.go's approach to seeding built-ins before
// user code loads.
package module

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/oxhq/pyrechk/internal/ast"
)

// ID uniquely identifies a loaded module for the lifetime of one run.
// Unification variables are not tagged with it: types.Var.Owner holds the
// owning module's dotted name, and the cross-module leak check compares
// those names.
type ID = uuid.UUID

// Module is one loaded compilation unit: a dotted name, its source
// files, and the cross-module bookkeeping the answers solver needs to
// know it's safe to read the module's exports.
type Module struct {
	ID   ID
	Name string // dotted name, e.g. "pkg.sub.mod"
	Path string // filesystem path, "" for a virtual (stdlib shim) module

	Files []*ast.Module

	// IsVirtual marks a stdlib shim seeded by Bootstrap rather than
	// loaded from project source.
	IsVirtual bool

	mu      sync.RWMutex
	exports map[string]bool

	// The three-state protocol (spec §4.4) tracked per phase: a module's
	// exports must be fully computed before any importer can read them,
	// and its answers must be fully computed before any importer can use
	// inferred (as opposed to declared) types from it.
	ExportsReady  bool
	ExportsInProg bool
	AnswersReady  bool
	AnswersInProg bool
}

func newModule(name, path string) *Module {
	return &Module{ID: uuid.New(), Name: name, Path: path, exports: map[string]bool{}}
}

// Export marks name as part of this module's public surface.
func (m *Module) Export(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[name] = true
}

// IsExported reports whether name was marked exported.
func (m *Module) IsExported(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exports[name]
}

// ExportedNames returns every exported name, for wildcard imports.
func (m *Module) ExportedNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.exports))
	for n := range m.exports {
		names = append(names, n)
	}
	return names
}

// Resolver finds the source of a module given its dotted name, the
// external collaborator spec §6 calls "module resolution" (walking
// source roots, site-packages, and namespace packages).
type Resolver interface {
	// Resolve returns the filesystem paths of name's source file(s) (more
	// than one for a package's `__init__.py` plus submodules loaded
	// together) or ok=false if name cannot be found.
	Resolve(name string) (paths []string, ok bool)
}

// Registry is the process-wide table of loaded modules, guarded for the
// concurrent worker pool in internal/schedule.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Module
	resolver Resolver
}

func NewRegistry(resolver Resolver) *Registry {
	return &Registry{byName: map[string]*Module{}, resolver: resolver}
}

// GetOrCreate returns the existing Module for name, or creates and
// registers a new placeholder one — the "placeholder-then-real" two-step
// that lets a cyclic import observe a module object before its body has
// been loaded.
func (r *Registry) GetOrCreate(name string) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byName[name]; ok {
		return m
	}
	m := newModule(name, "")
	r.byName[name] = m
	return m
}

// Get returns the Module for name if it has already been registered.
func (r *Registry) Get(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// All returns every registered module, for whole-program passes.
func (r *Registry) All() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Module, 0, len(r.byName))
	for _, m := range r.byName {
		out = append(out, m)
	}
	return out
}

// Resolve delegates to the registry's Resolver, for a binder that needs
// to turn an import statement into a module name before calling
// GetOrCreate.
func (r *Registry) Resolve(name string) (paths []string, ok bool) {
	if r.resolver == nil {
		return nil, false
	}
	return r.resolver.Resolve(name)
}

// Bootstrap seeds the registry with a placeholder `builtins` module
// before any user source loads, then lets the caller fill in its real
// contents (the stdlib shim) and mark it ready — breaking the
// chicken-and-egg dependency every other module's name resolution has on
// `builtins` already existing.
func Bootstrap(r *Registry, fill func(b *Module)) (*Module, error) {
	b := r.GetOrCreate("builtins")
	if b.ExportsReady {
		return b, nil
	}
	if b.ExportsInProg {
		return nil, fmt.Errorf("module: builtins bootstrap re-entered")
	}
	b.ExportsInProg = true
	b.IsVirtual = true
	fill(b)
	b.ExportsInProg = false
	b.ExportsReady = true
	b.AnswersReady = true
	return b, nil
}
