package query

import (
	"github.com/oxhq/pyrechk/internal/answers"
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/utils"
)

// maxChainDepth bounds how many Import/ImportFrom hops GotoDefinition
// will cross before giving up, so a cycle of re-exports can't spin
// forever.
const maxChainDepth = 8

// Resolver is the narrow cross-module interface GotoDefinition needs to
// chase an imported name into the module that actually defines it.
// internal/schedule.Pipeline satisfies it; a standalone caller (tests,
// a future single-file mode) can supply a smaller stand-in.
type Resolver interface {
	Bindings(module string) (*binding.Table, bool)
	ModuleRange(module string) (ast.Range, bool)
}

// definitionAt finds the binding nearest name's own position among
// bindings.KeysFor(name), taken in order: the last key whose node starts
// at or before pos is the one flow-order resolution (the
// same shortcut internal/answers.evalNameRef already takes) would see
// from this point in the file.
func definitionAt(bindings *binding.Table, name string, pos Position) (*binding.Key, bool) {
	keys := bindings.KeysFor(name)
	var best *binding.Key
	for _, k := range keys {
		r := k.Node.Range()
		if r.StartLine > pos.Line || (r.StartLine == pos.Line && r.StartColumn > pos.Column) {
			continue
		}
		best = k
	}
	if best == nil && len(keys) > 0 {
		// No definition precedes the cursor (e.g. a forward reference to
		// a function defined later); fall back to the first one found.
		best = keys[0]
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// HoverResult is what Hover reports about the identifier under the
// cursor: its own name and its solved type.
type HoverResult struct {
	Name string
	Type types.Type
}

// Hover answers spec §6's "hover(module, offset) -> Type?": find the
// nearest identifier, resolve its definition, and read the type the
// answers table already solved for it.
func Hover(file *ast.Module, bindings *binding.Table, ans *answers.Table, pos Position) (*HoverResult, bool) {
	name, ok := NameAt(file, pos)
	if !ok {
		return nil, false
	}
	key, ok := definitionAt(bindings, name.Value, pos)
	if !ok {
		return nil, false
	}
	t, err := ans.Get(*key)
	if err != nil {
		return nil, false
	}
	return &HoverResult{Name: name.Value, Type: t}, true
}

// Location is the (module, range) pair GotoDefinition points at.
type Location struct {
	Module string
	Range  ast.Range
}

// GotoDefinition answers spec §6's "goto_definition(module, offset) ->
// (module, range)?". Per-assignment binding keys already give an exact
// definition site for ordinary names, so the only real chasing this
// model needs is across Import/ImportFrom bindings into the module they
// name — the concrete analog of the abstract Forward/Phi/Import/Module
// chain spec §6 describes, collapsed here because every reassignment
// already owns its own key rather than sharing one mutable slot a Phi
// node would need to merge.
func GotoDefinition(moduleName string, file *ast.Module, bindings *binding.Table, pos Position, resolve Resolver) (*Location, bool) {
	name, ok := NameAt(file, pos)
	if !ok {
		return nil, false
	}
	key, ok := definitionAt(bindings, name.Value, pos)
	if !ok {
		return nil, false
	}

	curModule, curBindings, curKey := moduleName, bindings, key
	for depth := 0; depth < maxChainDepth; depth++ {
		bd, ok := curBindings.Get(*curKey)
		if !ok {
			break
		}
		switch curKey.Kind {
		case binding.KeyImport:
			imp, ok := bd.Stmt.(*ast.Import)
			if !ok || resolve == nil {
				return &Location{Module: curModule, Range: curKey.Node.Range()}, true
			}
			target := importTargetPath(imp, curKey.Name)
			if r, ok := resolve.ModuleRange(target); ok {
				return &Location{Module: target, Range: r}, true
			}
			return &Location{Module: curModule, Range: curKey.Node.Range()}, true

		case binding.KeyImportFrom:
			imp, ok := bd.Stmt.(*ast.ImportFrom)
			if !ok || resolve == nil {
				return &Location{Module: curModule, Range: curKey.Node.Range()}, true
			}
			target := imp.Module
			if imp.Level > 0 {
				target = utils.ResolveRelativeImport(curModule, imp.Level, imp.Module)
			}
			exported := importedSourceName(imp, curKey.Name)
			nextBindings, ok := resolve.Bindings(target)
			if !ok {
				if r, ok := resolve.ModuleRange(target); ok {
					return &Location{Module: target, Range: r}, true
				}
				return &Location{Module: curModule, Range: curKey.Node.Range()}, true
			}
			nextKey, ok := nextBindings.Latest(exported)
			if !ok {
				if r, ok := resolve.ModuleRange(target); ok {
					return &Location{Module: target, Range: r}, true
				}
				return &Location{Module: curModule, Range: curKey.Node.Range()}, true
			}
			curModule, curBindings, curKey = target, nextBindings, nextKey
			continue
		}
		return &Location{Module: curModule, Range: curKey.Node.Range()}, true
	}
	return &Location{Module: curModule, Range: curKey.Node.Range()}, true
}

func importTargetPath(imp *ast.Import, localName string) string {
	for _, n := range imp.Names {
		alias := n.Alias
		if alias == "" {
			alias = topLevelComponent(n.Path)
		}
		if alias == localName {
			return n.Path
		}
	}
	return localName
}

func importedSourceName(imp *ast.ImportFrom, localName string) string {
	for _, n := range imp.Names {
		alias := n.Alias
		if alias == "" {
			alias = n.Name
		}
		if alias == localName {
			return n.Name
		}
	}
	return localName
}

func topLevelComponent(dotted string) string {
	for i, c := range dotted {
		if c == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

// InlayHint is one `: T` annotation InlayHints proposes inserting after
// an un-annotated binding's name.
type InlayHint struct {
	Range ast.Range
	Text  string
}

// InlayHints answers spec §6's "inlay_hints(module) -> [(offset, text)]":
// every NameAssign-family binding that has no declared annotation gets
// its solved type rendered as a hint, the same way the teacher's
// PrettifyType feeds hover text.
func InlayHints(bindings *binding.Table, ans *answers.Table) []InlayHint {
	var hints []InlayHint
	for _, bd := range bindings.All() {
		switch bd.Key.Kind {
		case binding.KeyNameAssign, binding.KeyForTarget, binding.KeyComprehensionTarget, binding.KeyPatternCapture:
		default:
			continue
		}
		if bd.AnnotationKey != nil {
			continue
		}
		t, err := ans.Get(bd.Key)
		if err != nil {
			continue
		}
		if _, isAny := t.(types.AnyType); isAny {
			continue
		}
		hints = append(hints, InlayHint{Range: bd.Key.Node.Range(), Text: ": " + types.String(t)})
	}
	return hints
}
