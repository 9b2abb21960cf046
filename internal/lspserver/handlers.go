package lspserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/query"
	"github.com/oxhq/pyrechk/internal/schedule"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/utils"
)

func (s *Server) handleInitialize(id any, params initializeParams) {
	root := ""
	switch {
	case params.RootURI != nil:
		root = uriToPath(*params.RootURI)
	case params.RootPath != nil:
		root = *params.RootPath
	}
	if root == "" {
		root = "."
	}

	config.IsLSPMode = true
	s.mu.Lock()
	s.rootDir = root
	cfg, err := config.LoadFromDir(root)
	if err != nil {
		cfg = config.Default()
	}
	s.cfg = cfg
	s.mu.Unlock()

	s.respond(id, initializeResult{Capabilities: serverCapabilities{
		TextDocumentSync:   1, // full document sync
		HoverProvider:      true,
		DefinitionProvider: true,
	}}, nil)
}

func (s *Server) handleDidOpen(params didOpenParams) {
	uri := params.TextDocument.URI
	s.mu.Lock()
	s.open[uri] = true
	s.mu.Unlock()
	s.reanalyzeAndPublish(uri)
}

// handleDidChange re-analyzes on every change notification even though
// content edits only take effect once the editor saves: schedule.Pipeline
// reads sources from disk, so an unsaved keystroke can't move diagnostics
// yet. Most editors autosave often enough that this still feels live.
func (s *Server) handleDidChange(params didChangeParams) {
	s.reanalyzeAndPublish(params.TextDocument.URI)
}

func (s *Server) handleDidClose(params didCloseParams) {
	s.mu.Lock()
	delete(s.open, params.TextDocument.URI)
	s.mu.Unlock()
}

// reanalyzeAndPublish re-runs the whole-project pipeline rooted at uri's
// own module and publishes the resulting diagnostics for uri. A document
// re-analysis only reruns the import graph reachable from the edited
// file; sibling modules already solved during a previous run keep their
// own published diagnostics until they are themselves opened or changed.
func (s *Server) reanalyzeAndPublish(uri string) {
	s.mu.Lock()
	cfg := s.cfg
	rootDir := s.rootDir
	s.mu.Unlock()
	if cfg == nil {
		cfg = config.Default()
		rootDir = "."
	}

	path := uriToPath(uri)
	modName, sourceRoot, err := moduleNameFor(cfg, rootDir, path)
	if err != nil {
		return
	}

	diags := diag.NewCollector()
	p := schedule.New(cfg, schedule.NewFSResolver(cfg, sourceRoot), diags)
	_ = p.Run(context.Background(), modName)

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	s.publishDiagnostics(path, uri, diags.Diagnostics())
}

// moduleNameFor mirrors pkg/checker's rootModuleName: it turns an
// absolute file path into the dotted module name schedule.Pipeline.Run
// expects, plus the source root that module name is relative to.
func moduleNameFor(cfg *config.Config, dir, absPath string) (name, sourceRoot string, err error) {
	for _, root := range cfg.SourceRoots {
		absRoot := filepath.Join(dir, root)
		rel, relErr := filepath.Rel(absRoot, absPath)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		return utils.ModuleNameFromPath(absRoot, absPath), absRoot, nil
	}
	return "", "", fmt.Errorf("lspserver: %s is not under any configured source root", absPath)
}

func (s *Server) currentModule(uri string) (name string, file *ast.Module, p *schedule.Pipeline, ok bool) {
	s.mu.Lock()
	cfg, rootDir, p := s.cfg, s.rootDir, s.pipeline
	s.mu.Unlock()
	if p == nil || cfg == nil {
		return "", nil, nil, false
	}
	path := uriToPath(uri)
	modName, _, err := moduleNameFor(cfg, rootDir, path)
	if err != nil {
		return "", nil, nil, false
	}
	mod, ok := p.Registry().Get(modName)
	if !ok || len(mod.Files) == 0 {
		return "", nil, nil, false
	}
	return modName, mod.Files[0], p, true
}

func (s *Server) handleHover(id any, params hoverParams) {
	modName, file, p, ok := s.currentModule(params.TextDocument.URI)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	bindings, ok := p.Bindings(modName)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	ans, ok := p.AnswersFor(modName)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	res, ok := query.Hover(file, bindings, ans, toQueryPosition(params.Position))
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	value := fmt.Sprintf("```python\n%s: %s\n```", res.Name, types.String(res.Type))
	s.respond(id, hoverResult{Contents: markupContent{Kind: "markdown", Value: value}}, nil)
}

func (s *Server) handleDefinition(id any, params definitionParams) {
	modName, file, p, ok := s.currentModule(params.TextDocument.URI)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	bindings, ok := p.Bindings(modName)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	loc, ok := query.GotoDefinition(modName, file, bindings, toQueryPosition(params.Position), p)
	if !ok {
		s.respond(id, nil, nil)
		return
	}
	s.respond(id, location{URI: pathToURI(loc.Range.Path), Range: toLSPRange(loc.Range)}, nil)
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func pathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

func toLSPRange(r ast.Range) lspRange {
	return lspRange{
		Start: position{Line: r.StartLine - 1, Character: r.StartColumn - 1},
		End:   position{Line: r.EndLine - 1, Character: r.EndColumn - 1},
	}
}
