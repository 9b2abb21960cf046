package lspserver

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/diag"
)

// publishDiagnostics sends every diagnostic on path's own file back to the
// editor, dropping the rest of the project's diagnostics the reanalysis
// run also produced. Ignored diagnostics (reveal_type notes, suppressed
// lines) are still published as hints so editors can render them inline.
func (s *Server) publishDiagnostics(path, uri string, all []*diag.Diagnostic) {
	out := make([]lspDiagnostic, 0, len(all))
	for _, d := range all {
		if d.Range.Path != path {
			continue
		}
		out = append(out, lspDiagnostic{
			Range:    toLSPRange(ast.Range(d.Range)),
			Severity: severityFor(d),
			Code:     string(d.Kind),
			Message:  d.Message,
			Source:   "pyrechk",
		})
	}
	s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{URI: uri, Diagnostics: out})
}

func severityFor(d *diag.Diagnostic) int {
	if d.Ignored || d.Kind == diag.KindRevealType {
		return severityHint
	}
	return severityError
}
