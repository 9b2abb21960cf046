// Package checker is the small public façade a host process embeds to
// run the whole-program pipeline without touching internal/schedule
// directly — the analog of the teacher's pkg/cli/entry.go front door,
// minus the VM-embedding half (execution is out of scope here).
package checker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/schedule"
	"github.com/oxhq/pyrechk/internal/types"
	"github.com/oxhq/pyrechk/internal/utils"
)

// Result is one completed run: the solved type of every binding key in
// every module that was reached, plus every diagnostic the run produced.
type Result struct {
	Solutions   map[string]map[binding.Key]types.Type // module name -> key -> type
	Diagnostics []*diag.Diagnostic
}

// Check loads cfg's project rooted at dir and type-checks entry (a
// source file path within one of cfg's source roots), returning every
// reached module's solved types and the full diagnostic set.
func Check(ctx context.Context, cfg *config.Config, dir, entry string) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	root, err := rootModuleName(cfg, dir, entry)
	if err != nil {
		return nil, err
	}

	diags := diag.NewCollector()
	p := schedule.New(cfg, schedule.NewFSResolver(cfg, dir), diags)
	if err := p.Run(ctx, root); err != nil {
		return nil, err
	}

	res := &Result{Solutions: map[string]map[binding.Key]types.Type{}}
	for _, mod := range p.Registry().All() {
		if sols := p.Solutions(mod.Name); sols != nil {
			res.Solutions[mod.Name] = sols
		}
	}
	res.Diagnostics = diags.Diagnostics()
	return res, nil
}

// rootModuleName turns entry (an absolute or dir-relative file path)
// into the dotted module name schedule.Pipeline.Run expects, relative to
// whichever of cfg's source roots actually contains it.
func rootModuleName(cfg *config.Config, dir, entry string) (string, error) {
	absEntry := entry
	if !filepath.IsAbs(absEntry) {
		absEntry = filepath.Join(dir, entry)
	}
	for _, root := range cfg.SourceRoots {
		absRoot := filepath.Join(dir, root)
		rel, err := filepath.Rel(absRoot, absEntry)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		return utils.ModuleNameFromPath(absRoot, absEntry), nil
	}
	return "", fmt.Errorf("checker: %s is not under any configured source root", entry)
}
