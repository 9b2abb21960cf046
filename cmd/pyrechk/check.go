package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/utils"
	"github.com/oxhq/pyrechk/pkg/checker"
)

func runCheck(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}

	cfg, dir, err := loadConfigFor(absTarget)
	if err != nil {
		return err
	}

	entry, err := resolveEntry(cfg, dir, absTarget)
	if err != nil {
		return err
	}

	result, err := checker.Check(context.Background(), cfg, dir, entry)
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		printDiagnostic(cmd, d)
	}

	active := 0
	for _, d := range result.Diagnostics {
		if !d.Ignored {
			active++
		}
	}
	if active > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d error%s\n", active, plural(active))
		return errSilent{}
	}
	return nil
}

// errSilent carries a non-zero exit code without cobra printing an
// "Error: " line on top of diagnostics already rendered to stderr.
type errSilent struct{}

func (errSilent) Error() string { return "" }

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func printDiagnostic(cmd *cobra.Command, d *diag.Diagnostic) {
	w := cmd.OutOrStdout()
	if d.Ignored {
		fmt.Fprintf(w, "%s\n", colorize(ansiDim, fmt.Sprintf("%s: %s [%s] (suppressed)", d.Range, d.Message, d.Kind)))
		return
	}
	label := colorize(ansiRed, "error")
	if d.Kind == diag.KindRevealType {
		label = colorize(ansiYellow, "note")
	}
	fmt.Fprintf(w, "%s: %s: %s [%s]\n", d.Range, label, d.Message, d.Kind)
}

// loadConfigFor finds pyrechk.yaml governing absTarget, returning the
// parsed config and the directory it is relative to. The --config flag
// takes precedence over upward discovery; no file on disk at all falls
// back to config.Default() rooted at absTarget's own directory (or
// absTarget itself if it is already a directory).
func loadConfigFor(absTarget string) (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, filepath.Dir(configPath), nil
	}

	startDir := absTarget
	if info, err := os.Stat(absTarget); err == nil && !info.IsDir() {
		startDir = filepath.Dir(absTarget)
	}

	found, err := config.Find(startDir)
	if err != nil {
		return nil, "", err
	}
	if found == "" {
		return config.Default(), startDir, nil
	}
	cfg, err := config.Load(found)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(found), nil
}

// resolveEntry turns absTarget into the file pkg/checker.Check should
// start from: itself if it already names a source file, or its
// dirBase.py entry point if it names a package directory, matching the
// teacher's directory-to-entry-file resolution in cmd/funxy/main.go.
func resolveEntry(cfg *config.Config, dir, absTarget string) (string, error) {
	info, err := os.Stat(absTarget)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return absTarget, nil
	}

	base := filepath.Base(absTarget)
	candidate := filepath.Join(absTarget, base+utils.SourceExt)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	candidate = filepath.Join(absTarget, "__init__"+utils.SourceExt)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("no entry file found in package directory %s", absTarget)
}
