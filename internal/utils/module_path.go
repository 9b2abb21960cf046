// Package utils collects small cross-package helpers that do not deserve
// their own package. Grounded on the teacher's internal/utils
// (path_utils.go), adapted from Funxy's import-path conventions to
// dotted Python module names.
package utils

import (
	"path/filepath"
	"strings"
)

// SourceExt is the recognized source file extension.
const SourceExt = ".py"

// HasSourceExt reports whether path ends with the recognized extension.
func HasSourceExt(path string) bool {
	return strings.HasSuffix(path, SourceExt)
}

// ModuleNameFromPath derives a dotted module name from a file path
// relative to a source root, e.g. "pkg/sub/mod.py" -> "pkg.sub.mod", and
// "pkg/sub/__init__.py" -> "pkg.sub".
func ModuleNameFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = strings.TrimSuffix(rel, SourceExt)
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "__init__" {
		rel = "."
	}
	return strings.ReplaceAll(rel, "/", ".")
}

// ResolveRelativeImport joins a relative import (leading dots) against
// the importing module's own dotted package path.
func ResolveRelativeImport(fromPackage string, level int, module string) string {
	parts := strings.Split(fromPackage, ".")
	if level > len(parts) {
		level = len(parts)
	}
	base := parts[:len(parts)-level]
	if module == "" {
		return strings.Join(base, ".")
	}
	return strings.Join(append(append([]string{}, base...), module), ".")
}
