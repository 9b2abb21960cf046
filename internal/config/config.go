// Package config loads pyrechk.yaml, the project-level configuration
// spec §6 names: source roots, the site-packages search path, the target
// language/platform version, wildcard-import policy, and whether string
// annotations are parsed eagerly or lazily.
//
// Grounded on the teacher's internal/ext.LoadConfig/ParseConfig/FindConfig
// (funxy.yaml via gopkg.in/yaml.v3, upward directory search, defaults
// filled in after unmarshal) and internal/config/constants.go's
// IsTestMode/IsLSPMode package-level mode flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// IsTestMode is a package-level mode flag for test runs. No code in this
// module sets or reads it; internal/types has its own, separate TestMode
// flag that normalizes display.
var IsTestMode = false

// IsLSPMode is set by cmd/lsp at startup.
var IsLSPMode = false

const FileName = "pyrechk.yaml"

// WildcardPolicy names how `from m import *` is to populate the importing
// module's namespace when m declares no `__all__`. The value is validated
// on load, but no checker stage reads it: a wildcard import binds no
// names under either policy and is never reported.
type WildcardPolicy string

const (
	// WildcardPublicNames names the policy of importing every name not
	// starting with `_`.
	WildcardPublicNames WildcardPolicy = "public-names"
	// WildcardDisallow names the policy of rejecting wildcard imports.
	WildcardDisallow WildcardPolicy = "disallow"
)

// Config is the parsed project configuration.
type Config struct {
	// SourceRoots are directories searched for first-party modules,
	// relative to the directory containing pyrechk.yaml.
	SourceRoots []string `yaml:"source_roots,omitempty"`

	// SitePackages are additional search roots, searched after the source
	// roots; diagnostics inside them are reported like any other.
	SitePackages []string `yaml:"site_packages,omitempty"`

	// PythonVersion records the target language version (default
	// "3.12"). No checker stage reads it: the stdlib shim symbols and the
	// accepted syntax forms are the same for every version.
	PythonVersion string `yaml:"python_version,omitempty"`

	// Platform records the target platform. No checker stage reads it;
	// `sys.platform`-guarded branches are not narrowed.
	Platform string `yaml:"platform,omitempty"`

	WildcardImport WildcardPolicy `yaml:"wildcard_import,omitempty"`

	// EagerStringAnnotations is loaded from the file but no checker stage
	// reads it; string annotations are handled the same way whichever
	// value it has.
	EagerStringAnnotations bool `yaml:"eager_string_annotations,omitempty"`

	// Exclude lists glob patterns of files to skip. Module discovery does
	// not consult it.
	Exclude []string `yaml:"exclude,omitempty"`

	// Workers caps the schedule pipeline's worker pool size; 0 means use
	// runtime.GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`
}

func (c *Config) setDefaults() {
	if len(c.SourceRoots) == 0 {
		c.SourceRoots = []string{"."}
	}
	if c.PythonVersion == "" {
		c.PythonVersion = "3.12"
	}
	if c.WildcardImport == "" {
		c.WildcardImport = WildcardPublicNames
	}
}

func (c *Config) validate(path string) error {
	switch c.WildcardImport {
	case "", WildcardPublicNames, WildcardDisallow:
	default:
		return fmt.Errorf("%s: unknown wildcard_import policy %q", path, c.WildcardImport)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%s: workers must be >= 0", path)
	}
	return nil
}

// Load reads and parses pyrechk.yaml from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses pyrechk.yaml content from bytes; path is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Default returns a Config with every field at its default, for
// invocations with no pyrechk.yaml on disk.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Find searches dir and its ancestors for pyrechk.yaml, the way
// go.mod or .gitignore discovery works, returning "" if none is found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadFromDir finds and loads pyrechk.yaml starting at dir, or returns
// Default() if none exists.
func LoadFromDir(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
