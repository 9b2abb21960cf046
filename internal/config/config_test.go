package config

import "testing"

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("source_roots: [src]\n"), "pyrechk.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PythonVersion != "3.12" {
		t.Fatalf("expected default python_version, got %q", cfg.PythonVersion)
	}
	if cfg.WildcardImport != WildcardPublicNames {
		t.Fatalf("expected default wildcard policy, got %q", cfg.WildcardImport)
	}
}

func TestParseRejectsUnknownWildcardPolicy(t *testing.T) {
	_, err := Parse([]byte("wildcard_import: bogus\n"), "pyrechk.yaml")
	if err == nil {
		t.Fatal("expected an error for an unknown wildcard_import policy")
	}
}

func TestParseRejectsNegativeWorkers(t *testing.T) {
	_, err := Parse([]byte("workers: -1\n"), "pyrechk.yaml")
	if err == nil {
		t.Fatal("expected an error for negative workers")
	}
}

func TestDefaultHasOneSourceRoot(t *testing.T) {
	cfg := Default()
	if len(cfg.SourceRoots) != 1 || cfg.SourceRoots[0] != "." {
		t.Fatalf("expected default source root '.', got %v", cfg.SourceRoots)
	}
}
