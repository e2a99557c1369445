package domain_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"contactbook/internal/testutil"
)

// TestDomainImportsStandardLibraryOnly keeps the domain layer free of
// internal packages and third-party modules. Stores, transfer and the CLI
// depend on domain, never the reverse.
func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	fset := token.NewFileSet()
	violations := 0
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				t.Fatalf("unquote %s: %v", spec.Path.Value, err)
			}
			if !isStdlib(path) {
				violations++
				t.Errorf("%s imports %s; domain may only use the standard library", name, path)
			}
		}
	}
	if violations > 0 {
		t.Fatalf("found %d forbidden imports in domain package", violations)
	}
}

func TestDomainHasNoTransitiveInternalDeps(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden,
		"domain types are shared by every layer")
}

func TestDomainHasNoSubpackages(t *testing.T) {
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() && e.Name() != "testdata" {
			t.Errorf("unexpected subpackage %s under pkg/domain", e.Name())
		}
	}
}

// isStdlib reports whether an import path belongs to the standard library,
// which never has a dot in its first element.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".") && first != "contactbook"
}

func TestIsStdlib(t *testing.T) {
	cases := map[string]bool{
		"errors":                         true,
		"encoding/json":                  true,
		"contactbook/internal/core":      false,
		"github.com/stretchr/testify":    false,
		"golang.org/x/tools/go/packages": false,
	}
	for path, want := range cases {
		if got := isStdlib(path); got != want {
			t.Errorf("isStdlib(%q) = %v, want %v", path, got, want)
		}
	}
}
