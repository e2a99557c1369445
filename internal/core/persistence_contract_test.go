package core

import (
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestPersonStoreImplementationsHardening ensures only sanctioned packages
// provide concrete implementations of domain.PersonStore. Adding a backend
// elsewhere requires an explicit update of the allowed list.
func TestPersonStoreImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Tests: true}
	pkgs, err := packages.Load(cfg, "contactbook/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var personStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "contactbook/pkg/domain" || p.Types == nil {
			continue
		}
		obj := p.Types.Scope().Lookup("PersonStore")
		if obj == nil {
			t.Fatalf("domain.PersonStore not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.PersonStore is not an interface")
		}
		personStore = iface
		break
	}
	if personStore == nil {
		t.Fatalf("failed to resolve PersonStore interface")
	}
	allowed := map[string]struct{}{
		"contactbook/internal/infra/persistence/memory":   {},
		"contactbook/internal/infra/persistence/sqlite":   {},
		"contactbook/internal/infra/persistence/postgres": {},
		"contactbook/internal/infra/persistence/sqlstore": {}, // shared SQL gateway embedded by both SQL backends
		"contactbook/internal/core":                       {}, // test doubles
		"contactbook/internal/core/mocks":                 {},
	}
	var unexpected []string
	seen := map[string]bool{}
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			named, ok := p.Types.Scope().Lookup(name).Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if !types.Implements(named, personStore) && !types.Implements(types.NewPointer(named), personStore) {
				continue
			}
			key := p.PkgPath + "." + name
			if _, ok := allowed[p.PkgPath]; !ok && !seen[key] {
				seen[key] = true
				unexpected = append(unexpected, key)
			}
		}
	}
	if len(unexpected) > 0 {
		_, file, line, _ := runtime.Caller(0)
		t.Fatalf("unexpected PersonStore implementations (update allowed list intentionally if adding a new backend):\nfile=%s:%d\n%s", filepath.Base(file), line, unexpected)
	}
}
