//go:build integration

package arch_test

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/bartekus/pipewright"

// boundaries lists, per package, import prefixes it must never reach,
// directly or through its dependencies.
var boundaries = map[string][]string{
	"internal/greeting": {
		"github.com/",
		"go.uber.org/",
	},
	"internal/pipeline": {
		"github.com/spf13/cobra",
		"go.uber.org/zap",
		"github.com/prometheus",
		"modernc.org/sqlite",
		modulePath + "/internal/runner",
		modulePath + "/internal/steps",
		modulePath + "/cmd",
	},
	"internal/runner": {
		"github.com/spf13/cobra",
		"modernc.org/sqlite",
		modulePath + "/internal/history",
		modulePath + "/internal/steps",
		modulePath + "/cmd",
	},
	"internal/check": {
		"go.uber.org/zap",
		modulePath + "/internal/pipeline",
		modulePath + "/cmd",
	},
}

func loadPackage(t *testing.T, rel string) *packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedModule,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/"+rel)
	if err != nil {
		t.Fatalf("packages.Load: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 || len(pkgs) != 1 {
		t.Fatalf("failed to load %s", rel)
	}
	return pkgs[0]
}

// reachable collects every import path reachable from p, mapped to the
// package that imported it first.
func reachable(p *packages.Package) map[string]string {
	seen := map[string]string{}
	var walk func(owner *packages.Package)
	walk = func(owner *packages.Package) {
		for path, imp := range owner.Imports {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = owner.PkgPath
			walk(imp)
		}
	}
	walk(p)
	return seen
}

func matches(path, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func TestImportBoundaries(t *testing.T) {
	for rel, forbidden := range boundaries {
		t.Run(rel, func(t *testing.T) {
			imports := reachable(loadPackage(t, rel))

			var violations []string
			for path, owner := range imports {
				for _, prefix := range forbidden {
					if matches(path, prefix) {
						violations = append(violations, path+" (via "+owner+")")
						break
					}
				}
			}
			sort.Strings(violations)
			if len(violations) > 0 {
				t.Errorf("%s reaches forbidden imports:\n  %s", rel, strings.Join(violations, "\n  "))
			}
		})
	}
}
