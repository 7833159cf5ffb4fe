// Package include resolves quoted #include directives against the project
// file index.
//
// Angle-bracket includes are treated as out-of-project and are never
// resolved. A quoted include is probed relative to the including file's
// directory first, then the project root and its conventional include/,
// src/ and lib/ subdirectories. Wherever the header is found, same-stem
// companion sources (x.h -> x.c, x.cc, x.cpp) are resolved alongside it so
// the definitions backing the header travel with it.
package include

import (
	"path"
	"strings"

	"github.com/srcslice/srcslice/internal/index"
)

var companionExts = []string{".c", ".cc", ".cpp"}

var searchRoots = []string{"", "include", "src", "lib"}

// Resolve maps one quoted include path to repo-relative file paths.
// An empty result means the include is unresolvable within the project.
func Resolve(idx *index.Index, fromFile, incPath string) []string {
	incPath = path.Clean(strings.ReplaceAll(incPath, "\\", "/"))

	dirs := make([]string, 0, len(searchRoots)+1)
	dirs = append(dirs, path.Dir(fromFile))
	dirs = append(dirs, searchRoots...)

	var found []string
	seen := make(map[string]struct{})
	add := func(rel string) {
		rel = index.Norm(rel)
		if _, dup := seen[rel]; dup {
			return
		}
		seen[rel] = struct{}{}
		found = append(found, rel)
	}

	for _, dir := range dirs {
		candidate := path.Join(dir, incPath)
		if !idx.Has(candidate) {
			continue
		}
		add(candidate)

		// Companion sources next to the resolved header.
		stem := strings.TrimSuffix(candidate, path.Ext(candidate))
		for _, ext := range companionExts {
			if comp := stem + ext; comp != candidate && idx.Has(comp) {
				add(comp)
			}
		}
		break
	}

	return found
}
