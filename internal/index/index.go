// Package index walks the project tree once and records every file path,
// so include resolution can probe candidates without touching the
// filesystem again.
package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"build":        {},
	"dist":         {},
	"obj":          {},
	"bin":          {},
}

// Index is the set of files under a project root, repo-relative with
// forward slashes.
type Index struct {
	Root  string
	paths map[string]struct{}
}

// Build walks root, skipping VCS/build directories, paths matched by the
// root .gitignore, and paths matched by the configured exclude globs.
func Build(root string, excludes []string) (*Index, error) {
	globs := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	gi := loadGitignore(root)

	idx := &Index{Root: root, paths: make(map[string]struct{})}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		for _, g := range globs {
			if g.Match(rel) {
				return nil
			}
		}

		idx.paths[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// Has reports whether rel (repo-relative, any separator) is in the index.
func (x *Index) Has(rel string) bool {
	_, ok := x.paths[Norm(rel)]
	return ok
}

// Paths returns all indexed paths, sorted.
func (x *Index) Paths() []string {
	out := make([]string, 0, len(x.paths))
	for p := range x.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Abs returns the absolute path for an indexed repo-relative path.
func (x *Index) Abs(rel string) string {
	return filepath.Join(x.Root, filepath.FromSlash(rel))
}

// Norm cleans a repo-relative path into index form.
func Norm(rel string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel))), "./")
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
