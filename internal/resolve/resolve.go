// Package resolve implements the run-scoped symbol reachability resolver.
//
// A Resolver owns every piece of per-run state: the project file index, the
// per-file symbol catalogue, and the admitted set. It is single-use by
// design — the cache must never leak across runs with different entry
// points, so a new Resolver is created per invocation instead of holding
// ambient globals.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/srcslice/srcslice/internal/extract"
	"github.com/srcslice/srcslice/internal/include"
	"github.com/srcslice/srcslice/internal/index"
	"github.com/srcslice/srcslice/internal/lang"
	"github.com/srcslice/srcslice/internal/model"
)

var (
	// ErrEntryNotFound means the entry file does not exist or cannot be
	// read; without it the frontier cannot be seeded.
	ErrEntryNotFound = errors.New("entry file not found")

	// ErrResourceLimit means a traversal guard tripped (pathological
	// include graphs fail closed instead of hanging).
	ErrResourceLimit = errors.New("traversal resource limit exceeded")
)

// Traversal guard defaults.
const (
	DefaultMaxFiles      = 2048
	DefaultMaxExpansions = 65536
)

// Options configures one resolution run.
type Options struct {
	Root          string // project root; quoted includes resolve under it
	Depth         int    // max include hops from the entry file; 0 = entry only
	MaxFiles      int
	MaxExpansions int
	Excludes      []string // glob patterns removed from the file index
}

// Resolver carries all state for a single run.
type Resolver struct {
	opts    Options
	idx     *index.Index
	files   map[string]*model.SourceFile // rel path -> catalogued file
	order   []string                     // discovery order
	parsers map[string]*sitter.Parser    // one per language
	notes   []model.Note
	used    bool
}

// New builds the project index and returns a resolver ready for one Run.
func New(opts Options) (*Resolver, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	opts.Root = root
	if opts.Depth < 0 {
		return nil, fmt.Errorf("depth must be >= 0, got %d", opts.Depth)
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxExpansions <= 0 {
		opts.MaxExpansions = DefaultMaxExpansions
	}

	idx, err := index.Build(root, opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", root, err)
	}

	return &Resolver{
		opts:    opts,
		idx:     idx,
		files:   make(map[string]*model.SourceFile),
		parsers: make(map[string]*sitter.Parser),
	}, nil
}

// Run resolves the slice reachable from entry (a path inside the project
// root, absolute or root-relative). Only ErrEntryNotFound and
// ErrResourceLimit abort; every other condition degrades to a note.
func (r *Resolver) Run(entry string) (*model.Slice, error) {
	if r.used {
		return nil, errors.New("resolver is single-use; create a new one per run")
	}
	r.used = true

	entryRel, err := r.entryPath(entry)
	if err != nil {
		return nil, err
	}

	if err := r.walkFiles(entryRel); err != nil {
		return nil, err
	}

	defs, protos := r.catalogue()

	admitted, err := r.reach(entryRel, defs, protos)
	if err != nil {
		return nil, err
	}

	sort.Slice(r.notes, func(i, j int) bool {
		a, b := r.notes[i], r.notes[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Detail < b.Detail
	})

	files := make([]*model.SourceFile, 0, len(r.order))
	for _, p := range r.order {
		files = append(files, r.files[p])
	}

	return &model.Slice{
		Root:     r.opts.Root,
		Entry:    entryRel,
		Files:    files,
		Admitted: admitted,
		Notes:    r.notes,
	}, nil
}

func (r *Resolver) entryPath(entry string) (string, error) {
	if filepath.IsAbs(entry) {
		rel, err := filepath.Rel(r.opts.Root, entry)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
		}
		entry = rel
	}
	rel := index.Norm(entry)
	if _, err := os.Stat(r.idx.Abs(rel)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	return rel, nil
}

// walkFiles performs the depth-bounded include traversal, cataloguing each
// discovered file exactly once. A file reached at the depth limit is still
// catalogued; its includes are simply not followed.
func (r *Resolver) walkFiles(entryRel string) error {
	type item struct {
		path  string
		depth int
	}
	queue := []item{{entryRel, 0}}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		if _, done := r.files[it.path]; done {
			continue
		}
		if len(r.files) >= r.opts.MaxFiles {
			return fmt.Errorf("%w: more than %d files", ErrResourceLimit, r.opts.MaxFiles)
		}

		raw, err := os.ReadFile(r.idx.Abs(it.path))
		if err != nil {
			if it.path == entryRel {
				return fmt.Errorf("%w: %s", ErrEntryNotFound, it.path)
			}
			r.notes = append(r.notes, model.Note{Kind: model.UnresolvedInclude, File: it.path, Detail: "unreadable"})
			continue
		}

		l := lang.ForExtension(filepath.Ext(it.path))
		sf, notes := extract.File(l, r.parserFor(l), raw, it.path)
		sf.Depth = it.depth
		r.files[it.path] = sf
		r.order = append(r.order, it.path)
		r.notes = append(r.notes, notes...)

		if it.depth >= r.opts.Depth {
			continue
		}
		for i := range sf.Includes {
			inc := &sf.Includes[i]
			if inc.System {
				continue
			}
			targets := include.Resolve(r.idx, it.path, inc.Path)
			if len(targets) == 0 {
				r.notes = append(r.notes, model.Note{Kind: model.UnresolvedInclude, File: it.path, Detail: inc.Path})
				continue
			}
			inc.Targets = targets
			for _, target := range targets {
				if _, done := r.files[target]; !done {
					queue = append(queue, item{target, it.depth + 1})
				}
			}
		}
	}
	return nil
}

// catalogue builds the global name index over all catalogued files:
// function definitions by name, plus the set of names that appear only as
// prototypes.
func (r *Resolver) catalogue() (defs map[string][]*model.Symbol, protos map[string]bool) {
	defs = make(map[string][]*model.Symbol)
	protos = make(map[string]bool)
	for _, p := range r.order {
		sf := r.files[p]
		for i := range sf.Symbols {
			s := &sf.Symbols[i]
			if s.Prototype {
				protos[s.Name] = true
				continue
			}
			if s.Kind == model.Function {
				defs[s.Name] = append(defs[s.Name], s)
			}
		}
	}
	return defs, protos
}

// reach runs the fixed-point expansion. Macros, structs and typedefs in
// every in-scope file are admitted unconditionally (high value, low token
// cost); only functions are subject to reachability. Termination is
// guaranteed by the pushed-name discipline: every name enters the frontier
// at most once, so cycles (mutual recursion, self calls) cannot loop.
func (r *Resolver) reach(entryRel string, defs map[string][]*model.Symbol, protos map[string]bool) (map[model.SymbolID]struct{}, error) {
	admitted := make(map[model.SymbolID]struct{})
	pushed := make(map[string]bool)
	collisionNoted := make(map[string]bool)
	nowhereNoted := make(map[string]bool)
	var frontier []string

	// Always-kept admissions.
	for _, p := range r.order {
		sf := r.files[p]
		for i := range sf.Symbols {
			s := &sf.Symbols[i]
			if s.Kind != model.Function {
				admitted[s.ID()] = struct{}{}
			}
		}
	}

	// Seed: every function physically defined in the entry file.
	entrySf := r.files[entryRel]
	for i := range entrySf.Symbols {
		s := &entrySf.Symbols[i]
		if s.Kind == model.Function && !s.Prototype {
			admitted[s.ID()] = struct{}{}
			if !pushed[s.Name] {
				pushed[s.Name] = true
				frontier = append(frontier, s.Name)
			}
		}
	}

	expansions := 0
	for len(frontier) > 0 {
		name := frontier[0]
		frontier = frontier[1:]

		matches := defs[name]
		if len(matches) > 1 && !collisionNoted[name] {
			collisionNoted[name] = true
			r.notes = append(r.notes, model.Note{Kind: model.Collision, File: matches[0].File, Detail: name})
		}

		for _, def := range matches {
			expansions++
			if expansions > r.opts.MaxExpansions {
				return nil, fmt.Errorf("%w: more than %d expansions", ErrResourceLimit, r.opts.MaxExpansions)
			}
			admitted[def.ID()] = struct{}{}

			for _, ref := range def.Refs {
				if len(defs[ref]) == 0 || pushed[ref] {
					continue
				}
				pushed[ref] = true
				frontier = append(frontier, ref)
			}
			for _, call := range def.Calls {
				if len(defs[call]) > 0 || nowhereNoted[call] {
					continue
				}
				nowhereNoted[call] = true
				detail := call
				if protos[call] {
					detail = call + " (prototype only)"
				}
				r.notes = append(r.notes, model.Note{Kind: model.DefinedNowhere, File: def.File, Detail: detail})
			}
		}
	}

	return admitted, nil
}

func (r *Resolver) parserFor(l *lang.Language) *sitter.Parser {
	p, ok := r.parsers[l.Name]
	if !ok {
		p = l.NewParser()
		r.parsers[l.Name] = p
	}
	return p
}
