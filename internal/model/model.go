// Package model defines core data structures for srcslice.
package model

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Function SymbolKind = "function"
	Macro    SymbolKind = "macro"
	Struct   SymbolKind = "struct"
	Typedef  SymbolKind = "typedef"
)

// Symbol is one named definition extracted from a source file.
// Start and End are byte offsets into the owning file's comment-stripped
// text, and the span is a syntactically balanced unit: brace-balanced for
// functions and structs, one logical line for macros.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	File  string // repo-relative path of the owning file
	Start int
	End   int

	// Prototype marks a declaration without a body. Prototypes are
	// catalogued so a reference can be recognized as project-local, but
	// they are never emitted and never satisfy reachability themselves.
	Prototype bool

	// Refs holds every identifier that appears in the body (functions
	// only). Over-inclusive: locals and parameters are listed too.
	Refs []string

	// Calls is the subset of Refs used in call position. Only calls
	// produce defined-nowhere notes; plain identifier mentions stay
	// silent when they resolve to nothing.
	Calls []string
}

// SymbolID identifies a symbol record uniquely within one run. Name
// collisions across files (or within one file) stay distinct because the
// owning file and span start are part of the identity.
type SymbolID struct {
	File  string
	Name  string
	Start int
}

// ID returns the symbol's identity.
func (s *Symbol) ID() SymbolID {
	return SymbolID{File: s.File, Name: s.Name, Start: s.Start}
}

// Include is one #include directive found in a file.
type Include struct {
	Path    string   // literal path between the delimiters
	System  bool     // angle-bracket include
	Targets []string // resolved repo-relative paths; empty if unresolved or not followed
}

// SourceFile is one catalogued file. Created at most once per distinct path
// during a run and immutable afterwards.
type SourceFile struct {
	Path     string // repo-relative
	Clean    string // comment-stripped text; symbol spans index into this
	Includes []Include
	Symbols  []Symbol
	Depth    int // include hops from the entry file
}

// NoteKind classifies a non-fatal condition recorded during resolution.
type NoteKind string

const (
	UnresolvedInclude NoteKind = "unresolved-include"
	MalformedSymbol   NoteKind = "malformed-symbol"
	DefinedNowhere    NoteKind = "defined-nowhere"
	Collision         NoteKind = "collision"
)

// Note is a non-fatal condition surfaced to the caller alongside the dump.
type Note struct {
	Kind   NoteKind
	File   string
	Detail string
}

// Slice is the result of one resolution run: every catalogued file in
// discovery order, the set of admitted symbol identities, and the notes
// gathered along the way.
type Slice struct {
	Root     string
	Entry    string // repo-relative entry file path
	Files    []*SourceFile
	Admitted map[SymbolID]struct{}
	Notes    []Note
}

// IsAdmitted reports whether a symbol record made it into the slice.
func (s *Slice) IsAdmitted(sym *Symbol) bool {
	_, ok := s.Admitted[sym.ID()]
	return ok
}
