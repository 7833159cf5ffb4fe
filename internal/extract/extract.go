// Package extract catalogues symbols, references, and include directives
// from a single source file.
//
// The file's comment-stripped text is parsed with tree-sitter, so symbol
// spans are byte ranges into the exact text the dump later emits, and every
// span is a balanced unit by construction. tree-sitter's error recovery
// provides the tolerant, non-compiling parse: a definition containing a
// parse error is dropped with a note rather than emitted truncated.
// Templates and attributes are known gaps and are skipped.
package extract

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/srcslice/srcslice/internal/lang"
	"github.com/srcslice/srcslice/internal/model"
	"github.com/srcslice/srcslice/internal/scanner"
)

// specifierTypes are the type-specifier nodes recorded as Struct symbols.
var specifierTypes = map[string]struct{}{
	"struct_specifier": {},
	"enum_specifier":   {},
	"union_specifier":  {},
	"class_specifier":  {},
}

// containerTypes are nodes whose children are scanned as if they were at
// top level: preprocessor conditionals, extern "C" blocks, namespaces.
var containerTypes = map[string]struct{}{
	"preproc_if":            {},
	"preproc_ifdef":         {},
	"preproc_else":          {},
	"preproc_elif":          {},
	"preproc_elifdef":       {},
	"linkage_specification": {},
	"declaration_list":      {},
	"namespace_definition":  {},
}

// File parses raw source and returns the catalogued file plus any notes.
// path is the repo-relative path recorded on the returned records. The
// parser must be configured for l's grammar.
func File(l *lang.Language, parser *sitter.Parser, raw []byte, path string) (*model.SourceFile, []model.Note) {
	clean := scanner.StripComments(string(raw))
	sf := &model.SourceFile{Path: path, Clean: clean}

	src := []byte(clean)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return sf, []model.Note{{Kind: model.MalformedSymbol, File: path, Detail: "unparsable file"}}
	}
	defer tree.Close()

	w := &walker{src: src, path: path}
	root := tree.RootNode()
	w.scan(root)

	if root.HasError() && !w.noted {
		w.notes = append(w.notes, model.Note{Kind: model.MalformedSymbol, File: path, Detail: "unbalanced or unparsable region"})
	}

	sort.Slice(w.syms, func(i, j int) bool { return w.syms[i].Start < w.syms[j].Start })
	sf.Symbols = w.syms
	sf.Includes = w.incs
	return sf, w.notes
}

type walker struct {
	src   []byte
	path  string
	syms  []model.Symbol
	incs  []model.Include
	notes []model.Note
	noted bool // a MalformedSymbol note was emitted
}

func (w *walker) scan(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		typ := child.Type()

		if _, ok := containerTypes[typ]; ok {
			w.scan(child)
			continue
		}
		if _, ok := specifierTypes[typ]; ok {
			w.bareSpecifier(child)
			continue
		}

		switch typ {
		case "function_definition":
			w.function(child)
		case "declaration":
			w.declaration(child)
		case "type_definition":
			w.typedef(child)
		case "preproc_def", "preproc_function_def":
			w.macro(child)
		case "preproc_include":
			w.include(child)
		}
	}
}

func (w *walker) function(node *sitter.Node) {
	fd := findFunctionDeclarator(node)
	if fd == nil {
		return
	}
	name := unqualify(declaratorName(fd.ChildByFieldName("declarator"), w.src))
	if name == "" {
		return
	}
	if node.HasError() {
		w.notes = append(w.notes, model.Note{Kind: model.MalformedSymbol, File: w.path, Detail: name})
		w.noted = true
		return
	}

	refs, calls := references(node.ChildByFieldName("body"), w.src)
	w.syms = append(w.syms, model.Symbol{
		Name:  name,
		Kind:  model.Function,
		File:  w.path,
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
		Refs:  refs,
		Calls: calls,
	})
}

func (w *walker) declaration(node *sitter.Node) {
	// Forward prototype: int foo(int); or char *foo(int);
	// A function-pointer variable also contains a function_declarator, but
	// its name sits behind a parenthesized_declarator, so requiring the
	// name to be a direct identifier child tells the two apart.
	if fd := findFunctionDeclarator(node); fd != nil {
		if name := directDeclaratorName(fd, w.src); name != "" {
			w.syms = append(w.syms, model.Symbol{
				Name:      unqualify(name),
				Kind:      model.Function,
				File:      w.path,
				Start:     int(node.StartByte()),
				End:       int(node.EndByte()),
				Prototype: true,
			})
			return
		}
		return
	}

	// struct Foo { ... } instance; — keep the whole declaration.
	if t := node.ChildByFieldName("type"); t != nil {
		if _, ok := specifierTypes[t.Type()]; ok && t.ChildByFieldName("body") != nil {
			w.syms = append(w.syms, model.Symbol{
				Name:  specifierName(t, w.src),
				Kind:  model.Struct,
				File:  w.path,
				Start: int(node.StartByte()),
				End:   int(node.EndByte()),
			})
		}
	}
	// Plain variable declarations are not catalogued.
}

// bareSpecifier handles struct/enum/union/class definitions that stand
// alone at top level (struct Foo { ... };). The node itself excludes the
// trailing semicolon, so the span is extended over it.
func (w *walker) bareSpecifier(node *sitter.Node) {
	if node.ChildByFieldName("body") == nil {
		return // forward declaration: struct Foo;
	}
	w.syms = append(w.syms, model.Symbol{
		Name:  specifierName(node, w.src),
		Kind:  model.Struct,
		File:  w.path,
		Start: int(node.StartByte()),
		End:   extendPastSemicolon(w.src, int(node.EndByte())),
	})
}

func (w *walker) typedef(node *sitter.Node) {
	name := declaratorName(node.ChildByFieldName("declarator"), w.src)
	if name == "" {
		return
	}
	w.syms = append(w.syms, model.Symbol{
		Name:  name,
		Kind:  model.Typedef,
		File:  w.path,
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
	})
}

func (w *walker) macro(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	// The node usually swallows the trailing newline; keep it out of the span.
	for end > start && (w.src[end-1] == '\n' || w.src[end-1] == '\r') {
		end--
	}
	w.syms = append(w.syms, model.Symbol{
		Name:  lang.NodeText(nameNode, w.src),
		Kind:  model.Macro,
		File:  w.path,
		Start: start,
		End:   end,
	})
}

func (w *walker) include(node *sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	w.incs = append(w.incs, model.Include{
		Path:   strings.Trim(lang.NodeText(pathNode, w.src), `"<>`),
		System: pathNode.Type() == "system_lib_string",
	})
}

// findFunctionDeclarator returns the first function_declarator in the
// subtree, depth-first.
func findFunctionDeclarator(node *sitter.Node) *sitter.Node {
	if node.Type() == "function_declarator" {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if fd := findFunctionDeclarator(node.NamedChild(i)); fd != nil {
			return fd
		}
	}
	return nil
}

// directDeclaratorName returns the name of a function_declarator only when
// the declarator field is itself a name node.
func directDeclaratorName(fd *sitter.Node, src []byte) string {
	d := fd.ChildByFieldName("declarator")
	if d == nil {
		return ""
	}
	switch d.Type() {
	case "identifier", "field_identifier", "qualified_identifier",
		"operator_name", "destructor_name":
		return lang.NodeText(d, src)
	}
	return ""
}

// declaratorName descends a declarator chain (pointer, parenthesized,
// array, init declarators) to the name-bearing leaf.
func declaratorName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier",
		"qualified_identifier", "operator_name", "destructor_name":
		return lang.NodeText(n, src)
	}
	if d := n.ChildByFieldName("declarator"); d != nil {
		if name := declaratorName(d, src); name != "" {
			return name
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := declaratorName(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}

func specifierName(node *sitter.Node, src []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return lang.NodeText(n, src)
	}
	return "" // anonymous; still always-kept
}

// unqualify reduces C++ qualified names (Foo::bar) to the member name so
// reference matching stays identifier-based.
func unqualify(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

func extendPastSemicolon(src []byte, end int) int {
	i := end
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	if i < len(src) && src[i] == ';' {
		return i + 1
	}
	return end
}

// references collects identifier tokens from a function body. The set is
// intentionally over-inclusive: locals and parameters appear alongside
// calls and macro uses, because a false positive costs a few harmless
// extra symbols while a false negative breaks transitive resolution.
// Field accesses (x.y, p->y) are excluded naturally: those names are
// field_identifier nodes, not identifiers.
func references(body *sitter.Node, src []byte) (refs, calls []string) {
	if body == nil {
		return nil, nil
	}
	refSet := make(map[string]struct{})
	callSet := make(map[string]struct{})

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier", "type_identifier":
			refSet[lang.NodeText(n, src)] = struct{}{}
		case "call_expression":
			if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" {
				callSet[lang.NodeText(fn, src)] = struct{}{}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)

	return sortedKeys(refSet), sortedKeys(callSet)
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
