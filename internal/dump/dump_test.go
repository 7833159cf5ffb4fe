package dump

import (
	"strings"
	"testing"

	"github.com/srcslice/srcslice/internal/model"
)

// slice builds a Slice from literal file contents where every listed
// symbol is admitted.
func slice(files []*model.SourceFile, entry string, notes ...model.Note) *model.Slice {
	admitted := make(map[model.SymbolID]struct{})
	for _, sf := range files {
		for i := range sf.Symbols {
			if !sf.Symbols[i].Prototype {
				admitted[sf.Symbols[i].ID()] = struct{}{}
			}
		}
	}
	return &model.Slice{
		Root:     "/proj",
		Entry:    entry,
		Files:    files,
		Admitted: admitted,
		Notes:    notes,
	}
}

func TestRenderGroupsAndMarkers(t *testing.T) {
	t.Parallel()

	mainClean := "void main(void) {\nrun();\n}\n"
	utilClean := "int run(void) {\nreturn 1;\n}\n"

	files := []*model.SourceFile{
		{
			Path:  "main.c",
			Clean: mainClean,
			Includes: []model.Include{
				{Path: "stdio.h", System: true},
				{Path: "util.h"},
			},
			Symbols: []model.Symbol{
				{Name: "main", Kind: model.Function, File: "main.c", Start: 0, End: len(mainClean) - 1},
			},
		},
		{
			Path:  "util.c",
			Clean: utilClean,
			Symbols: []model.Symbol{
				{Name: "run", Kind: model.Function, File: "util.c", Start: 0, End: len(utilClean) - 1},
			},
		},
	}

	out := Render(slice(files, "main.c"))

	mainIdx := strings.Index(out, "// --- FILE: main.c ---")
	utilIdx := strings.Index(out, "// --- FILE: util.c ---")
	if mainIdx < 0 || utilIdx < 0 {
		t.Fatalf("missing file markers:\n%s", out)
	}
	if mainIdx > utilIdx {
		t.Error("files not in discovery order")
	}
	if !strings.Contains(out, "#include <stdio.h>") {
		t.Error("system include not echoed")
	}
	if !strings.Contains(out, `#include "util.h"`) {
		t.Error("quoted include not echoed")
	}
	if !strings.Contains(out, "void main(void) {") {
		t.Errorf("main body missing:\n%s", out)
	}
}

func TestRenderSourceOrderNotAdmissionOrder(t *testing.T) {
	t.Parallel()

	clean := "int first(void) { return 1; }\nint second(void) { return 2; }\n"
	firstEnd := strings.Index(clean, "\n")
	files := []*model.SourceFile{{
		Path:  "a.c",
		Clean: clean,
		Symbols: []model.Symbol{
			// Catalogued out of textual order on purpose.
			{Name: "second", Kind: model.Function, File: "a.c", Start: firstEnd + 1, End: len(clean) - 1},
			{Name: "first", Kind: model.Function, File: "a.c", Start: 0, End: firstEnd},
		},
	}}

	out := Render(slice(files, "a.c"))
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Errorf("symbols not in source order:\n%s", out)
	}
}

func TestRenderSkipsUnadmittedAndPrototypes(t *testing.T) {
	t.Parallel()

	clean := "int used(void) { return 1; }\nint unused(void) { return 2; }\nint ghost(void);\n"
	usedEnd := strings.Index(clean, "\n")
	unusedEnd := strings.Index(clean, "int ghost") - 1
	sf := &model.SourceFile{
		Path:  "lib.c",
		Clean: clean,
		Symbols: []model.Symbol{
			{Name: "used", Kind: model.Function, File: "lib.c", Start: 0, End: usedEnd},
			{Name: "unused", Kind: model.Function, File: "lib.c", Start: usedEnd + 1, End: unusedEnd},
			{Name: "ghost", Kind: model.Function, File: "lib.c", Start: unusedEnd + 1, End: len(clean) - 1, Prototype: true},
		},
	}

	s := &model.Slice{
		Root:  "/proj",
		Entry: "lib.c",
		Files: []*model.SourceFile{sf},
		Admitted: map[model.SymbolID]struct{}{
			sf.Symbols[0].ID(): {},
		},
	}

	out := Render(s)
	if !strings.Contains(out, "used(void)") {
		t.Error("admitted symbol missing")
	}
	if strings.Contains(out, "unused") {
		t.Error("unadmitted symbol rendered")
	}
	if strings.Contains(out, "ghost") {
		t.Error("prototype rendered")
	}
}

func TestRenderCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	clean := "int f(void) {\n\n\n\tint  a   =  1;\n\n\treturn a;\n}\n"
	files := []*model.SourceFile{{
		Path:  "f.c",
		Clean: clean,
		Symbols: []model.Symbol{
			{Name: "f", Kind: model.Function, File: "f.c", Start: 0, End: len(clean) - 1},
		},
	}}

	out := Render(slice(files, "f.c"))
	if !strings.Contains(out, "int a = 1;") {
		t.Errorf("interior whitespace not collapsed:\n%s", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("blank-line padding survived:\n%s", out)
	}
}

func TestRenderSkipsFileWithNothingAdmitted(t *testing.T) {
	t.Parallel()

	clean := "int helper(void) { return 0; }\n"
	sf := &model.SourceFile{
		Path:  "helper.c",
		Clean: clean,
		Symbols: []model.Symbol{
			{Name: "helper", Kind: model.Function, File: "helper.c", Start: 0, End: len(clean) - 1},
		},
	}
	s := &model.Slice{
		Root:     "/proj",
		Entry:    "main.c",
		Files:    []*model.SourceFile{{Path: "main.c", Clean: ""}, sf},
		Admitted: map[model.SymbolID]struct{}{},
	}

	out := Render(s)
	if strings.Contains(out, "helper.c") {
		t.Errorf("empty group rendered:\n%s", out)
	}
	if !strings.Contains(out, "main.c") {
		t.Error("entry file group must always render")
	}
}

func TestRenderNotesSection(t *testing.T) {
	t.Parallel()

	s := slice(
		[]*model.SourceFile{{Path: "main.c", Clean: ""}},
		"main.c",
		model.Note{Kind: model.UnresolvedInclude, File: "main.c", Detail: "missing.h"},
		model.Note{Kind: model.DefinedNowhere, File: "main.c", Detail: "run_fota_update"},
	)

	out := Render(s)
	if !strings.Contains(out, "// --- NOTES ---") {
		t.Fatalf("notes section missing:\n%s", out)
	}
	if !strings.Contains(out, "// [unresolved-include] main.c: missing.h") {
		t.Errorf("unresolved include note missing:\n%s", out)
	}
	if !strings.Contains(out, "// [defined-nowhere] main.c: run_fota_update") {
		t.Errorf("defined-nowhere note missing:\n%s", out)
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	clean := "int f(void) { return 0; }\n"
	files := []*model.SourceFile{{
		Path:  "f.c",
		Clean: clean,
		Symbols: []model.Symbol{
			{Name: "f", Kind: model.Function, File: "f.c", Start: 0, End: len(clean) - 1},
		},
	}}

	a := Render(slice(files, "f.c"))
	b := Render(slice(files, "f.c"))
	if a != b {
		t.Error("render is not deterministic")
	}
}
