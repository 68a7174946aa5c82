// Package preamble lifts package imports, macro definitions, and color
// definitions out of a merged document body, deduplicates them, and prunes
// the ones the body never references.
package preamble

import (
	"sort"
	"strings"

	"github.com/flattex/flattex/internal/scanner"
	"github.com/flattex/flattex/internal/texdoc"
)

// macroDirectives maps each macro-definition form to whether it overrides an
// earlier plain definition.
var macroDirectives = []struct {
	name  string
	final bool
}{
	{"newcommand", false},
	{"renewcommand", true},
	{"providecommand", true},
}

// Policy controls deduplication tie-breaks.
type Policy struct {
	// PreferFinalMacro keeps the last \renewcommand or \providecommand of a
	// key over an earlier \newcommand: the author's final intended
	// definition wins. When false, the first definition wins for macros too.
	PreferFinalMacro bool
}

// Result is the collected preamble and the body with all recognized
// declaration text removed.
type Result struct {
	Entries []texdoc.Declaration
	Body    string
}

// Collect scans body for declarations, removes them, deduplicates, and
// discards entries never referenced in the remaining body. Surviving entries
// are ordered imports, then colors, then macros, first-seen within each
// group. Declaration-like text that cannot be parsed is left in the body and
// reported as a warning.
func Collect(body string, pol Policy, diags *texdoc.Diagnostics) Result {
	var all []texdoc.Declaration

	for _, occ := range scanner.Find(body, "usepackage", 1) {
		key := strings.TrimSpace(strings.SplitN(occ.Args[0], ",", 2)[0])
		all = append(all, texdoc.Declaration{
			Kind: texdoc.DeclImport,
			Key:  key,
			Text: body[occ.Start:occ.End],
			Pos:  occ.Start,
		})
	}

	for _, dir := range macroDirectives {
		occs := scanner.Find(body, dir.name, 2)
		for _, occ := range occs {
			name := strings.TrimSpace(occ.Args[0])
			if !strings.HasPrefix(name, `\`) || len(name) < 2 {
				diags.Warn(texdoc.WarnMalformedDeclaration, snippet(body, occ.Start),
					`\`+dir.name+" first argument is not a control sequence")
				continue
			}
			all = append(all, texdoc.Declaration{
				Kind:  texdoc.DeclMacro,
				Key:   name[1:],
				Text:  body[occ.Start:occ.End],
				Pos:   occ.Start,
				Final: dir.final,
			})
		}
		// Occurrences the brace-aware scan could not parse stay in the body
		// untouched; never delete something not fully understood.
		if missed := scanner.CountControl(body, dir.name) - len(occs); missed > 0 {
			diags.Warn(texdoc.WarnMalformedDeclaration, `\`+dir.name,
				"unparseable occurrences left in body")
		}
	}

	for _, occ := range scanner.Find(body, "definecolor", 3) {
		all = append(all, texdoc.Declaration{
			Kind: texdoc.DeclColor,
			Key:  strings.TrimSpace(occ.Args[0]),
			Text: body[occ.Start:occ.End],
			Pos:  occ.Start,
		})
	}

	all = dropNested(all)
	stripped := removeDeclarations(body, all)
	kept := dedupe(all, pol)
	kept = pruneUnused(kept, stripped)

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Kind != kept[j].Kind {
			return groupRank(kept[i].Kind) < groupRank(kept[j].Kind)
		}
		return kept[i].Pos < kept[j].Pos
	})

	return Result{Entries: kept, Body: stripped}
}

func groupRank(k texdoc.DeclKind) int {
	switch k {
	case texdoc.DeclImport:
		return 0
	case texdoc.DeclColor:
		return 1
	default:
		return 2
	}
}

// dropNested discards declarations found inside another declaration's
// argument text (a macro whose body defines a color, say). The outer
// declaration already carries the inner text; keeping both would hoist the
// inner one twice and leave overlapping spans for removal. Brace-balanced
// spans never partially overlap, so any span starting inside a previous one
// is fully contained by it.
func dropNested(decls []texdoc.Declaration) []texdoc.Declaration {
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].Pos != decls[j].Pos {
			return decls[i].Pos < decls[j].Pos
		}
		return len(decls[i].Text) > len(decls[j].Text)
	})
	out := decls[:0]
	maxEnd := -1
	for _, d := range decls {
		if d.Pos < maxEnd {
			continue
		}
		out = append(out, d)
		maxEnd = d.Pos + len(d.Text)
	}
	return out
}

// removeDeclarations deletes every collected declaration span from body,
// together with the whitespace run preceding it, working back to front so
// earlier offsets stay valid.
func removeDeclarations(body string, decls []texdoc.Declaration) string {
	type span struct{ start, end int }
	spans := make([]span, 0, len(decls))
	for _, d := range decls {
		spans = append(spans, span{d.Pos, d.Pos + len(d.Text)})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	out := []byte(body)
	for _, sp := range spans {
		start := sp.start
		for start > 0 && (out[start-1] == ' ' || out[start-1] == '\t' || out[start-1] == '\n') {
			start--
		}
		out = append(out[:start], out[sp.end:]...)
	}
	return string(out)
}

// dedupe keeps one declaration per kind+key. Imports and colors declare
// once: first occurrence wins. Macro redefinitions follow the policy.
func dedupe(decls []texdoc.Declaration, pol Policy) []texdoc.Declaration {
	type slot struct {
		idx  int
		decl texdoc.Declaration
	}
	byKey := make(map[string]slot)
	order := 0

	for _, d := range decls {
		k := string(d.Kind) + ":" + d.Key
		existing, seen := byKey[k]
		if !seen {
			byKey[k] = slot{idx: order, decl: d}
			order++
			continue
		}
		if d.Kind == texdoc.DeclMacro && pol.PreferFinalMacro && d.Final {
			// Later redefinition or conditional define replaces the earlier
			// entry but keeps its position in the group ordering.
			d.Pos = existing.decl.Pos
			byKey[k] = slot{idx: existing.idx, decl: d}
		}
	}

	kept := make([]slot, 0, len(byKey))
	for _, s := range byKey {
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].idx < kept[j].idx })

	out := make([]texdoc.Declaration, 0, len(kept))
	for _, s := range kept {
		out = append(out, s.decl)
	}
	return out
}

// pruneUnused drops declarations whose key never occurs in the
// declaration-stripped body.
func pruneUnused(decls []texdoc.Declaration, body string) []texdoc.Declaration {
	out := decls[:0]
	for _, d := range decls {
		used := false
		switch d.Kind {
		case texdoc.DeclMacro:
			used = scanner.CountControl(body, d.Key) > 0
		default:
			used = scanner.CountWord(body, d.Key) > 0
		}
		if used {
			out = append(out, d)
		}
	}
	return out
}

func snippet(text string, at int) string {
	end := at + 40
	if end > len(text) {
		end = len(text)
	}
	s := text[at:end]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
