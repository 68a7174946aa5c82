// Package bib extracts citation keys from a document body and filters a
// BibTeX database down to the entries those keys name.
package bib

import (
	"strings"

	"github.com/flattex/flattex/internal/scanner"
	"github.com/flattex/flattex/internal/texdoc"
)

// entryTypes is the fixed recognized set of BibTeX entry types. Entries of
// other types are passed through unexamined only when cited.
var entryTypes = map[string]bool{
	"article":       true,
	"book":          true,
	"inproceedings": true,
	"phdthesis":     true,
	"mastersthesis": true,
	"inbook":        true,
	"incollection":  true,
	"proceedings":   true,
	"techreport":    true,
	"unpublished":   true,
	"misc":          true,
}

// Citations returns the set of keys cited anywhere in body via
// \cite[..]{k1,k2,...}.
func Citations(body string) map[string]bool {
	cited := make(map[string]bool)
	for _, occ := range scanner.Find(body, "cite", 1) {
		for _, key := range strings.Split(occ.Args[0], ",") {
			key = strings.TrimSpace(key)
			if key != "" {
				cited[key] = true
			}
		}
	}
	return cited
}

// Database is a parsed BibTeX file.
type Database struct {
	Strings []string // @string macros, in order
	Entries []texdoc.BibEntry
}

// Parse splits src into discrete entries. Each entry spans from its @type
// tag to the balanced closing brace; comments are stripped first so a
// commented-out entry is never kept.
func Parse(src string) Database {
	src = scanner.StripComments(src)
	var db Database

	for i := 0; i < len(src); i++ {
		if src[i] != '@' {
			continue
		}
		j := i + 1
		for j < len(src) && isTypeChar(src[j]) {
			j++
		}
		typ := strings.ToLower(src[i+1 : j])
		if typ == "" {
			continue
		}
		for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
			j++
		}
		if j >= len(src) || src[j] != '{' {
			continue
		}
		close := scanner.MatchBrace(src, j)
		if close < 0 {
			// Unterminated entry: stop rather than guess at its extent.
			break
		}
		raw := src[i : close+1]

		if typ == "string" {
			db.Strings = append(db.Strings, raw)
			i = close
			continue
		}
		if typ == "comment" || typ == "preamble" {
			i = close
			continue
		}

		inner := src[j+1 : close]
		key := inner
		if comma := strings.IndexByte(inner, ','); comma >= 0 {
			key = inner[:comma]
		}
		db.Entries = append(db.Entries, texdoc.BibEntry{
			Type:       typ,
			Key:        strings.TrimSpace(key),
			Raw:        raw,
			Recognized: entryTypes[typ],
		})
		i = close
	}
	return db
}

// Filter returns the entries whose key is cited, preserving the database's
// relative order. Cited keys with no entry are simply absent from the result;
// the LaTeX compiler reports those downstream, not this tool.
func Filter(db Database, cited map[string]bool) []texdoc.BibEntry {
	var kept []texdoc.BibEntry
	for _, e := range db.Entries {
		if cited[e.Key] {
			kept = append(kept, e)
		}
	}
	return kept
}

// Render produces the text of the filtered database: @string macros first,
// then entries, separated by blank lines.
func Render(strs []string, entries []texdoc.BibEntry) string {
	parts := make([]string, 0, len(strs)+len(entries))
	parts = append(parts, strs...)
	for _, e := range entries {
		parts = append(parts, e.Raw)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func isTypeChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
