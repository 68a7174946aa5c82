// Package merge expands \input and \include directives into one merged
// document body, depth-first, stripping comments from each file before it is
// scanned so commented-out inclusions are never followed.
package merge

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flattex/flattex/internal/scanner"
	"github.com/flattex/flattex/internal/texdoc"
)

// inclusionDirectives are the two recognized inclusion forms. \include
// additionally resets page numbering when compiled; for merging both splice
// the referenced file in place of the directive.
var inclusionDirectives = []string{"input", "include"}

// Resolver flattens an inclusion graph rooted at one document.
type Resolver struct {
	root       string // project root, absolute
	bestEffort bool
	diags      *texdoc.Diagnostics
	merged     []string // files merged, depth-first pre-order
}

func New(root string, bestEffort bool, diags *texdoc.Diagnostics) *Resolver {
	return &Resolver{root: root, bestEffort: bestEffort, diags: diags}
}

// Merged returns the documents merged so far, in encounter order, relative
// to the project root where possible.
func (r *Resolver) Merged() []string {
	out := make([]string, len(r.merged))
	for i, p := range r.merged {
		if rel, err := filepath.Rel(r.root, p); err == nil && !strings.HasPrefix(rel, "..") {
			out[i] = rel
		} else {
			out[i] = p
		}
	}
	return out
}

// Merge returns the fully merged body of the document at path. Sibling
// inclusions expand left to right; nested inclusions expand before their
// containing directive's siblings (pure depth-first, pre-order).
func (r *Resolver) Merge(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return r.merge(abs, "", nil)
}

// merge processes one document. ancestors is the active inclusion chain,
// owned by the caller; each recursive call extends it for its own subtree
// only, so no shared mutable visited-set exists.
func (r *Resolver) merge(path, includedBy string, ancestors []string) (string, error) {
	for _, a := range ancestors {
		if a == path {
			chain := make([]string, 0, len(ancestors)+1)
			for _, p := range ancestors {
				chain = append(chain, filepath.Base(p))
			}
			return "", &CycleError{Chain: append(chain, filepath.Base(path))}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingFileError{Path: path, IncludedBy: includedBy}
		}
		return "", err
	}
	r.merged = append(r.merged, path)

	text := scanner.StripComments(string(data))
	chain := append(ancestors, path)

	var out strings.Builder
	last := 0
	for _, occ := range r.inclusions(text) {
		out.WriteString(text[last:occ.Start])
		last = occ.End

		child := r.resolveChild(strings.TrimSpace(occ.Args[0]), filepath.Dir(path))
		childText, err := r.merge(child, path, chain)
		if err != nil {
			var miss *MissingFileError
			if r.bestEffort && errors.As(err, &miss) {
				r.diags.Warn(texdoc.WarnMissingFile, miss.Path, "included by "+filepath.Base(path)+", skipped")
				continue
			}
			return "", err
		}
		out.WriteString(childText)
	}
	out.WriteString(text[last:])
	return out.String(), nil
}

// inclusions returns all \input and \include occurrences in source order.
func (r *Resolver) inclusions(text string) []scanner.Occurrence {
	var occs []scanner.Occurrence
	for _, name := range inclusionDirectives {
		occs = append(occs, scanner.Find(text, name, 1)...)
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].Start < occs[j].Start })
	return occs
}

// resolveChild maps a directive argument to an absolute path, trying the
// including file's directory first and the project root second. The .tex
// extension is implied unless already present: dots inside the name
// (\input{file.v2}) are part of the name, not an extension.
func (r *Resolver) resolveChild(name, dir string) string {
	if !strings.HasSuffix(name, ".tex") {
		name += ".tex"
	}
	local := filepath.Join(dir, name)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return filepath.Join(r.root, name)
}
