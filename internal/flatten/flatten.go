// Package flatten runs the full consolidation pipeline: merge inclusions,
// lift and prune the preamble, filter the bibliography, resolve assets, and
// assemble the final document text with its output manifest.
package flatten

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flattex/flattex/internal/assets"
	"github.com/flattex/flattex/internal/bib"
	"github.com/flattex/flattex/internal/config"
	"github.com/flattex/flattex/internal/format"
	"github.com/flattex/flattex/internal/merge"
	"github.com/flattex/flattex/internal/preamble"
	"github.com/flattex/flattex/internal/scanner"
	"github.com/flattex/flattex/internal/texdoc"
)

// OutputDocName and OutputBibName are the file names the flattened project
// uses regardless of the source names.
const (
	OutputDocName = "main.tex"
	OutputBibName = "main.bib"
)

// Options selects the project to flatten.
type Options struct {
	ProjectDir string // source tree root
	RootDoc    string // main document, relative to ProjectDir or absolute
	Pipeline   config.Pipeline
}

// Result is the pipeline's sole product, handed to the output writer.
// On a fatal error no Result is produced at all.
type Result struct {
	Manifest    texdoc.Manifest
	Diags       texdoc.Diagnostics
	Root        string   // resolved project root, absolute
	MergedFiles []string // documents merged, depth-first order
}

// Run executes the pipeline. Fatal conditions (cyclic inclusion, missing
// required file) return an error and no result; everything non-fatal lands
// in Result.Diags.
func Run(opts Options, log *slog.Logger) (*Result, error) {
	root, rootDoc, err := locate(opts.ProjectDir, opts.RootDoc)
	if err != nil {
		return nil, err
	}

	pipe, err := config.LoadProject(root, opts.Pipeline)
	if err != nil {
		return nil, err
	}

	res := &Result{Root: root}
	log = log.With("root", root, "doc", filepath.Base(rootDoc))

	resolver := merge.New(root, pipe.BestEffort, &res.Diags)
	body, err := resolver.Merge(rootDoc)
	if err != nil {
		return nil, err
	}
	res.MergedFiles = resolver.Merged()
	log.Info("merged inclusion graph", "files", len(res.MergedFiles))

	collected := preamble.Collect(body, preamble.Policy{PreferFinalMacro: pipe.PreferFinalMacro}, &res.Diags)
	body = collected.Body
	res.Manifest.Preamble = collected.Entries
	log.Info("collected preamble", "declarations", len(collected.Entries))

	cited := bib.Citations(body)

	ar := assets.New(root, pipe.ImageExtensions, pipe.ValidatePDFAssets, &res.Diags)
	resolved := ar.Resolve(body)
	res.Manifest.Assets = resolved.Assets
	res.Manifest.Styles = resolved.Styles
	res.Manifest.BibSource = resolved.BibFile
	log.Info("resolved assets", "assets", len(resolved.Assets), "styles", len(resolved.Styles))

	if resolved.BibFile != "" {
		data, err := os.ReadFile(resolved.BibFile)
		if err != nil {
			return nil, fmt.Errorf("read bibliography %s: %w", resolved.BibFile, err)
		}
		db := bib.Parse(string(data))
		res.Manifest.Bibliography = bib.Filter(db, cited)
		res.Manifest.BibStrings = db.Strings
		body = rewriteBibliography(body)
		log.Info("filtered bibliography",
			"cited", len(cited), "kept", len(res.Manifest.Bibliography))
	}

	body = insertPreamble(body, collected.Entries, &res.Diags)

	if pipe.Reformat {
		body = format.Reformat(body, pipe.ProtectedEnvironments)
		body = format.Reindent(body)
	}
	res.Manifest.MergedText = body
	return res, nil
}

// locate resolves the project root and main document. When the document is
// not under dir, ancestors of dir are searched upward for it.
func locate(dir, doc string) (root, rootDoc string, err error) {
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	if filepath.IsAbs(doc) {
		if _, err := os.Stat(doc); err != nil {
			return "", "", &merge.MissingFileError{Path: doc}
		}
		return filepath.Dir(doc), doc, nil
	}

	candidate := filepath.Join(absDir, doc)
	if _, err := os.Stat(candidate); err == nil {
		return absDir, candidate, nil
	}
	for cur := absDir; ; {
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
		candidate := filepath.Join(cur, doc)
		if _, err := os.Stat(candidate); err == nil {
			return cur, candidate, nil
		}
	}
	return "", "", &merge.MissingFileError{Path: filepath.Join(absDir, doc)}
}

// rewriteBibliography points every \bibliography directive at the flattened
// database name.
func rewriteBibliography(body string) string {
	stem := strings.TrimSuffix(OutputBibName, filepath.Ext(OutputBibName))
	occs := scanner.Find(body, "bibliography", 1)
	if len(occs) == 0 {
		return body
	}
	var out strings.Builder
	last := 0
	for _, occ := range occs {
		out.WriteString(body[last:occ.Start])
		out.WriteString(`\bibliography{` + stem + `}`)
		last = occ.End
	}
	out.WriteString(body[last:])
	return out.String()
}

// insertPreamble places the deduplicated declaration block after
// \documentclass, or at the top of the document when no class is declared.
func insertPreamble(body string, entries []texdoc.Declaration, diags *texdoc.Diagnostics) string {
	if len(entries) == 0 {
		return body
	}
	block := preambleBlock(entries)

	occs := scanner.Find(body, "documentclass", 1)
	if len(occs) == 0 {
		diags.Warn(texdoc.WarnNoDocumentClass, OutputDocName, "declarations placed at top of file")
		return block + "\n\n" + body
	}
	at := occs[0].End
	return body[:at] + "\n\n" + block + "\n" + body[at:]
}

// preambleBlock renders the surviving declarations: imports, then colors,
// then macros, blank lines between the groups.
func preambleBlock(entries []texdoc.Declaration) string {
	var groups [3][]string
	for _, e := range entries {
		var g int
		switch e.Kind {
		case texdoc.DeclImport:
			g = 0
		case texdoc.DeclColor:
			g = 1
		default:
			g = 2
		}
		groups[g] = append(groups[g], e.Text)
	}
	var parts []string
	for _, g := range groups {
		if len(g) > 0 {
			parts = append(parts, strings.Join(g, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}
