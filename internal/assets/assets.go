// Package assets discovers the files a flattened document depends on:
// graphics, a custom document class, a bibliography style, and the
// bibliography database itself.
package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/flattex/flattex/internal/scanner"
	"github.com/flattex/flattex/internal/texdoc"
)

// DefaultImageExtensions is the probe order for extensionless graphics
// references, matching the preference order pdflatex uses.
var DefaultImageExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".eps"}

// Resolver maps asset references in a document body to files on disk.
// It never resolves outside the project root.
type Resolver struct {
	root        string // project root, absolute
	exts        []string
	validatePDF bool
	diags       *texdoc.Diagnostics
}

func New(root string, exts []string, validatePDF bool, diags *texdoc.Diagnostics) *Resolver {
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	return &Resolver{root: root, exts: exts, validatePDF: validatePDF, diags: diags}
}

// Resolved is the file set discovered from one body.
type Resolved struct {
	Assets    []string // graphics, absolute paths, sorted
	Styles    []string // .cls and .bst files, absolute paths
	ClassFile string   // custom class file ("" when a standard class is used)
	BibFile   string   // bibliography database ("" when none referenced)
	BibName   string   // name as written in \bibliography{...}
}

// Resolve scans body for asset references and probes the source tree.
// Unresolvable references become warnings; the manifest simply omits them.
func (r *Resolver) Resolve(body string) Resolved {
	var res Resolved

	graphics := r.graphicsPaths(body)

	// A custom class file may pull in graphics of its own (logos, title
	// page art), so it is scanned too.
	if occs := scanner.Find(body, "documentclass", 1); len(occs) > 0 {
		name := strings.TrimSpace(occs[0].Args[0])
		clsPath := filepath.Join(r.root, name+".cls")
		if _, err := os.Stat(clsPath); err == nil {
			res.ClassFile = clsPath
			res.Styles = append(res.Styles, clsPath)
			if data, err := os.ReadFile(clsPath); err == nil {
				clsBody := scanner.StripComments(string(data))
				graphics = append(graphics, r.graphicsPaths(clsBody)...)
			}
		}
	}

	if occs := scanner.Find(body, "bibliographystyle", 1); len(occs) > 0 {
		name := strings.TrimSpace(occs[0].Args[0])
		bstPath := filepath.Join(r.root, name+".bst")
		if _, err := os.Stat(bstPath); err == nil {
			res.Styles = append(res.Styles, bstPath)
		} else {
			r.diags.Warn(texdoc.WarnUnresolvedAsset, name+".bst", "bibliography style file not found")
		}
	}

	if occs := scanner.Find(body, "bibliography", 1); len(occs) > 0 {
		for _, name := range strings.Split(occs[0].Args[0], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			bibPath := filepath.Join(r.root, name+".bib")
			if _, err := os.Stat(bibPath); err == nil {
				res.BibFile = bibPath
				res.BibName = name
				break
			}
		}
		if res.BibFile == "" {
			r.diags.Warn(texdoc.WarnMissingBib, occs[0].Args[0], "no bibliography database found")
		}
	}

	seen := make(map[string]bool)
	for _, ref := range graphics {
		path, ok := r.resolveGraphic(ref)
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		res.Assets = append(res.Assets, path)
	}
	sort.Strings(res.Assets)

	if r.validatePDF {
		for _, path := range res.Assets {
			if strings.EqualFold(filepath.Ext(path), ".pdf") {
				r.checkPDF(path)
			}
		}
	}
	return res
}

func (r *Resolver) graphicsPaths(body string) []string {
	var paths []string
	for _, occ := range scanner.Find(body, "includegraphics", 1) {
		if p := strings.TrimSpace(occ.Args[0]); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// resolveGraphic maps one reference to an existing file inside the root.
// References with an extension are taken as-is; extensionless ones probe the
// configured candidate list against whatever a glob of name.* finds on disk.
func (r *Resolver) resolveGraphic(ref string) (string, bool) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	// IsLocal rejects absolute paths and any ../ escape without tripping on
	// names that merely start with dots (..cache/fig.png is a legal sibling).
	if !filepath.IsLocal(clean) {
		r.diags.Warn(texdoc.WarnEscapedRoot, ref, "reference escapes the project root, skipped")
		return "", false
	}
	full := filepath.Join(r.root, clean)

	if filepath.Ext(clean) != "" {
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
		r.diags.Warn(texdoc.WarnUnresolvedAsset, ref, "file not found")
		return "", false
	}

	matches, err := doublestar.FilepathGlob(full + ".*")
	if err == nil && len(matches) > 0 {
		found := make(map[string]string, len(matches))
		for _, m := range matches {
			found[strings.ToLower(filepath.Ext(m))] = m
		}
		for _, ext := range r.exts {
			if m, ok := found[ext]; ok {
				return m, true
			}
		}
	}
	r.diags.Warn(texdoc.WarnUnresolvedAsset, ref, "no candidate with extensions "+strings.Join(r.exts, " "))
	return "", false
}

// checkPDF opens a resolved PDF asset to confirm it is readable. A corrupt
// figure would otherwise only surface when the archived project is compiled.
func (r *Resolver) checkPDF(path string) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		r.diags.Warn(texdoc.WarnBadPDFAsset, path, err.Error())
		return
	}
	defer f.Close()
	if reader.NumPage() < 1 {
		r.diags.Warn(texdoc.WarnBadPDFAsset, path, "no pages")
	}
}
