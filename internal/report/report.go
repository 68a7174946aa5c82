// Package report renders a human-readable summary of a flattening run.
// The Markdown form goes into job status payloads and CLI output; the HTML
// form backs the API's report endpoint.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/flattex/flattex/internal/flatten"
)

// Markdown builds the run report for a completed pipeline result.
func Markdown(res *flatten.Result) string {
	var b strings.Builder

	b.WriteString("# Flattening report\n\n")
	fmt.Fprintf(&b, "Project root: `%s`\n\n", res.Root)

	b.WriteString("## Merged documents\n\n")
	for _, f := range res.MergedFiles {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Preamble\n\n%d declaration(s) hoisted.\n\n", len(res.Manifest.Preamble))

	b.WriteString("## Bibliography\n\n")
	if res.Manifest.BibSource == "" {
		b.WriteString("No bibliography database referenced.\n\n")
	} else {
		fmt.Fprintf(&b, "%d cited entr%s kept from `%s`.\n\n",
			len(res.Manifest.Bibliography), plural(len(res.Manifest.Bibliography), "y", "ies"),
			filepath.Base(res.Manifest.BibSource))
	}

	b.WriteString("## Assets\n\n")
	if len(res.Manifest.Assets) == 0 && len(res.Manifest.Styles) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, a := range res.Manifest.Assets {
			fmt.Fprintf(&b, "- `%s`\n", rel(res.Root, a))
		}
		for _, s := range res.Manifest.Styles {
			fmt.Fprintf(&b, "- `%s`\n", rel(res.Root, s))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Warnings\n\n")
	if len(res.Diags.Warnings) == 0 {
		b.WriteString("None.\n")
	} else {
		for _, w := range res.Diags.Warnings {
			if w.Detail != "" {
				fmt.Fprintf(&b, "- **%s**: `%s` (%s)\n", w.Kind, w.Subject, w.Detail)
			} else {
				fmt.Fprintf(&b, "- **%s**: `%s`\n", w.Kind, w.Subject)
			}
		}
	}

	return b.String()
}

// HTML renders the Markdown report as an HTML document fragment.
func HTML(res *flatten.Result) (string, error) {
	return RenderHTML(Markdown(res))
}

// RenderHTML converts a Markdown report to an HTML fragment.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
