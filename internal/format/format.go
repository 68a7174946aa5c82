// Package format normalizes the merged document's layout: indentation is
// stripped and reapplied, blank-line runs collapse, and paragraph lines merge
// outside protected environments whose internal formatting must survive
// verbatim.
package format

import (
	"regexp"
	"sort"
	"strings"

	"github.com/flattex/flattex/internal/scanner"
)

// DefaultProtectedEnvironments lists environments exempt from paragraph
// merging.
var DefaultProtectedEnvironments = []string{
	"figure", "figure*",
	"table", "table*",
	"tabular",
	"verbatim", "Verbatim",
	"lstlisting",
	"equation", "equation*",
	"align", "align*",
	"itemize", "enumerate", "description",
}

var (
	blankRunRe = regexp.MustCompile(`\n[ \t]*\n(\s*\n)*`)
	spaceRunRe = regexp.MustCompile(`  +`)
	indentRe   = regexp.MustCompile(`\\begin\s*\{|\\left\b`)
	dedentRe   = regexp.MustCompile(`\\end\s*\{|\\right\b`)
	beginDocRe = regexp.MustCompile(`^\\begin\s*\{\s*document\s*\}`)
)

// Reformat strips leading indentation, normalizes blank lines, and merges
// paragraph lines into single lines outside the protected environments.
// Caption bodies are collapsed onto one line even inside protected blocks.
func Reformat(content string, protected []string) string {
	if len(protected) == 0 {
		protected = DefaultProtectedEnvironments
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = blankRunRe.ReplaceAllString(content, "\n\n")

	var out strings.Builder
	last := 0
	for _, sp := range protectedSpans(content, protected) {
		out.WriteString(mergeParagraphs(content[last:sp[0]]))
		out.WriteString(collapseCaptions(content[sp[0]:sp[1]]))
		last = sp[1]
	}
	out.WriteString(mergeParagraphs(content[last:]))
	return out.String()
}

// protectedSpans finds the byte spans of protected environments, outermost
// only, sorted by start.
func protectedSpans(content string, protected []string) [][2]int {
	alt := make([]string, len(protected))
	for i, env := range protected {
		alt[i] = regexp.QuoteMeta(env)
	}
	re := regexp.MustCompile(`(?s)\\begin\s*\{\s*(?:` + strings.Join(alt, "|") + `)\s*\}.*?\\end\s*\{\s*(?:` + strings.Join(alt, "|") + `)\s*\}`)

	var spans [][2]int
	for _, m := range re.FindAllStringIndex(content, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	return spans
}

// mergeParagraphs joins single newlines into spaces. A newline survives when
// it ends a paragraph (followed by a blank line), precedes a control
// sequence, or follows a completed line break.
func mergeParagraphs(text string) string {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' &&
			i > 0 && text[i-1] != '\n' &&
			i+1 < len(text) && text[i+1] != '\n' && text[i+1] != '\\' {
			out = append(out, ' ')
			continue
		}
		out = append(out, c)
	}
	return spaceRunRe.ReplaceAllString(string(out), " ")
}

// collapseCaptions rewrites every \caption{...} in block so its body sits on
// a single line, leaving the rest of the block untouched.
func collapseCaptions(block string) string {
	occs := scanner.Find(block, "caption", 1)
	if len(occs) == 0 {
		return block
	}
	var out strings.Builder
	last := 0
	for _, occ := range occs {
		arg := occ.Args[0]
		collapsed := strings.Join(strings.Fields(arg), " ")
		// Walk back from End past the closing brace to find the argument span.
		argStart := occ.End - 1 - len(arg)
		out.WriteString(block[last:argStart])
		out.WriteString(collapsed)
		last = occ.End - 1
	}
	out.WriteString(block[last:])
	return out.String()
}

// Reindent applies 4-space indentation tracked by \begin/\end (and
// \left/\right) nesting. The document environment itself is not indented.
func Reindent(content string) string {
	lines := strings.Split(content, "\n")
	indented := make([]string, 0, len(lines))
	level := 0
	const step = "    "

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			indented = append(indented, "")
			continue
		}

		delta := len(indentRe.FindAllString(line, -1)) - len(dedentRe.FindAllString(line, -1))
		if beginDocRe.MatchString(line) {
			delta--
		}

		if strings.HasPrefix(line, `\end`) || strings.HasPrefix(line, `\right`) {
			level = max(0, level+delta)
			indented = append(indented, strings.Repeat(step, level)+line)
		} else {
			indented = append(indented, strings.Repeat(step, level)+line)
			level = max(0, level+delta)
		}
	}
	return strings.Join(indented, "\n")
}
