package scanner

import (
	"regexp"
	"sort"
)

// verbatimEnvs are environments whose content is exempt from comment
// stripping. A % inside them is literal output, not a comment.
var verbatimEnvs = []string{"verbatim", "Verbatim", "lstlisting"}

var (
	blockCommentRe = regexp.MustCompile(`(?s)\\begin\s*\{\s*comment\s*\}.*?\\end\s*\{\s*comment\s*\}\s*\n?`)
	verbatimRes    = compileEnvRes(verbatimEnvs)
)

func compileEnvRes(envs []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(envs))
	for _, env := range envs {
		res = append(res, regexp.MustCompile(`(?s)\\begin\s*\{\s*`+env+`\s*\}.*?\\end\s*\{\s*`+env+`\s*\}`))
	}
	return res
}

// StripComments removes line comments (an unescaped % through the end of
// line, newline included) and comment environments, leaving verbatim-like
// environments untouched. Pure and idempotent.
func StripComments(text string) string {
	spans := verbatimSpans(text)

	var out []byte
	last := 0
	for _, sp := range spans {
		out = append(out, stripSegment(text[last:sp[0]])...)
		out = append(out, text[sp[0]:sp[1]]...)
		last = sp[1]
	}
	out = append(out, stripSegment(text[last:])...)
	return string(out)
}

// verbatimSpans returns the non-overlapping byte spans of verbatim-like
// environments, sorted by start.
func verbatimSpans(text string) [][2]int {
	var spans [][2]int
	for _, re := range verbatimRes {
		for _, m := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	// Drop spans nested inside an earlier one.
	var merged [][2]int
	end := 0
	for _, sp := range spans {
		if sp[0] >= end {
			merged = append(merged, sp)
			end = sp[1]
		}
	}
	return merged
}

func stripSegment(text string) string {
	text = stripLineComments(text)
	return blockCommentRe.ReplaceAllString(text, "")
}

func stripLineComments(text string) string {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '%' && !escaped(text, i) {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			// The loop increment also consumes the newline, matching TeX's
			// behavior of a comment eating its line break.
			continue
		}
		out = append(out, text[i])
	}
	return string(out)
}
