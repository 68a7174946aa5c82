// Package scanner matches LaTeX control sequences as fixed-shape textual
// patterns. There is no grammar for the surrounding language; each directive
// is matched by name with a brace-aware argument scan so that nested braces
// inside arguments are handled correctly.
package scanner

// Occurrence is one matched control sequence with its arguments.
type Occurrence struct {
	Start int // byte offset of the backslash
	End   int // byte offset just past the last argument
	Star  bool
	Opts  []string // contents of [...] groups, in order of appearance
	Args  []string // contents of {...} groups, in order of appearance
}

// Find scans text for occurrences of \name taking argc braced arguments.
// Bracket groups may appear anywhere between the name and the final braced
// argument (\usepackage[opts]{pkg}, \newcommand{\x}[2][def]{body}).
// Occurrences whose arguments cannot be fully matched are skipped; callers
// that care compare against CountControl to detect malformed directives.
func Find(text, name string, argc int) []Occurrence {
	var occs []Occurrence
	for i := 0; i+len(name) < len(text); i++ {
		if text[i] != '\\' || escaped(text, i) {
			continue
		}
		if text[i+1:i+1+len(name)] != name {
			continue
		}
		j := i + 1 + len(name)
		if j < len(text) && isLetter(text[j]) {
			continue // longer control sequence, e.g. \inputx
		}

		occ := Occurrence{Start: i}
		j = skipSpace(text, j)
		if j < len(text) && text[j] == '*' {
			occ.Star = true
			j = skipSpace(text, j+1)
		}

		ok := true
		for len(occ.Args) < argc {
			j = skipSpace(text, j)
			if j >= len(text) {
				ok = false
				break
			}
			switch text[j] {
			case '[':
				close := matchBracket(text, j)
				if close < 0 {
					ok = false
				} else {
					occ.Opts = append(occ.Opts, text[j+1:close])
					j = close + 1
				}
			case '{':
				close := MatchBrace(text, j)
				if close < 0 {
					ok = false
				} else {
					occ.Args = append(occ.Args, text[j+1:close])
					j = close + 1
				}
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if !ok {
			i += len(name)
			continue
		}

		occ.End = j
		occs = append(occs, occ)
		i = j - 1
	}
	return occs
}

// MatchBrace returns the index of the brace matching the opening brace at
// open, or -1 if the group never closes. Escaped braces do not count.
func MatchBrace(text string, open int) int {
	if open >= len(text) || text[open] != '{' {
		return -1
	}
	depth := 1
	for i := open + 1; i < len(text); i++ {
		if escaped(text, i) {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchBracket finds the closing ] for the bracket at open. Brackets do not
// nest in LaTeX, but a braced group inside the bracket may contain one.
func matchBracket(text string, open int) int {
	depth := 0
	for i := open + 1; i < len(text); i++ {
		if escaped(text, i) {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ']':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// CountControl counts occurrences of the control sequence \name, without
// parsing arguments.
func CountControl(text, name string) int {
	n := 0
	for i := 0; i+len(name) < len(text); i++ {
		if text[i] != '\\' || escaped(text, i) {
			continue
		}
		if text[i+1:i+1+len(name)] != name {
			continue
		}
		j := i + 1 + len(name)
		if j < len(text) && isLetter(text[j]) {
			continue
		}
		n++
		i = j - 1
	}
	return n
}

// CountWord counts word-boundary occurrences of word in text.
func CountWord(text, word string) int {
	if word == "" {
		return 0
	}
	n := 0
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] != word {
			continue
		}
		if i > 0 && isWordChar(text[i-1]) {
			continue
		}
		if end := i + len(word); end < len(text) && isWordChar(text[end]) {
			continue
		}
		n++
		i += len(word) - 1
	}
	return n
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
