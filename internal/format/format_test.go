package format

import (
	"strings"
	"testing"
)

func TestReformat_MergesParagraphLines(t *testing.T) {
	input := "This is one\nparagraph split\nacross lines.\n\nNext paragraph.\n"
	got := Reformat(input, nil)
	if !strings.Contains(got, "This is one paragraph split across lines.") {
		t.Errorf("paragraph lines not merged: %q", got)
	}
	if !strings.Contains(got, "\n\nNext paragraph.") {
		t.Errorf("paragraph boundary lost: %q", got)
	}
}

func TestReformat_StripsLeadingIndentation(t *testing.T) {
	input := "    indented once\n\n\t\tindented twice\n"
	got := Reformat(input, nil)
	if strings.Contains(got, "    indented") || strings.Contains(got, "\tindented") {
		t.Errorf("leading indentation not stripped: %q", got)
	}
}

func TestReformat_NormalizesBlankLines(t *testing.T) {
	input := "a\n\n\n\n\nb\n"
	got := Reformat(input, nil)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank-line runs not collapsed: %q", got)
	}
	if !strings.Contains(got, "a\n\nb") {
		t.Errorf("single blank line must remain: %q", got)
	}
}

func TestReformat_ProtectedEnvironmentUntouched(t *testing.T) {
	table := "\\begin{tabular}{ll}\na & b \\\\\nc & d \\\\\n\\end{tabular}"
	input := "before\ntext\n\n" + table + "\n\nafter\ntext\n"
	got := Reformat(input, nil)
	if !strings.Contains(got, table) {
		t.Errorf("protected tabular content altered:\n%q", got)
	}
	if !strings.Contains(got, "before text") || !strings.Contains(got, "after text") {
		t.Errorf("surrounding paragraphs not merged: %q", got)
	}
}

func TestReformat_CaptionCollapsed(t *testing.T) {
	input := "\\begin{figure}\n\\caption{A caption\nsplit over\nlines}\n\\end{figure}\n"
	got := Reformat(input, nil)
	if !strings.Contains(got, `\caption{A caption split over lines}`) {
		t.Errorf("caption not collapsed: %q", got)
	}
}

func TestReformat_ControlSequenceLineNotMerged(t *testing.T) {
	input := "text line\n\\section{Next}\n"
	got := Reformat(input, nil)
	if !strings.Contains(got, "\n\\section{Next}") {
		t.Errorf("line starting a control sequence must keep its newline: %q", got)
	}
}

func TestReindent_NestedEnvironments(t *testing.T) {
	input := strings.Join([]string{
		`\begin{document}`,
		`\begin{itemize}`,
		`\item one`,
		`\end{itemize}`,
		`\end{document}`,
	}, "\n")
	got := Reindent(input)
	lines := strings.Split(got, "\n")
	want := []string{
		`\begin{document}`,
		`\begin{itemize}`,
		`    \item one`,
		`\end{itemize}`,
		`\end{document}`,
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestReindent_LeftRightTracked(t *testing.T) {
	input := strings.Join([]string{
		`\left(`,
		`x`,
		`\right)`,
	}, "\n")
	got := Reindent(input)
	lines := strings.Split(got, "\n")
	if lines[1] != "    x" {
		t.Errorf("content inside \\left...\\right must indent, got %q", lines[1])
	}
	if lines[2] != `\right)` {
		t.Errorf("\\right line must dedent first, got %q", lines[2])
	}
}

func TestReindent_NeverNegative(t *testing.T) {
	input := `\end{itemize}` + "\nafter\n"
	got := Reindent(input)
	if strings.Contains(got, "    after") {
		t.Errorf("indent level must clamp at zero: %q", got)
	}
}
