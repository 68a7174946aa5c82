package scanner

import (
	"testing"
)

func TestFind_SingleArg(t *testing.T) {
	text := `before \input{chapters/intro} after`
	occs := Find(text, "input", 1)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Args[0] != "chapters/intro" {
		t.Errorf("expected arg %q, got %q", "chapters/intro", occs[0].Args[0])
	}
	if got := text[occs[0].Start:occs[0].End]; got != `\input{chapters/intro}` {
		t.Errorf("unexpected span: %q", got)
	}
}

func TestFind_OptionalArguments(t *testing.T) {
	occs := Find(`\usepackage[margin=1in]{geometry}`, "usepackage", 1)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Opts[0] != "margin=1in" {
		t.Errorf("expected opt %q, got %q", "margin=1in", occs[0].Opts[0])
	}
	if occs[0].Args[0] != "geometry" {
		t.Errorf("expected arg %q, got %q", "geometry", occs[0].Args[0])
	}
}

func TestFind_NestedBraces(t *testing.T) {
	text := `\newcommand{\vect}[1]{\mathbf{#1}}`
	occs := Find(text, "newcommand", 2)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Args[0] != `\vect` {
		t.Errorf("expected first arg %q, got %q", `\vect`, occs[0].Args[0])
	}
	if occs[0].Args[1] != `\mathbf{#1}` {
		t.Errorf("expected body %q, got %q", `\mathbf{#1}`, occs[0].Args[1])
	}
	if occs[0].Opts[0] != "1" {
		t.Errorf("expected arity opt %q, got %q", "1", occs[0].Opts[0])
	}
}

func TestFind_StarredForm(t *testing.T) {
	occs := Find(`\newcommand*{\x}{y}`, "newcommand", 2)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if !occs[0].Star {
		t.Error("expected starred occurrence")
	}
}

func TestFind_DoesNotMatchLongerName(t *testing.T) {
	if occs := Find(`\inputx{foo}`, "input", 1); len(occs) != 0 {
		t.Errorf("expected no occurrences for \\inputx, got %d", len(occs))
	}
}

func TestFind_UnbalancedSkipped(t *testing.T) {
	if occs := Find(`\input{never closed`, "input", 1); len(occs) != 0 {
		t.Errorf("expected no occurrences for unbalanced braces, got %d", len(occs))
	}
}

func TestFind_MultipleInOrder(t *testing.T) {
	text := `\cite{a} middle \cite[p.3]{b,c}`
	occs := Find(text, "cite", 1)
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
	if occs[0].Args[0] != "a" || occs[1].Args[0] != "b,c" {
		t.Errorf("unexpected args: %q, %q", occs[0].Args[0], occs[1].Args[0])
	}
	if occs[0].Start >= occs[1].Start {
		t.Error("occurrences not in source order")
	}
}

func TestMatchBrace(t *testing.T) {
	tests := []struct {
		text string
		open int
		want int
	}{
		{"{abc}", 0, 4},
		{"{a{b}c}", 0, 6},
		{"{never", 0, -1},
		{`{esc\}aped}`, 0, 10},
		{"x{y}", 1, 3},
	}
	for _, tt := range tests {
		if got := MatchBrace(tt.text, tt.open); got != tt.want {
			t.Errorf("MatchBrace(%q, %d) = %d, want %d", tt.text, tt.open, got, tt.want)
		}
	}
}

func TestCountControl(t *testing.T) {
	text := `\vect{x} + \vector{y} + \vect{z}`
	if got := CountControl(text, "vect"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := CountControl(text, "vector"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestCountWord(t *testing.T) {
	text := "myblue and myblue2 and {myblue}"
	if got := CountWord(text, "myblue"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := CountWord(text, "missing"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
