package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag values persist across Execute calls; start each run clean.
	flattenInput = "."
	flattenOutput = ""
	flattenBestEffort = false
	flattenNoFormat = false
	flattenWatch = false
	flattenReport = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "flattex version dev") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestFlattenCmd_WritesOutput(t *testing.T) {
	proj := t.TempDir()
	doc := "% comment\n\\documentclass{article}\n\\begin{document}\n\\input{body}\n\\end{document}\n"
	if err := os.WriteFile(filepath.Join(proj, "main.tex"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(proj, "body.tex"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(t.TempDir(), "flat")

	stdout, err := execute(t, "flatten", "-i", proj, "-o", out, "--report")
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	merged, err := os.ReadFile(filepath.Join(out, "main.tex"))
	if err != nil {
		t.Fatalf("output document missing: %v", err)
	}
	if !strings.Contains(string(merged), "hello") {
		t.Errorf("included file not merged: %q", merged)
	}
	if strings.Contains(string(merged), "% comment") {
		t.Errorf("comment survived: %q", merged)
	}
	if !strings.Contains(stdout, "# Flattening report") {
		t.Errorf("--report printed nothing: %q", stdout)
	}
}

func TestFlattenCmd_MissingInclusionFails(t *testing.T) {
	proj := t.TempDir()
	doc := "\\documentclass{article}\n\\input{gone}\n"
	if err := os.WriteFile(filepath.Join(proj, "main.tex"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(t.TempDir(), "flat")

	if _, err := execute(t, "flatten", "-i", proj, "-o", out); err == nil {
		t.Fatal("expected failure for missing inclusion")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output should be written on failure")
	}

	// Best-effort downgrades the same project to a warning.
	if _, err := execute(t, "flatten", "-i", proj, "-o", out, "--best-effort"); err != nil {
		t.Fatalf("best-effort run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "main.tex")); err != nil {
		t.Errorf("best-effort run wrote no output: %v", err)
	}
}
