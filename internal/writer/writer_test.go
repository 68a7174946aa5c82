package writer

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flattex/flattex/internal/config"
	"github.com/flattex/flattex/internal/flatten"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flattenProject(t *testing.T, files map[string]string) *flatten.Result {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	pipe := config.DefaultPipeline()
	pipe.ValidatePDFAssets = false
	res, err := flatten.Run(flatten.Options{ProjectDir: dir, RootDoc: "main.tex", Pipeline: pipe}, discard())
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return res
}

func TestWrite_FullOutputTree(t *testing.T) {
	res := flattenProject(t, map[string]string{
		"main.tex":         "\\documentclass{article}\n\\cite{A}\n\\includegraphics{figs/plot}\n\\bibliography{refs}\n",
		"refs.bib":         "@article{A, title={a}}\n@book{B, title={b}}\n",
		"figs/plot.png":    "png-bytes",
	})
	out := filepath.Join(t.TempDir(), "clean")
	if err := Write(res, out, discard()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	doc, err := os.ReadFile(filepath.Join(out, "main.tex"))
	if err != nil {
		t.Fatalf("merged document missing: %v", err)
	}
	if !strings.Contains(string(doc), `\bibliography{main}`) {
		t.Errorf("document must reference flattened bibliography: %q", doc)
	}

	bibOut, err := os.ReadFile(filepath.Join(out, "main.bib"))
	if err != nil {
		t.Fatalf("bibliography missing: %v", err)
	}
	if !strings.Contains(string(bibOut), "@article{A") || strings.Contains(string(bibOut), "@book{B") {
		t.Errorf("bibliography not filtered: %q", bibOut)
	}

	copied, err := os.ReadFile(filepath.Join(out, "figs", "plot.png"))
	if err != nil {
		t.Fatalf("asset not copied with relative structure: %v", err)
	}
	if string(copied) != "png-bytes" {
		t.Errorf("asset content damaged: %q", copied)
	}
}

func TestWrite_ReplacesExistingOutput(t *testing.T) {
	res := flattenProject(t, map[string]string{
		"main.tex": "\\documentclass{article}\nbody\n",
	})
	out := filepath.Join(t.TempDir(), "clean")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(out, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Write(res, out, discard()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("existing output directory must be replaced")
	}
}

func TestWrite_RefusesOutputEqualsInput(t *testing.T) {
	res := flattenProject(t, map[string]string{
		"main.tex": "\\documentclass{article}\nbody\n",
	})
	if err := Write(res, res.Root, discard()); err == nil {
		t.Error("expected error when output equals project root")
	}
}

func TestWrite_NoBibliographyFileWhenNothingKept(t *testing.T) {
	res := flattenProject(t, map[string]string{
		"main.tex": "\\documentclass{article}\nbody\n",
	})
	out := filepath.Join(t.TempDir(), "clean")
	if err := Write(res, out, discard()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "main.bib")); !os.IsNotExist(err) {
		t.Error("no bibliography file expected when nothing was cited")
	}
}
