// Package writer materializes a pipeline result as a clean output tree.
// It only ever runs after the pipeline succeeded, so a failed run leaves no
// partial output behind.
package writer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flattex/flattex/internal/bib"
	"github.com/flattex/flattex/internal/flatten"
)

// Write replaces outDir with the flattened project: the merged document, the
// filtered bibliography, and every resolved asset and style file copied with
// its source-relative path preserved.
func Write(res *flatten.Result, outDir string, log *slog.Logger) error {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	if absOut == res.Root {
		return fmt.Errorf("output directory must differ from the project root: %s", absOut)
	}

	if err := os.RemoveAll(absOut); err != nil {
		return fmt.Errorf("clear output directory: %w", err)
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	docPath := filepath.Join(absOut, flatten.OutputDocName)
	if err := os.WriteFile(docPath, []byte(res.Manifest.MergedText), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flatten.OutputDocName, err)
	}
	log.Info("wrote merged document", "path", docPath)

	if len(res.Manifest.Bibliography) > 0 || len(res.Manifest.BibStrings) > 0 {
		content := bib.Render(res.Manifest.BibStrings, res.Manifest.Bibliography)
		bibPath := filepath.Join(absOut, flatten.OutputBibName)
		if err := os.WriteFile(bibPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", flatten.OutputBibName, err)
		}
		log.Info("wrote bibliography", "entries", len(res.Manifest.Bibliography))
	}

	files := make([]string, 0, len(res.Manifest.Assets)+len(res.Manifest.Styles))
	files = append(files, res.Manifest.Assets...)
	files = append(files, res.Manifest.Styles...)
	for _, src := range files {
		rel, err := filepath.Rel(res.Root, src)
		if err != nil || strings.HasPrefix(rel, "..") {
			// The resolver guarantees in-root paths; anything else is a bug
			// upstream, not something to propagate into the output tree.
			continue
		}
		dst := filepath.Join(absOut, rel)
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
	}
	log.Info("copied project files", "count", len(files))
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
