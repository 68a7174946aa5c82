package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject_MissingFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	got, err := LoadProject(dir, DefaultPipeline())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.PreferFinalMacro || !got.Reformat || got.BestEffort {
		t.Errorf("defaults altered: %+v", got)
	}
}

func TestLoadProject_Overrides(t *testing.T) {
	dir := t.TempDir()
	content := "best_effort: true\nreformat: false\nimage_extensions: [\".png\", \".pdf\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadProject(dir, DefaultPipeline())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.BestEffort {
		t.Error("best_effort override lost")
	}
	if got.Reformat {
		t.Error("reformat override lost")
	}
	if !got.PreferFinalMacro {
		t.Error("unset key must keep its default")
	}
	if len(got.ImageExtensions) != 2 || got.ImageExtensions[0] != ".png" {
		t.Errorf("image_extensions override lost: %v", got.ImageExtensions)
	}
}

func TestLoadProject_MalformedIsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("best_effort: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadProject(dir, DefaultPipeline()); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{APIKey: "k", WorkerCount: 2, MaxQueueSize: 10}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing api key")
	}
}
