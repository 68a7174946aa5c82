package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"tex write", fsnotify.Event{Name: "main.tex", Op: fsnotify.Write}, true},
		{"bib create", fsnotify.Event{Name: "refs.bib", Op: fsnotify.Create}, true},
		{"project config", fsnotify.Event{Name: ".flattex.yaml", Op: fsnotify.Write}, true},
		{"editor swap file", fsnotify.Event{Name: ".main.tex.swp", Op: fsnotify.Write}, false},
		{"unrelated extension", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "main.tex", Op: fsnotify.Chmod}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relevant(tc.ev); got != tc.want {
				t.Errorf("relevant(%v) = %v, want %v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestRun_DebouncedBurst(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(doc, []byte("v0"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, dir, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
			fired <- struct{}{}
		})
	}()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)

	// A rapid burst of writes should collapse into one callback.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(doc, []byte("edit"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired after document change")
	}

	select {
	case <-fired:
		t.Error("burst of writes triggered more than one callback")
	case <-time.After(2 * Debounce):
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestUnderAny(t *testing.T) {
	out := filepath.Join("/proj", "flat")
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join("/proj", "flat"), true},
		{filepath.Join("/proj", "flat", "main.tex"), true},
		{filepath.Join("/proj", "flatter", "main.tex"), false},
		{filepath.Join("/proj", "main.tex"), false},
	}
	for _, tc := range cases {
		if got := underAny(tc.path, []string{out}); got != tc.want {
			t.Errorf("underAny(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestRun_IgnoresOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "flat")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.tex"), []byte("v0"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan struct{}, 8)
	go func() {
		Run(ctx, dir, []string{out}, slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
			fired <- struct{}{}
		})
	}()

	time.Sleep(200 * time.Millisecond)

	// Writes into the ignored output tree must not trigger a run, even for
	// watched extensions.
	if err := os.WriteFile(filepath.Join(out, "main.tex"), []byte("built"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-fired:
		t.Fatal("output write triggered a rebuild")
	case <-time.After(2 * Debounce):
	}

	// A real source change still fires.
	if err := os.WriteFile(filepath.Join(dir, "main.tex"), []byte("edit"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("source change never triggered a rebuild")
	}
}
