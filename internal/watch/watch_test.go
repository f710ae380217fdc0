package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestNew tests watcher creation.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		w, err := New(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !filepath.IsAbs(w.Dir()) {
			t.Errorf("expected absolute dir, got %q", w.Dir())
		}
		if w.settle != DefaultSettleDelay {
			t.Errorf("expected default settle delay, got %v", w.settle)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := New(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("regular file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "photo.jpg")
		writeFile(t, path, "x")

		_, err := New(path)
		if !errors.Is(err, ErrNotDirectory) {
			t.Errorf("expected ErrNotDirectory, got %v", err)
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		w, err := New(t.TempDir(),
			WithSettleDelay(2*time.Second),
			WithExisting(true),
			WithExtensions(".HEIC"),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.settle != 2*time.Second {
			t.Errorf("expected settle 2s, got %v", w.settle)
		}
		if !w.existing {
			t.Error("expected existing files to be queued")
		}
		if !slices.Equal(w.extensions, []string{".heic"}) {
			t.Errorf("expected lower-cased extensions, got %v", w.extensions)
		}
	})
}

// TestWatcher_Accepts tests file filtering.
func TestWatcher_Accepts(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/in/photo.jpg", true},
		{"/in/PHOTO.JPEG", true},
		{"/in/scan.tiff", true},
		{"/in/shot.webp", true},
		{"/in/notes.txt", false},
		{"/in/.photo.jpg", false},
		{"/in/photo.jpg.part", false},
		{"/in/noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := w.accepts(tt.path); got != tt.want {
				t.Errorf("accepts(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// TestWatcher_Ready tests settling and deduplication.
func TestWatcher_Ready(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(dir, WithSettleDelay(time.Second), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeFile(t, a, "aaa")
	writeFile(t, b, "bbb")

	start := time.Now()
	w.observe(fsnotify.Event{Name: b, Op: fsnotify.Create}, start)
	w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write}, start)
	w.observe(fsnotify.Event{Name: filepath.Join(dir, "c.txt"), Op: fsnotify.Create}, start)

	if got := w.ready(start.Add(500 * time.Millisecond)); len(got) != 0 {
		t.Errorf("expected nothing before the settle delay, got %v", got)
	}

	got := w.ready(start.Add(time.Second))
	if !slices.Equal(got, []string{a, b}) {
		t.Errorf("expected [a b] in path order, got %v", got)
	}

	// A spurious event without a content change is not delivered again.
	w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write}, start.Add(2*time.Second))
	if got := w.ready(start.Add(4 * time.Second)); len(got) != 0 {
		t.Errorf("expected unchanged file to be skipped, got %v", got)
	}

	// A real change is.
	writeFile(t, a, "aaaa")
	w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write}, start.Add(5*time.Second))
	if got := w.ready(start.Add(7 * time.Second)); !slices.Equal(got, []string{a}) {
		t.Errorf("expected modified file to be delivered, got %v", got)
	}
}

// TestWatcher_RemoveForgetsFile tests that removal drops pending state.
func TestWatcher_RemoveForgetsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(dir, WithSettleDelay(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(dir, "gone.jpg")
	now := time.Now()
	w.observe(fsnotify.Event{Name: path, Op: fsnotify.Create}, now)
	w.observe(fsnotify.Event{Name: path, Op: fsnotify.Remove}, now)

	if len(w.pending) != 0 {
		t.Errorf("expected no pending files, got %v", w.pending)
	}
}

// TestWatcher_Run tests delivery of existing and new files.
func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.jpg")
	writeFile(t, existing, "old")
	writeFile(t, filepath.Join(dir, "readme.txt"), "ignored")

	w, err := New(dir,
		WithSettleDelay(50*time.Millisecond),
		WithExisting(true),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	delivered := make(chan struct{}, 16)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, paths []string) {
			mu.Lock()
			got = append(got, paths...)
			mu.Unlock()
			delivered <- struct{}{}
		})
	}()

	waitFor := func(path string) {
		t.Helper()
		for {
			mu.Lock()
			found := slices.Contains(got, path)
			mu.Unlock()
			if found {
				return
			}
			select {
			case <-delivered:
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %s", path)
			}
		}
	}

	waitFor(existing)

	added := filepath.Join(dir, "new.png")
	writeFile(t, added, "new")
	waitFor(added)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected nil error on cancellation, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range got {
		if filepath.Ext(p) == ".txt" {
			t.Errorf("unexpected non-image delivery: %s", p)
		}
	}
}
