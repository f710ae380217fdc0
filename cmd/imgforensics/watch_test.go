package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/imgforensics/internal/report"
	"github.com/nao1215/imgforensics/internal/watch"
)

// TestNewWatchCmd tests the watch command definition.
func TestNewWatchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewWatchCmd()

	for _, name := range []string{"settle", "existing", "concurrency", "json", "output", "metrics-file"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}

	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("expected an error without a directory argument")
	}
}

// TestNewWatchWriter tests writer selection for streamed reports.
func TestNewWatchWriter(t *testing.T) {
	t.Parallel()

	t.Run("stdout only", func(t *testing.T) {
		t.Parallel()

		w, closeOutput, err := newWatchWriter(testConfig("dir"), &bytes.Buffer{}, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() {
			if err := closeOutput(); err != nil {
				t.Errorf("unexpected close error: %v", err)
			}
		}()

		if _, ok := w.(*report.SimpleWriter); !ok {
			t.Errorf("expected *report.SimpleWriter, got %T", w)
		}
	})

	t.Run("json lines appended to file", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("dir")
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "verdicts.jsonl")
		if err := os.WriteFile(cfg.ReportFile, []byte("{\"previous\":true}\n"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		w, closeOutput, err := newWatchWriter(cfg, &bytes.Buffer{}, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := w.(*report.MultiWriter); !ok {
			t.Errorf("expected *report.MultiWriter, got %T", w)
		}
		if err := closeOutput(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}

		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !strings.HasPrefix(string(content), "{\"previous\":true}") {
			t.Errorf("expected existing content to be kept, got %q", content)
		}
	})
}

// TestRunWatch tests that images in the watched directory are analyzed.
func TestRunWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, dir, "first.png")

	w, err := watch.New(dir,
		watch.WithSettleDelay(20*time.Millisecond),
		watch.WithExisting(true),
		watch.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, testConfig(dir), w, quietLogger(), &out, false)
	}()

	waitForOutput := func(want string) {
		t.Helper()
		for !strings.Contains(out.String(), want) {
			select {
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q in output:\n%s", want, out.String())
			case <-time.After(20 * time.Millisecond):
			}
		}
	}

	waitForOutput("first.png")
	writePNG(t, dir, "second.png")
	waitForOutput("second.png")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	if strings.Count(output, "IMAGE FORENSICS REPORT") != 2 {
		t.Errorf("expected 2 reports, got:\n%s", output)
	}
	if !strings.Contains(output, "BATCH SUMMARY") {
		t.Errorf("expected a summary on exit, got:\n%s", output)
	}
}
