package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/imageio"
)

// writePNG writes a small textured PNG to dir and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 5), B: uint8((x * y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func testEngine(t *testing.T) *forensics.Engine {
	t.Helper()
	e, err := forensics.NewDefaultEngine(forensics.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewDefaultEngine: %v", err)
	}
	return e
}

func TestLoadStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	t.Run("reads the file", func(t *testing.T) {
		t.Parallel()

		job := NewJob(path)
		if err := NewLoadStep(0).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(job.Data) == 0 {
			t.Error("expected data to be loaded")
		}
	})

	t.Run("keeps in-memory data", func(t *testing.T) {
		t.Parallel()

		job := NewJobFromBytes("memory.png", []byte("abc"))
		if err := NewLoadStep(0).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(job.Data) != "abc" {
			t.Errorf("expected data to be untouched, got %q", job.Data)
		}
	})

	t.Run("enforces the size limit", func(t *testing.T) {
		t.Parallel()

		job := NewJob(path)
		if err := NewLoadStep(8).Do(context.Background(), job); !errors.Is(err, imageio.ErrTooLarge) {
			t.Errorf("expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		job := NewJob(filepath.Join(dir, "missing.png"))
		if err := NewLoadStep(0).Do(context.Background(), job); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

func TestDecodeStep(t *testing.T) {
	t.Parallel()

	t.Run("fills in file information", func(t *testing.T) {
		t.Parallel()

		path := writePNG(t, t.TempDir(), "b.png")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		job := NewJobFromBytes(path, data)
		if err := NewDecodeStep().Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r := job.Report
		if r.Format != "png" || r.Width != 48 || r.Height != 48 || r.SizeBytes != len(data) {
			t.Errorf("unexpected file info: %+v", r)
		}
		if r.SHA3 == "" {
			t.Error("expected digest")
		}
		if job.Data != nil {
			t.Error("expected encoded bytes to be released")
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()

		job := NewJobFromBytes("junk.bin", []byte("not an image"))
		if err := NewDecodeStep().Do(context.Background(), job); !errors.Is(err, imageio.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestForensicsStep(t *testing.T) {
	t.Parallel()

	t.Run("requires a decoded image", func(t *testing.T) {
		t.Parallel()

		step := NewForensicsStep(testEngine(t), WithForensicsLogger(quietLogger()))
		if err := step.Do(context.Background(), NewJob("x.png")); !errors.Is(err, ErrNotDecoded) {
			t.Errorf("expected ErrNotDecoded, got %v", err)
		}
	})
}

func TestRecommendStep(t *testing.T) {
	t.Parallel()

	job := NewJob("x.png")
	if err := NewRecommendStep().Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Report.Recommendations != nil {
		t.Error("expected no recommendations without a verdict")
	}

	job.Report.ApplyVerdict(forensics.Verdict{RiskLevel: forensics.RiskHigh}, nil)
	if err := NewRecommendStep().Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(job.Report.Recommendations) != 1 {
		t.Errorf("expected the risk advisory only, got %v", job.Report.Recommendations)
	}
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	p := DefaultPipeline(testEngine(t), []Option{WithLogger(quietLogger())}, WithPipelineLogger(quietLogger()))

	expected := []string{"load", "decode", "forensics", "recommend"}
	names := p.StepNames()
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("step %d: expected %q, got %q", i, expected[i], names[i])
		}
	}

	path := writePNG(t, t.TempDir(), "c.png")
	job := NewJob(path)
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := job.Report
	if r.Failed() {
		t.Fatalf("expected a verdict, got error %q", r.ErrorMessage)
	}
	if len(r.DetectionMethods) != 4 {
		t.Errorf("expected 4 detection methods, got %v", r.DetectionMethods)
	}
	if len(r.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		t.Errorf("score out of range: %v", r.ConfidenceScore)
	}
}
