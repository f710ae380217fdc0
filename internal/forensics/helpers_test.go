package forensics

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

// floatTolerance is the absolute tolerance used for score comparisons.
const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

// mustRawImage builds a RawImage or fails the test.
func mustRawImage(t *testing.T, w, h, channels int, pix []uint8) *RawImage {
	t.Helper()
	img, err := NewRawImage(w, h, channels, pix, len(pix))
	if err != nil {
		t.Fatalf("NewRawImage(%d, %d, %d) failed: %v", w, h, channels, err)
	}
	return img
}

// noisePixels returns w*h i.i.d. uniform samples in [0,255] from a seeded source.
func noisePixels(seed uint64, w, h int) []uint8 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pix := make([]uint8, w*h)
	for i := range pix {
		pix[i] = uint8(r.IntN(256))
	}
	return pix
}

// flattenQuadrant replaces the top-left quadrant with low-amplitude noise
// around mid-gray, as if a smooth region had been pasted in.
func flattenQuadrant(seed uint64, pix []uint8, w, h int) {
	r := rand.New(rand.NewPCG(seed+1, seed))
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			pix[y*w+x] = uint8(128 + r.IntN(9) - 4)
		}
	}
}

// gradientRGB returns a smooth w x h RGB test pattern with mild texture.
func gradientRGB(w, h int) []uint8 {
	pix := make([]uint8, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix,
				uint8((x*255)/max(1, w-1)),
				uint8((y*255)/max(1, h-1)),
				uint8((x*y+7*x)%256),
			)
		}
	}
	return pix
}

// offsetCodec returns the image with every sample increased by a
// quality-dependent offset, saturating at 255.
type offsetCodec struct {
	offset func(quality int) int
}

func (c offsetCodec) RoundTrip(img *RawImage, quality int) (*RawImage, error) {
	d := c.offset(quality)
	pix := img.Samples()
	for i, v := range pix {
		pix[i] = uint8(min(255, int(v)+d))
	}
	return NewRawImage(img.Width(), img.Height(), img.Channels(), pix, img.EncodedSize())
}

var errCodecBroken = errors.New("codec broken")

// failingCodec always fails.
type failingCodec struct{}

func (failingCodec) RoundTrip(*RawImage, int) (*RawImage, error) {
	return nil, errCodecBroken
}

// stubAnalyzer is a configurable Analyzer for engine tests.
type stubAnalyzer struct {
	id     AlgorithmID
	score  float64
	err    error
	panics bool
	block  bool
	delay  time.Duration
}

func (s *stubAnalyzer) ID() AlgorithmID     { return s.id }
func (s *stubAnalyzer) Name() string        { return "stub " + string(s.id) }
func (s *stubAnalyzer) Description() string { return "stub analyzer" }

func (s *stubAnalyzer) Analyze(ctx context.Context, _ *Input) (Outcome, error) {
	if s.panics {
		panic("stub exploded")
	}
	if s.block {
		<-ctx.Done()
		return Outcome{}, ctx.Err()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return Outcome{}, newAlgorithmError(s.id, ReasonDegenerate, s.err)
	}
	return Outcome{Score: s.score, Details: map[string]any{"stub": true}}, nil
}
