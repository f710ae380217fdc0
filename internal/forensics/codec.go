package forensics

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
)

// Codec re-encodes an image at a JPEG quality and decodes it back.
// The recompression-based analyzers depend on this capability rather than on
// a concrete encoder, so tests can substitute a deterministic fake.
type Codec interface {
	RoundTrip(img *RawImage, quality int) (*RawImage, error)
}

// JPEGCodec is the default Codec backed by image/jpeg.
type JPEGCodec struct{}

// RoundTrip encodes img as baseline JPEG at quality and decodes the result.
// The returned image has the same dimensions and channel count as img.
func (JPEGCodec) RoundTrip(img *RawImage, quality int) (*RawImage, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode JPEG at quality %d: %w", quality, err)
	}
	size := buf.Len()

	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode JPEG at quality %d: %w", quality, err)
	}

	out := fromImage(decoded, img.channels, size)
	if out.width != img.width || out.height != img.height {
		return nil, fmt.Errorf("%w: %dx%d became %dx%d", ErrSizeMismatch, img.width, img.height, out.width, out.height)
	}
	return out, nil
}

// roundTripAll runs codec over every quality, checking ctx between passes.
func roundTripAll(ctx context.Context, id AlgorithmID, codec Codec, img *RawImage, qualities []int, visit func(q int, decoded *RawImage)) error {
	for _, q := range qualities {
		if err := ctx.Err(); err != nil {
			return newAlgorithmError(id, ReasonCancelled, err)
		}
		decoded, err := codec.RoundTrip(img, q)
		if err != nil {
			return newAlgorithmError(id, ReasonCodec, err)
		}
		if decoded == nil || decoded.width != img.width || decoded.height != img.height || decoded.channels != img.channels {
			return newAlgorithmError(id, ReasonCodec, ErrSizeMismatch)
		}
		visit(q, decoded)
	}
	return nil
}
