package forensics

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// Errors returned by NewRawImage.
var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("invalid image dimensions: width and height must be positive")

	// ErrUnsupportedChannels is returned for channel counts other than 1 or 3.
	ErrUnsupportedChannels = errors.New("unsupported channel count: must be 1 (luminance) or 3 (RGB)")

	// ErrSampleLength is returned when the sample buffer does not match the dimensions.
	ErrSampleLength = errors.New("sample buffer length does not match width*height*channels")
)

// RawImage is an immutable 8-bit pixel grid.
// Samples are stored row-major and interleaved per pixel, so a 3-channel
// image stores R, G, B for pixel (0,0) followed by pixel (1,0) and so on.
// Analyzers only read a RawImage; nothing in this package modifies one after
// construction.
type RawImage struct {
	width    int
	height   int
	channels int
	pix      []uint8

	// encodedSize is the byte length of the encoded file the image was decoded from.
	encodedSize int
}

// NewRawImage creates a RawImage from interleaved samples.
// The sample slice is copied so that later changes by the caller do not leak
// into the image.
func NewRawImage(width, height, channels int, pix []uint8, encodedSize int) (*RawImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedChannels, channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrSampleLength, width*height*channels, len(pix))
	}

	samples := make([]uint8, len(pix))
	copy(samples, pix)

	return &RawImage{
		width:       width,
		height:      height,
		channels:    channels,
		pix:         samples,
		encodedSize: encodedSize,
	}, nil
}

// FromImage converts a decoded image into a RawImage.
// Grayscale sources keep a single luminance channel; everything else is
// converted to non-premultiplied RGB and any alpha channel is dropped.
func FromImage(img image.Image, encodedSize int) *RawImage {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return fromImage(img, 1, encodedSize)
	default:
		return fromImage(img, 3, encodedSize)
	}
}

// fromImage converts img to a RawImage with the requested channel count.
func fromImage(img image.Image, channels, encodedSize int) *RawImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*channels)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+w]
			for x, v := range row {
				writePixel(pix, (y*w+x)*channels, channels, v, v, v)
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+w*4]
			for x := 0; x < w; x++ {
				writePixel(pix, (y*w+x)*channels, channels, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				writePixel(pix, (y*w+x)*channels, channels, r, g, bl)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA) //nolint:forcetypeassert // NRGBAModel always returns color.NRGBA
				writePixel(pix, (y*w+x)*channels, channels, c.R, c.G, c.B)
			}
		}
	}

	return &RawImage{
		width:       w,
		height:      h,
		channels:    channels,
		pix:         pix,
		encodedSize: encodedSize,
	}
}

// writePixel stores one pixel at offset, collapsing RGB to luminance for
// single-channel targets.
func writePixel(pix []uint8, offset, channels int, r, g, b uint8) {
	if channels == 1 {
		if r == g && g == b {
			pix[offset] = r
			return
		}
		pix[offset] = luma(r, g, b)
		return
	}
	pix[offset] = r
	pix[offset+1] = g
	pix[offset+2] = b
}

// luma returns the ITU-R BT.601 luminance of an RGB triple, rounded to 8 bits.
func luma(r, g, b uint8) uint8 {
	v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Min(255, math.Round(v)))
}

// Width returns the image width in pixels.
func (r *RawImage) Width() int { return r.width }

// Height returns the image height in pixels.
func (r *RawImage) Height() int { return r.height }

// Channels returns the number of samples per pixel (1 or 3).
func (r *RawImage) Channels() int { return r.channels }

// EncodedSize returns the byte length of the original encoded file.
func (r *RawImage) EncodedSize() int { return r.encodedSize }

// PixelCount returns width*height.
func (r *RawImage) PixelCount() int { return r.width * r.height }

// At returns sample c of the pixel at (x, y).
func (r *RawImage) At(x, y, c int) uint8 {
	return r.pix[(y*r.width+x)*r.channels+c]
}

// Samples returns a copy of the interleaved samples.
func (r *RawImage) Samples() []uint8 {
	out := make([]uint8, len(r.pix))
	copy(out, r.pix)
	return out
}

// Luminance returns a row-major single-channel view of the image as floats.
func (r *RawImage) Luminance() []float64 {
	out := make([]float64, r.width*r.height)
	if r.channels == 1 {
		for i, v := range r.pix {
			out[i] = float64(v)
		}
		return out
	}
	for i := range out {
		p := r.pix[i*3 : i*3+3]
		out[i] = float64(luma(p[0], p[1], p[2]))
	}
	return out
}

// Image returns the RawImage as a standard library image suitable for encoding.
// Single-channel images become *image.Gray and RGB images become *image.RGBA.
func (r *RawImage) Image() image.Image {
	rect := image.Rect(0, 0, r.width, r.height)
	if r.channels == 1 {
		return &image.Gray{Pix: r.Samples(), Stride: r.width, Rect: rect}
	}

	dst := image.NewRGBA(rect)
	for i := 0; i < r.width*r.height; i++ {
		copy(dst.Pix[i*4:i*4+3], r.pix[i*3:i*3+3])
		dst.Pix[i*4+3] = 0xff
	}
	return dst
}

// ExifRecord maps EXIF tag names to their string values.
// A nil or empty record is valid and means no metadata was found.
type ExifRecord map[string]string

// Lookup returns the trimmed value of tag and whether it is present and non-empty.
func (e ExifRecord) Lookup(tag string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e[tag]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(strings.TrimRight(v, "\x00"))
	if v == "" {
		return "", false
	}
	return v, true
}

// Input is everything an analyzer may look at.
type Input struct {
	// Image is the decoded pixel grid. Required.
	Image *RawImage

	// Exif is the metadata extracted alongside the image. May be nil.
	Exif ExifRecord
}
