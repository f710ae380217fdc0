package imageio

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/imgforensics/internal/forensics"
)

// Decode errors. These never reach the forensics engine.
var (
	// ErrEmptyInput is returned when there are no bytes to decode.
	ErrEmptyInput = errors.New("empty image input")

	// ErrUnsupportedFormat is returned when no registered decoder recognizes the data.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrTooLarge is returned when the input exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds maximum size")
)

// DefaultMaxSize is the largest file Load accepts by default.
const DefaultMaxSize int64 = 50 * 1024 * 1024

// Decoded is an image ready for analysis.
type Decoded struct {
	// Image is the normalized pixel grid.
	Image *forensics.RawImage

	// Exif holds the extracted metadata. It is empty, not nil, when the file
	// carries no EXIF block.
	Exif forensics.ExifRecord

	// Format is the registered decoder name, such as "jpeg" or "png".
	Format string

	// Size is the encoded byte length.
	Size int

	// SHA3 is the hex-encoded SHA3-256 digest of the encoded bytes.
	SHA3 string
}

// Decode interprets data as an image and extracts its EXIF metadata.
// A missing or unreadable EXIF block is not an error.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("failed to decode %s image: %w", formatOrUnknown(format), err)
	}

	raw := forensics.FromImage(normalize(img), len(data))
	digest := sha3.Sum256(data)

	return &Decoded{
		Image:  raw,
		Exif:   ExtractExif(data),
		Format: format,
		Size:   len(data),
		SHA3:   hex.EncodeToString(digest[:]),
	}, nil
}

// Load reads the file at path, refusing files larger than maxSize.
// A non-positive maxSize means DefaultMaxSize.
func Load(path string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the command line or watched directory
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, path, maxSize)
	}
	return data, nil
}

// normalize keeps grayscale images as they are and converts everything else
// to non-premultiplied RGBA with a zero origin.
func normalize(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return img
	default:
		return imaging.Clone(img)
	}
}

func formatOrUnknown(format string) string {
	if format == "" {
		return "unknown"
	}
	return format
}
