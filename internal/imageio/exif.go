package imageio

import (
	"fmt"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/nao1215/imgforensics/internal/forensics"
)

// tagAliases maps EXIF standard tag names onto the names the metadata
// analyzer looks up.
var tagAliases = map[string]string{
	"PixelXDimension": forensics.TagExifImageWidth,
	"PixelYDimension": forensics.TagExifImageHeight,
}

// ExtractExif returns the EXIF tags found in data as name/value strings.
// Tags from the primary image and its Exif and GPS sub-IFDs are included;
// thumbnail tags are skipped. When a tag appears more than once the first
// occurrence wins. Any extraction error yields an empty record.
func ExtractExif(data []byte) forensics.ExifRecord {
	record := forensics.ExifRecord{}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return record
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return record
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.IfdPath, "IFD1") {
			continue
		}

		name := entry.TagName
		if alias, ok := tagAliases[name]; ok {
			name = alias
		}
		if name == "" {
			continue
		}
		if _, exists := record[name]; exists {
			continue
		}

		if value := formatValue(entry.Value, entry.Formatted); value != "" {
			record[name] = value
		}
	}

	return record
}

// formatValue renders an EXIF value as a plain string. Single-element
// numeric values become a bare number so that they compare naturally, for
// example Orientation becomes "1" rather than "[1]".
func formatValue(value any, formatted string) string {
	switch v := value.(type) {
	case string:
		return strings.TrimRight(v, "\x00")
	case []uint8:
		if len(v) == 1 {
			return strconv.FormatUint(uint64(v[0]), 10)
		}
	case []uint16:
		if len(v) == 1 {
			return strconv.FormatUint(uint64(v[0]), 10)
		}
	case []uint32:
		if len(v) == 1 {
			return strconv.FormatUint(uint64(v[0]), 10)
		}
	case []int32:
		if len(v) == 1 {
			return strconv.FormatInt(int64(v[0]), 10)
		}
	case []exifcommon.Rational:
		if len(v) == 1 {
			return fmt.Sprintf("%d/%d", v[0].Numerator, v[0].Denominator)
		}
	case []exifcommon.SignedRational:
		if len(v) == 1 {
			return fmt.Sprintf("%d/%d", v[0].Numerator, v[0].Denominator)
		}
	}
	return strings.TrimSuffix(strings.TrimPrefix(formatted, "["), "]")
}
