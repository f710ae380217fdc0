// Package imageio turns encoded image files into forensics inputs.
//
// It decodes JPEG, PNG, GIF, BMP, TIFF and WebP data, normalizes the pixels
// into a forensics.RawImage, digests the encoded bytes with SHA3-256 and
// extracts EXIF metadata with go-exif. Decode failures are reported here and
// never reach the forensics engine.
package imageio
