// Package forensics implements the image manipulation detection engine.
//
// Four independent analyzers each turn a decoded image (and its EXIF
// metadata) into a manipulation score in [0,1]:
//
//   - ELAAnalyzer: multi-quality error level analysis
//   - JPEGQualityAnalyzer: original JPEG quality estimation
//   - NoiseAnalyzer: block-wise sensor noise consistency
//   - MetadataAnalyzer: EXIF editing heuristics
//
// An Engine binds analyzers to weights, runs them concurrently with a
// per-analyzer timeout, and combines the successful scores into a Verdict
// with a risk tier. Analyzer failures are reported inside the Verdict and
// never returned as errors; only engine construction can fail.
//
// Image decoding is not part of this package. Callers supply a RawImage,
// usually built with FromImage, and recompression goes through the Codec
// interface.
package forensics
