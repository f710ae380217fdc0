// Package log provides secure logging functionality with automatic sanitization
// of privacy-sensitive image metadata, built on top of the standard slog package.
//
// Images often carry more than pixels: GPS coordinates, camera and lens serial
// numbers, the owner's name and the computer that edited them. Debug logs of
// EXIF data must not leak these.
//
// # Security Features
//
// The SecureHandler automatically sanitizes:
//   - GPS tags (GPSLatitude, GPSLongitude, GPSAltitude, ...)
//   - Device identifiers (BodySerialNumber, LensSerialNumber, ImageUniqueID, HostComputer)
//   - Personal tags (Artist, Copyright, OwnerName, UserComment)
//   - Values that look like coordinates, regardless of key
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("decoded image",
//	    "file", "photo.jpg",
//	    log.ExifAttrs(exif), // GPS and serial tags become ***REDACTED***
//	)
//
//	slog.SetDefault(logger)
package log
