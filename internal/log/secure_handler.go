package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
// Keys are compared in lower case, so EXIF tag names such as "GPSLatitude"
// or "BodySerialNumber" match regardless of how they were spelled.
var sensitiveKeys = map[string]bool{
	// Location
	"gpslatitude":         true,
	"gpslongitude":        true,
	"gpsaltitude":         true,
	"gpstimestamp":        true,
	"gpsdatestamp":        true,
	"gpsdestlatitude":     true,
	"gpsdestlongitude":    true,
	"gpsareainformation":  true,
	"gpsprocessingmethod": true,

	// Device identity
	"serialnumber":         true,
	"bodyserialnumber":     true,
	"lensserialnumber":     true,
	"cameraserialnumber":   true,
	"internalserialnumber": true,
	"imageuniqueid":        true,
	"hostcomputer":         true,

	// Personal
	"artist":          true,
	"copyright":       true,
	"ownername":       true,
	"cameraownername": true,
	"xpauthor":        true,
	"xpcomment":       true,
	"usercomment":     true,

	// Credentials
	"password": true,
	"token":    true,
	"secret":   true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Decimal coordinate pairs, e.g. "35.6586,139.7454"
	regexp.MustCompile(`^\s*-?\d{1,3}\.\d{3,}\s*,\s*-?\d{1,3}\.\d{3,}\s*$`),

	// Degrees/minutes/seconds, e.g. 35°39'31.0"N
	regexp.MustCompile(`\d{1,3}°\s*\d{1,2}['′]\s*\d{1,2}(\.\d+)?["″]?\s*[NSEW]`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to sanitize privacy-sensitive image
// metadata. It intercepts log records and masks attribute values whose key
// names a location, device identifier or person, or whose value looks like
// a coordinate, before passing them to the underlying handler.
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// All log attributes will be sanitized before being passed to the underlying handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString && isSensitiveValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}

	return a
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// "gps" covers every GPS IFD tag except GPSVersionID, which is harmless
// but masked anyway.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"gps", "serial", "owner", "password", "secret", "token",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// ExifAttrs turns an EXIF tag map into log attributes, sorted by tag name,
// grouped under "exif". Sensitive tags are masked when the attributes pass
// through a SecureHandler.
func ExifAttrs(tags map[string]string) slog.Attr {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	slices.Sort(names)

	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.String(name, tags[name]))
	}
	return slog.Group("exif", attrs...)
}

// NewSecureLogger creates a new slog.Logger with secure handling.
// The logger writes text to w at Warn level, or Debug when verbose is set.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a new slog.Logger with secure handling
// that outputs JSON format. Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

// handlerOptions returns the level options shared by both loggers.
func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
