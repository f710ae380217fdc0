package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is
// handed to the handler.
const DefaultSettleDelay = 500 * time.Millisecond

// ErrNotDirectory is returned when the watched path is not a directory.
var ErrNotDirectory = errors.New("watch target is not a directory")

// Handler receives files that are ready for analysis. It runs on the
// watcher goroutine; events that arrive meanwhile are queued.
type Handler func(ctx context.Context, paths []string)

// DefaultExtensions returns the file extensions treated as images.
func DefaultExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// fileState identifies one version of a file.
type fileState struct {
	modTime time.Time
	size    int64
}

func (s fileState) same(other fileState) bool {
	return s.size == other.size && s.modTime.Equal(other.modTime)
}

// Watcher monitors a single directory for new and modified images.
type Watcher struct {
	dir        string
	settle     time.Duration
	existing   bool
	extensions []string
	logger     *slog.Logger

	// pending maps a path to the time of its last event.
	pending map[string]time.Time

	// handled records the version of each file already delivered.
	handled map[string]fileState
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithSettleDelay sets how long a file must be quiet before delivery.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting makes Run deliver the images already in the directory.
func WithExisting(existing bool) Option {
	return func(w *Watcher) {
		w.existing = existing
	}
}

// WithExtensions replaces the accepted file extensions. Matching is
// case-insensitive.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			w.extensions = append(w.extensions, strings.ToLower(ext))
		}
	}
}

// New creates a Watcher for dir. The directory must exist.
func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	w := &Watcher{
		dir:        abs,
		settle:     DefaultSettleDelay,
		extensions: DefaultExtensions(),
		pending:    make(map[string]time.Time),
		handled:    make(map[string]fileState),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Dir returns the absolute path of the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the directory until ctx is cancelled. Settled images are
// passed to handle in path order. Run returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	if w.existing {
		if err := w.queueExisting(); err != nil {
			return err
		}
	}

	w.logger.Info("watching directory", "dir", w.dir, "settle", w.settle)

	ticker := time.NewTicker(w.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.observe(event, time.Now())

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case now := <-ticker.C:
			if ready := w.ready(now); len(ready) > 0 {
				handle(ctx, ready)
			}
		}
	}
}

// tickInterval polls a few times per settle delay.
func (w *Watcher) tickInterval() time.Duration {
	return max(w.settle/4, 10*time.Millisecond)
}

// queueExisting marks every image already in the directory as pending.
func (w *Watcher) queueExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.dir, err)
	}

	// Backdate so they are delivered on the first tick.
	past := time.Now().Add(-w.settle)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.accepts(path) {
			w.pending[path] = past
		}
	}
	return nil
}

// observe records an fsnotify event.
func (w *Watcher) observe(event fsnotify.Event, now time.Time) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
		delete(w.handled, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if w.accepts(event.Name) {
			w.pending[event.Name] = now
		}
	}
}

// accepts reports whether path names a visible file with an image extension.
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(name)))
}

// ready removes and returns the pending files that have been quiet for the
// settle delay. A file whose size and modification time match the last
// delivered version is dropped.
func (w *Watcher) ready(now time.Time) []string {
	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		state := fileState{modTime: info.ModTime(), size: info.Size()}
		if prev, ok := w.handled[path]; ok && prev.same(state) {
			continue
		}
		w.handled[path] = state
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
