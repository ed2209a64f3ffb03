// Package walk implements the pruning directory traversal (C2): a
// channel-based file iterator that never descends into a directory
// matched by the ignore.Matcher, grounded in the original's
// GitignoreDirectoryTraversal.
package walk

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/ignore"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
)

// DefaultMaxFileSize is the per-file size ceiling applied unless the
// Walker is configured with a different one (1 MiB, per the original's
// traverse_files limit).
const DefaultMaxFileSize = 1 << 20

// Result is one discovered, accepted file.
type Result struct {
	Path string // absolute path
	Rel  string // project-root-relative, forward-slash-normalized
	Size int64
}

// Walker performs a single pruning traversal of a root directory.
type Walker struct {
	root        string
	matcher     *ignore.Matcher
	extensions  map[string]struct{} // lower-cased, with leading dot; nil/empty = accept all
	maxFileSize int64
	logger      logging.Logger

	mu         sync.Mutex
	prunedDirs []string
}

// Option configures a Walker.
type Option func(*Walker)

// WithExtensions restricts the walk to the given file extensions
// (case-insensitive, each starting with "."). An empty/nil set accepts
// every file regardless of extension.
func WithExtensions(exts []string) Option {
	return func(w *Walker) {
		if len(exts) == 0 {
			return
		}
		m := make(map[string]struct{}, len(exts))
		for _, e := range exts {
			m[extOf(e)] = struct{}{}
		}
		w.extensions = m
	}
}

// WithMaxFileSize overrides DefaultMaxFileSize. A value <= 0 disables
// the ceiling entirely.
func WithMaxFileSize(n int64) Option {
	return func(w *Walker) { w.maxFileSize = n }
}

// WithLogger wires a structured logger; defaults to logging.NopLogger.
func WithLogger(l logging.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// New builds a Walker rooted at root, pruning with matcher.
func New(root string, matcher *ignore.Matcher, opts ...Option) *Walker {
	w := &Walker{
		root:        root,
		matcher:     matcher,
		maxFileSize: DefaultMaxFileSize,
		logger:      logging.NopLogger{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Walk traverses the tree starting at the Walker's root and streams
// accepted files on the returned channel. The channel is closed when
// the traversal completes. Pass a cancelable ctx-derived done channel
// via stop to abort early; a nil stop channel means "never abort".
func (w *Walker) Walk(stop <-chan struct{}) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		w.walkDir(w.root, out, stop)
	}()
	return out
}

func (w *Walker) walkDir(dir string, out chan<- Result, stop <-chan struct{}) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Debug("cannot read directory", logging.Field{Key: "path", Value: dir}, logging.Field{Key: "error", Value: err.Error()})
		return
	}

	// Deterministic order: files before subdirectories isn't required by
	// the spec, but a stable lexical order makes traversal reproducible.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		select {
		case <-stop:
			return
		default:
		}

		full := filepath.Join(dir, e.Name())
		rel, relErr := filepath.Rel(w.root, full)
		if relErr != nil {
			rel = full
		}
		rel = filepath.ToSlash(rel)

		if e.IsDir() {
			if w.matcher.ShouldIgnore(rel) {
				w.recordPruned(rel)
				continue
			}
			w.walkDir(full, out, stop)
			continue
		}

		if !e.Type().IsRegular() {
			continue
		}
		if w.matcher.ShouldIgnore(rel) {
			w.logger.Debug("skipping ignored file", logging.Field{Key: "path", Value: rel})
			continue
		}
		if len(w.extensions) > 0 {
			ext := extOf(e.Name())
			if _, ok := w.extensions[ext]; !ok {
				continue
			}
		}

		info, err := e.Info()
		if err != nil {
			w.logger.Debug("cannot stat file", logging.Field{Key: "path", Value: rel}, logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
			w.logger.Debug("skipping oversized file", logging.Field{Key: "path", Value: rel}, logging.Field{Key: "size", Value: info.Size()})
			continue
		}

		select {
		case out <- Result{Path: full, Rel: rel, Size: info.Size()}:
		case <-stop:
			return
		}
	}
}

func (w *Walker) recordPruned(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.prunedDirs {
		if d == rel {
			return
		}
	}
	w.prunedDirs = append(w.prunedDirs, rel)
	w.logger.Info("pruned directory tree", logging.Field{Key: "path", Value: rel})
}

// PrunedDirs returns the deduplicated set of directory trees this Walker
// has pruned so far, for diagnostics.
func (w *Walker) PrunedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.prunedDirs))
	copy(out, w.prunedDirs)
	return out
}

func extOf(name string) string {
	ext := filepath.Ext(name)
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
