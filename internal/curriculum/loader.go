package curriculum

import (
	"log/slog"
	"os"
	"sync"
)

// Loader caches the parsed curriculum index for the process lifetime.
// The outline is static per deployment; Invalidate is only called after
// administrative edits.
type Loader struct {
	path string
	mu   sync.RWMutex
	idx  *Index
}

// NewLoader creates a loader for the outline file at path. Parsing is
// deferred to the first Index call.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Index returns the cached index, parsing the outline on first use.
// A missing or unreadable outline yields an empty index: no questions can be
// classified, but the caller keeps running.
func (l *Loader) Index() *Index {
	l.mu.RLock()
	idx := l.idx
	l.mu.RUnlock()
	if idx != nil {
		return idx
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx != nil {
		return l.idx
	}

	f, err := os.Open(l.path)
	if err != nil {
		slog.Warn("curriculum outline unavailable", "path", l.path, "error", err)
		l.idx = newIndex()
		return l.idx
	}
	defer f.Close()

	l.idx = Parse(f)
	slog.Info("curriculum loaded",
		"path", l.path,
		"parts", len(l.idx.Hierarchy),
		"chapters", len(l.idx.ChapterNames),
	)
	return l.idx
}

// Invalidate drops the cached index so the next Index call re-parses.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.idx = nil
	l.mu.Unlock()
}
