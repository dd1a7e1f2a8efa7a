package question

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/audit-rank/auditrank/internal/curriculum"
)

// partitionPrefix and partitionSuffix name the question source files,
// e.g. questions_PART1.json.
const (
	partitionPrefix = "questions_PART"
	partitionSuffix = ".json"
)

// Catalog loads and caches the question bank. Content is static per
// deployment; Invalidate is called after administrative edits.
type Catalog struct {
	dir        string
	curriculum *curriculum.Loader

	mu        sync.RWMutex
	questions []Question
	loaded    bool
}

// NewCatalog creates a catalog over the partition files in dir, classifying
// records against the given curriculum.
func NewCatalog(dir string, cur *curriculum.Loader) *Catalog {
	return &Catalog{dir: dir, curriculum: cur}
}

// Questions returns every normalized question, loading and caching on first
// use. A load failure yields an empty slice plus the diagnostic error; the
// catalog never half-loads.
func (c *Catalog) Questions() ([]Question, error) {
	c.mu.RLock()
	if c.loaded {
		qs := c.questions
		c.mu.RUnlock()
		return qs, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.questions, nil
	}

	questions, err := c.load()
	if err != nil {
		slog.Error("question catalog load failed", "dir", c.dir, "error", err)
		return nil, err
	}

	c.questions = questions
	c.loaded = true
	slog.Info("question catalog loaded", "dir", c.dir, "questions", len(questions))
	return questions, nil
}

// Invalidate drops the cache so the next Questions call reloads from disk.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.questions = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *Catalog) load() ([]Question, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading question dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, partitionPrefix) && strings.HasSuffix(name, partitionSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	idx := c.curriculum.Index()
	var questions []Question
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading partition %s: %w", name, err)
		}
		if err := validatePartition(data); err != nil {
			return nil, fmt.Errorf("partition %s: %w", name, err)
		}

		var records []rawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding partition %s: %w", name, err)
		}
		for _, r := range records {
			questions = append(questions, r.normalize(idx))
		}
	}

	return questions, nil
}

// Counts tallies questions per part, chapter, and standard for UI labels.
type Counts struct {
	Parts     map[string]int
	Chapters  map[string]int
	Standards map[string]int
}

// Count tallies the given questions. Empty field values are not counted.
func Count(questions []Question) Counts {
	counts := Counts{
		Parts:     make(map[string]int),
		Chapters:  make(map[string]int),
		Standards: make(map[string]int),
	}
	for _, q := range questions {
		if q.Part != "" {
			counts.Parts[q.Part]++
		}
		if q.Chapter != "" {
			counts.Chapters[q.Chapter]++
		}
		if q.Standard != "" {
			counts.Standards[q.Standard]++
		}
	}
	return counts
}
