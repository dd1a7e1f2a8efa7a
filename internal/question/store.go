package question

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a question ID has no record.
var ErrNotFound = errors.New("question not found")

// Store manages admin-edited questions. Implementations drop the catalog
// cache after every mutation so the next quiz draw sees the change.
type Store interface {
	Add(q Question) (string, error)
	Update(q Question) error
	Delete(id string) error
	Get(id string) (*Question, error)
	List(part string) ([]Question, error)
}

// MemoryStore is an in-memory Store for deployments without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	catalog   *Catalog
}

// NewMemoryStore creates an empty in-memory question store. catalog may be
// nil when no cache needs invalidating.
func NewMemoryStore(catalog *Catalog) *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]Question),
		catalog:   catalog,
	}
}

func (s *MemoryStore) invalidateCatalog() {
	if s.catalog != nil {
		s.catalog.Invalidate()
	}
}

// Add stores a question, deriving an ID from its content when none is given.
// Adding an ID that already exists is a no-op returning the existing ID.
func (s *MemoryStore) Add(q Question) (string, error) {
	if q.Title == "" {
		return "", fmt.Errorf("title is required")
	}
	if q.Part == "" {
		return "", fmt.Errorf("part is required")
	}
	if q.ID == "" {
		q.ID = surrogateID(q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.questions[q.ID]; !exists {
		s.questions[q.ID] = q
	}

	s.invalidateCatalog()
	return q.ID, nil
}

func (s *MemoryStore) Update(q Question) error {
	if q.ID == "" {
		return fmt.Errorf("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.questions[q.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, q.ID)
	}
	s.questions[q.ID] = q

	s.invalidateCatalog()
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.questions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.questions, id)

	s.invalidateCatalog()
	return nil
}

func (s *MemoryStore) Get(id string) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &q, nil
}

// List returns questions in part, chapter, standard, title order. An empty
// part matches everything.
func (s *MemoryStore) List(part string) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var questions []Question
	for _, q := range s.questions {
		if part != "" && q.Part != part {
			continue
		}
		questions = append(questions, q)
	}

	sort.Slice(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if a.Part != b.Part {
			return a.Part < b.Part
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		if a.Standard != b.Standard {
			return a.Standard < b.Standard
		}
		return a.Title < b.Title
	})

	return questions, nil
}
