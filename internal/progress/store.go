package progress

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("username already taken")
	ErrBadCredential = errors.New("invalid username or password")
	ErrNoteNotFound  = errors.New("review note not found")
)

// User is a registered account with its progression.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Level        int       `json:"level"`
	Experience   float64   `json:"exp"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewNote archives a weak answer for later study.
type ReviewNote struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Part        string    `json:"part"`
	Chapter     string    `json:"chapter"`
	Standard    string    `json:"standard_code"`
	Title       string    `json:"title"`
	Question    string    `json:"question"`
	ModelAnswer string    `json:"model_answer"`
	Explanation string    `json:"explanation"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuizRecord is one submission's outcome for the history view.
type QuizRecord struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Part       string    `json:"part"`
	Chapter    string    `json:"chapter"`
	Standard   string    `json:"standard_code"`
	Questions  int       `json:"questions"`
	TotalScore float64   `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Entry is one leaderboard row.
type Entry struct {
	Username   string  `json:"username"`
	Role       Role    `json:"role"`
	Level      int     `json:"level"`
	Experience float64 `json:"exp"`
}

// Store persists users, progression, review notes, and quiz history.
type Store interface {
	Register(username, password string) (*User, error)
	Authenticate(username, password string) (*User, error)
	GetUser(username string) (*User, error)
	UpdateProgress(username string, p Progress) error
	UpdateRole(username string, role Role) error
	Users() ([]User, error)

	SaveReviewNote(note ReviewNote) (int, error)
	ReviewNotes(username string) ([]ReviewNote, error)
	DeleteReviewNote(id int) error

	SaveQuizRecord(record QuizRecord) error
	QuizHistory(username string) ([]QuizRecord, error)

	TopUsers(limit int) ([]Entry, error)
}

// MemoryStore is an in-memory Store used for tests and credential-less runs.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*User
	notes    map[int]*ReviewNote
	history  []QuizRecord
	nextUser int
	nextNote int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*User),
		notes:    make(map[int]*ReviewNote),
		nextUser: 1,
		nextNote: 1,
	}
}

func (s *MemoryStore) Register(username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           s.nextUser,
		Username:     username,
		PasswordHash: string(hash),
		Role:         RoleMember,
		Level:        1,
		Experience:   0,
		CreatedAt:    time.Now(),
	}
	s.nextUser++
	s.users[username] = user

	copied := *user
	return &copied, nil
}

func (s *MemoryStore) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBadCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredential
	}

	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUser(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) UpdateProgress(username string, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	user.Level = p.Level
	user.Experience = p.Experience
	return nil
}

func (s *MemoryStore) UpdateRole(username string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %s", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	user.Role = role
	return nil
}

func (s *MemoryStore) Users() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) SaveReviewNote(note ReviewNote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note.ID = s.nextNote
	s.nextNote++
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	s.notes[note.ID] = &note
	return note.ID, nil
}

func (s *MemoryStore) ReviewNotes(username string) ([]ReviewNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []ReviewNote
	for _, n := range s.notes {
		if n.Username == username {
			notes = append(notes, *n)
		}
	}
	// Newest first, matching the study-page ordering.
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *MemoryStore) DeleteReviewNote(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) SaveQuizRecord(record QuizRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = len(s.history) + 1
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.history = append(s.history, record)
	return nil
}

func (s *MemoryStore) QuizHistory(username string) ([]QuizRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []QuizRecord
	for _, r := range s.history {
		if r.Username == username {
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *MemoryStore) TopUsers(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.users))
	for _, u := range s.users {
		entries = append(entries, Entry{
			Username:   u.Username,
			Role:       u.Role,
			Level:      u.Level,
			Experience: u.Experience,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Experience == entries[j].Experience {
			return entries[i].Username < entries[j].Username
		}
		return entries[i].Experience > entries[j].Experience
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
