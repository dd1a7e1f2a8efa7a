// Package session drives a user's quiz flow through its setup, solving, and
// review phases.
package session

import (
	"github.com/audit-rank/auditrank/internal/progress"
	"github.com/audit-rank/auditrank/internal/question"
)

// State is the quiz flow phase.
type State int

const (
	StateSetup State = iota
	StateSolving
	StateReview
)

func (s State) String() string {
	switch s {
	case StateSolving:
		return "SOLVING"
	case StateReview:
		return "REVIEW"
	default:
		return "SETUP"
	}
}

// ItemResult pairs one quiz question with its answer and grade.
type ItemResult struct {
	Question   question.Question
	Answer     string
	Score      float64
	Evaluation string
}

// Session is one user's quiz state. All mutation goes through Service
// transitions; a session is owned by a single flow and never shared.
type Session struct {
	Username string
	Role     progress.Role
	State    State
	Progress progress.Progress

	// Solved accumulates question IDs across rounds so repeat rounds with
	// the same filters never re-serve a graded question.
	Solved map[string]bool

	Filter question.Filter
	Tier   string

	Quiz      []question.Question
	Results   []ItemResult
	ReviewIdx int
}

// New creates a fresh session in the setup phase.
func New(username string, role progress.Role) *Session {
	return &Session{
		Username: username,
		Role:     role,
		State:    StateSetup,
		Progress: progress.Progress{Level: 1},
		Solved:   make(map[string]bool),
	}
}

// TotalScore sums the graded scores of the current results.
func (s *Session) TotalScore() float64 {
	var total float64
	for _, r := range s.Results {
		total += r.Score
	}
	return total
}

// NextReview advances the review cursor, stopping at the last result.
func (s *Session) NextReview() {
	if s.ReviewIdx < len(s.Results)-1 {
		s.ReviewIdx++
	}
}

// PrevReview moves the review cursor back, stopping at the first result.
func (s *Session) PrevReview() {
	if s.ReviewIdx > 0 {
		s.ReviewIdx--
	}
}

// Current returns the result under the review cursor.
func (s *Session) Current() (ItemResult, bool) {
	if s.ReviewIdx < 0 || s.ReviewIdx >= len(s.Results) {
		return ItemResult{}, false
	}
	return s.Results[s.ReviewIdx], true
}
