package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/audit-rank/auditrank/internal/grading"
	"github.com/audit-rank/auditrank/internal/platform/config"
	"github.com/audit-rank/auditrank/internal/progress"
	"github.com/audit-rank/auditrank/internal/question"
)

var (
	ErrInvalidState   = errors.New("action not valid in current state")
	ErrUnknownTier    = errors.New("unknown difficulty tier")
	ErrTierNotAllowed = errors.New("difficulty tier not allowed for role")
	ErrNoQuestions    = errors.New("no questions match the selected filters")
	ErrAnswerCount    = errors.New("answer count does not match quiz size")
)

// QuestionSource supplies the loaded question bank. *question.Catalog
// satisfies it.
type QuestionSource interface {
	Questions() ([]question.Question, error)
}

// Service runs session transitions. The grading engine and policy are
// required; the store and leaderboard are optional and all persistence
// through them is best effort.
type Service struct {
	source QuestionSource
	engine *grading.Engine
	policy config.Policy
	store  progress.Store
	board  *progress.Leaderboard
	rng    *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables review-note and quiz-history persistence.
func WithStore(store progress.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLeaderboard routes progress persistence through the leaderboard so the
// ranking cache stays current.
func WithLeaderboard(board *progress.Leaderboard) Option {
	return func(s *Service) { s.board = board }
}

// WithRand injects the quiz sampling source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// NewService creates a session service.
func NewService(source QuestionSource, engine *grading.Engine, policy config.Policy, opts ...Option) *Service {
	s := &Service{source: source, engine: engine, policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start moves a session from setup into solving with the chosen filters and
// difficulty tier. The transition only happens when at least one unsolved
// question matches; otherwise the session stays in setup.
func (svc *Service) Start(sess *Session, f question.Filter, tier string) error {
	if sess.State != StateSetup {
		return fmt.Errorf("%w: start from %s", ErrInvalidState, sess.State)
	}

	count, ok := svc.policy.TierCount(tier)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	if !svc.policy.TierAllowed(string(sess.Role), tier) {
		return fmt.Errorf("%w: %s may not select %s", ErrTierNotAllowed, sess.Role, tier)
	}

	quiz, err := svc.draw(f, count, sess.Solved)
	if err != nil {
		return err
	}
	if len(quiz) == 0 {
		return ErrNoQuestions
	}

	sess.Filter = f
	sess.Tier = tier
	sess.Quiz = quiz
	sess.Results = nil
	sess.ReviewIdx = 0
	sess.State = StateSolving
	return nil
}

// Submit grades one answer per quiz question and moves the session into
// review. Every question gets a result before the transition happens: empty
// answers and gate rejections are resolved locally, the rest go to the
// grading engine in one batch. Progress, review notes, and history are
// persisted best effort; a store failure never blocks the results.
func (svc *Service) Submit(ctx context.Context, sess *Session, answers []string) error {
	if sess.State != StateSolving {
		return fmt.Errorf("%w: submit from %s", ErrInvalidState, sess.State)
	}
	if len(answers) != len(sess.Quiz) {
		return fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCount, len(answers), len(sess.Quiz))
	}

	minMatches := svc.policy.Gate.MinKeywordMatches
	resolved := make(map[int]grading.Result, len(sess.Quiz))
	var toGrade []grading.Request

	for i, q := range sess.Quiz {
		answer := answers[i]
		if answer == "" {
			resolved[i] = grading.Result{Score: 0.0, Evaluation: "답안을 입력해주세요."}
			continue
		}

		matched := grading.CountMatches(answer, q.Keywords)
		if matched < minMatches {
			resolved[i] = grading.GateFailure(matched, minMatches)
			continue
		}

		toGrade = append(toGrade, grading.Request{
			ID:          i,
			Question:    q.Title + " - " + q.Description,
			Answer:      answer,
			ModelAnswer: q.ModelAnswerText(),
			Keywords:    q.Keywords,
			Reference:   q.Explanation,
		})
	}

	if len(toGrade) > 0 {
		for id, result := range svc.engine.GradeBatch(ctx, toGrade) {
			resolved[id] = result
		}
	}

	results := make([]ItemResult, len(sess.Quiz))
	for i, q := range sess.Quiz {
		r := resolved[i]
		results[i] = ItemResult{
			Question:   q,
			Answer:     answers[i],
			Score:      r.Score,
			Evaluation: r.Evaluation,
		}
	}

	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	sess.Progress = progress.Apply(sess.Progress, scores)

	sess.Results = results
	sess.ReviewIdx = 0
	for _, q := range sess.Quiz {
		sess.Solved[q.ID] = true
	}
	sess.State = StateReview

	svc.persist(ctx, sess, results)
	return nil
}

// Continue re-enters solving with the same filters, skipping everything
// already solved. When nothing is left the session returns to setup.
func (svc *Service) Continue(sess *Session) error {
	if sess.State != StateReview {
		return fmt.Errorf("%w: continue from %s", ErrInvalidState, sess.State)
	}

	count, ok := svc.policy.TierCount(sess.Tier)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTier, sess.Tier)
	}

	quiz, err := svc.draw(sess.Filter, count, sess.Solved)
	if err != nil {
		return err
	}
	if len(quiz) == 0 {
		svc.Reset(sess)
		return ErrNoQuestions
	}

	sess.Quiz = quiz
	sess.Results = nil
	sess.ReviewIdx = 0
	sess.State = StateSolving
	return nil
}

// Reset returns the session to setup, keeping the solved set and progress.
func (svc *Service) Reset(sess *Session) {
	sess.Quiz = nil
	sess.Results = nil
	sess.ReviewIdx = 0
	sess.State = StateSetup
}

func (svc *Service) draw(f question.Filter, count int, exclude map[string]bool) ([]question.Question, error) {
	questions, err := svc.source.Questions()
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}
	return question.QuizSet(questions, f, count, exclude, svc.rng), nil
}

// persist writes the submission's side effects. Guests have nothing stored;
// for everyone else failures are logged and swallowed so grading results
// always reach the user.
func (svc *Service) persist(ctx context.Context, sess *Session, results []ItemResult) {
	if sess.Role == progress.RoleGuest {
		return
	}

	if svc.board != nil {
		if err := svc.board.RecordProgress(ctx, sess.Username, sess.Progress); err != nil {
			slog.Warn("progress persistence failed", "user", sess.Username, "error", err)
		}
	} else if svc.store != nil {
		if err := svc.store.UpdateProgress(sess.Username, sess.Progress); err != nil {
			slog.Warn("progress persistence failed", "user", sess.Username, "error", err)
		}
	}

	if svc.store == nil {
		return
	}

	if sess.Role == progress.RolePro || sess.Role == progress.RoleAdmin {
		for _, r := range results {
			if r.Score > 5.0 {
				continue
			}
			note := progress.ReviewNote{
				Username:    sess.Username,
				Part:        r.Question.Part,
				Chapter:     r.Question.Chapter,
				Standard:    r.Question.Standard,
				Title:       r.Question.Title,
				Question:    r.Question.Description,
				ModelAnswer: r.Question.ModelAnswerText(),
				Explanation: r.Question.Explanation,
				Score:       r.Score,
			}
			if _, err := svc.store.SaveReviewNote(note); err != nil {
				slog.Warn("review note persistence failed", "user", sess.Username, "title", r.Question.Title, "error", err)
			}
		}
	}

	record := progress.QuizRecord{
		Username:   sess.Username,
		Part:       sess.Filter.Part,
		Chapter:    sess.Filter.Chapter,
		Standard:   sess.Filter.Standard,
		Questions:  len(results),
		TotalScore: sess.TotalScore(),
	}
	if err := svc.store.SaveQuizRecord(record); err != nil {
		slog.Warn("quiz history persistence failed", "user", sess.Username, "error", err)
	}
}
