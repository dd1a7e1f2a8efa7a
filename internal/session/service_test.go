package session

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/audit-rank/auditrank/internal/ai"
	"github.com/audit-rank/auditrank/internal/grading"
	"github.com/audit-rank/auditrank/internal/platform/config"
	"github.com/audit-rank/auditrank/internal/progress"
	"github.com/audit-rank/auditrank/internal/question"
)

type staticSource struct {
	questions []question.Question
	err       error
}

func (s *staticSource) Questions() ([]question.Question, error) {
	return s.questions, s.err
}

func testQuestions(n int) []question.Question {
	questions := make([]question.Question, n)
	for i := range questions {
		questions[i] = question.Question{
			ID:          string(rune('a' + i)),
			Part:        "PART1",
			Chapter:     "ch1~2",
			Standard:    "200",
			Title:       "감사의 목적",
			Description: "감사의 전반적인 목적을 설명하시오.",
			Keywords:    []string{"합리적 확신", "감사의견", "중요왜곡표시", "재무제표", "감사증거"},
			ModelAnswer: []string{"합리적 확신을 얻어 감사의견을 표명한다."},
		}
	}
	return questions
}

// passingAnswer clears the default 3-keyword gate.
const passingAnswer = "감사인은 합리적 확신을 얻기 위해 감사증거를 수집하고 감사의견을 표명한다."

func newTestService(source QuestionSource, mock *ai.MockProvider, opts ...Option) *Service {
	engine := grading.NewEngine(mock, grading.WithBackoff(0))
	opts = append(opts, WithRand(rand.New(rand.NewSource(1))))
	return NewService(source, engine, config.DefaultPolicy(), opts...)
}

func TestNewSession(t *testing.T) {
	sess := New("kim", progress.RoleMember)
	if sess.State != StateSetup {
		t.Errorf("State = %s, want SETUP", sess.State)
	}
	if sess.Progress.Level != 1 || sess.Progress.Experience != 0 {
		t.Errorf("Progress = %+v, want level 1 exp 0", sess.Progress)
	}
}

func TestStartTierGating(t *testing.T) {
	source := &staticSource{questions: testQuestions(10)}
	svc := newTestService(source, ai.NewMockProvider(""))

	member := New("kim", progress.RoleMember)
	if err := svc.Start(member, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "advanced"); !errors.Is(err, ErrTierNotAllowed) {
		t.Errorf("member advanced error = %v, want ErrTierNotAllowed", err)
	}
	if member.State != StateSetup {
		t.Errorf("State = %s, want SETUP after rejected start", member.State)
	}

	pro := New("lee", progress.RolePro)
	if err := svc.Start(pro, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "advanced"); err != nil {
		t.Errorf("pro advanced error = %v, want nil", err)
	}
	if err := svc.Start(New("lee", progress.RolePro), question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "all"); !errors.Is(err, ErrTierNotAllowed) {
		t.Error("pro may not select the all tier")
	}

	admin := New("park", progress.RoleAdmin)
	if err := svc.Start(admin, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "all"); err != nil {
		t.Errorf("admin all error = %v, want nil", err)
	}
	if len(admin.Quiz) != 10 {
		t.Errorf("admin all quiz size = %d, want every question", len(admin.Quiz))
	}
}

func TestStartUnknownTier(t *testing.T) {
	svc := newTestService(&staticSource{questions: testQuestions(3)}, ai.NewMockProvider(""))
	if err := svc.Start(New("kim", progress.RoleMember), question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "nightmare"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("error = %v, want ErrUnknownTier", err)
	}
}

func TestStartNoMatches(t *testing.T) {
	svc := newTestService(&staticSource{questions: testQuestions(3)}, ai.NewMockProvider(""))
	sess := New("kim", progress.RoleMember)

	err := svc.Start(sess, question.Filter{Part: "PART9", Chapter: "all", Standard: "all"}, "beginner")
	if !errors.Is(err, ErrNoQuestions) {
		t.Errorf("error = %v, want ErrNoQuestions", err)
	}
	if sess.State != StateSetup {
		t.Errorf("State = %s, want SETUP", sess.State)
	}
}

func TestStartSetsQuizAndFilters(t *testing.T) {
	svc := newTestService(&staticSource{questions: testQuestions(10)}, ai.NewMockProvider(""))
	sess := New("kim", progress.RoleMember)

	f := question.Filter{Part: "PART1", Chapter: "ch1~2", Standard: "200"}
	if err := svc.Start(sess, f, "intermediate"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.State != StateSolving {
		t.Errorf("State = %s, want SOLVING", sess.State)
	}
	if len(sess.Quiz) != 3 {
		t.Errorf("quiz size = %d, want intermediate count 3", len(sess.Quiz))
	}
	if sess.Filter != f || sess.Tier != "intermediate" {
		t.Errorf("filters not retained: %+v / %s", sess.Filter, sess.Tier)
	}
}

func TestSubmitRequiresSolvingState(t *testing.T) {
	svc := newTestService(&staticSource{questions: testQuestions(3)}, ai.NewMockProvider(""))
	sess := New("kim", progress.RoleMember)

	if err := svc.Submit(t.Context(), sess, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestSubmitAnswerCountMismatch(t *testing.T) {
	svc := newTestService(&staticSource{questions: testQuestions(5)}, ai.NewMockProvider(""))
	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "intermediate"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := svc.Submit(t.Context(), sess, []string{"하나"}); !errors.Is(err, ErrAnswerCount) {
		t.Errorf("error = %v, want ErrAnswerCount", err)
	}
	if sess.State != StateSolving {
		t.Errorf("State = %s, want SOLVING preserved", sess.State)
	}
}

func TestSubmitGateRejectionSkipsScorer(t *testing.T) {
	mock := ai.NewMockProvider("")
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock)
	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Two of five keywords present.
	if err := svc.Submit(t.Context(), sess, []string{"합리적 확신으로 감사의견을 낸다."}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if mock.Calls != 0 {
		t.Errorf("scorer Calls = %d, want 0 for gated answer", mock.Calls)
	}
	r := sess.Results[0]
	if r.Score != 0.0 {
		t.Errorf("Score = %v, want 0.0", r.Score)
	}
	if !strings.Contains(r.Evaluation, "3") {
		t.Errorf("Evaluation = %q, want the required count mentioned", r.Evaluation)
	}
	if sess.State != StateReview {
		t.Errorf("State = %s, want REVIEW", sess.State)
	}
}

func TestSubmitEmptyAnswer(t *testing.T) {
	mock := ai.NewMockProvider("")
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock)
	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := svc.Submit(t.Context(), sess, []string{""}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if mock.Calls != 0 {
		t.Errorf("scorer Calls = %d, want 0 for empty answer", mock.Calls)
	}
	if sess.Results[0].Evaluation != "답안을 입력해주세요." {
		t.Errorf("Evaluation = %q", sess.Results[0].Evaluation)
	}
}

func TestSubmitBarrierAndProgress(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 1, "score": 8, "feedback": "좋음"}, {"id": 2, "score": 6, "feedback": "보통"}]`)
	store := progress.NewMemoryStore()
	if _, err := store.Register("kim", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	svc := newTestService(&staticSource{questions: testQuestions(3)}, mock, WithStore(store))

	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "intermediate"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// First answer is gated out, the other two pass.
	answers := []string{"짧은 답", passingAnswer, passingAnswer}
	if err := svc.Submit(t.Context(), sess, answers); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(sess.Results) != 3 {
		t.Fatalf("len(Results) = %d, want one per question", len(sess.Results))
	}
	if sess.Results[1].Score != 8 || sess.Results[2].Score != 6 {
		t.Errorf("graded scores = %v / %v, want 8 / 6", sess.Results[1].Score, sess.Results[2].Score)
	}
	if got := sess.TotalScore(); got != 14 {
		t.Errorf("TotalScore() = %v, want 14", got)
	}
	if sess.Progress.Experience != 14 || sess.Progress.Level != 1 {
		t.Errorf("Progress = %+v, want exp 14 level 1", sess.Progress)
	}

	for _, q := range sess.Quiz {
		if !sess.Solved[q.ID] {
			t.Errorf("question %s not marked solved", q.ID)
		}
	}

	user, err := store.GetUser("kim")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Experience != 14 {
		t.Errorf("persisted experience = %v, want 14", user.Experience)
	}
	records, _ := store.QuizHistory("kim")
	if len(records) != 1 || records[0].Questions != 3 {
		t.Errorf("history = %+v, want one 3-question record", records)
	}
}

func TestSubmitReviewNotesForProOnLowScores(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 0, "score": 4.5, "feedback": "부족"}, {"id": 1, "score": 9, "feedback": "우수"}, {"id": 2, "score": 5, "feedback": "보통"}]`)
	store := progress.NewMemoryStore()
	if _, err := store.Register("lee", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	svc := newTestService(&staticSource{questions: testQuestions(3)}, mock, WithStore(store))

	sess := New("lee", progress.RolePro)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "intermediate"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer, passingAnswer, passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	notes, err := store.ReviewNotes("lee")
	if err != nil {
		t.Fatalf("ReviewNotes() error = %v", err)
	}
	// Scores 4.5 and 5 are at or below the 5.0 cutoff; 9 is not.
	if len(notes) != 2 {
		t.Errorf("len(notes) = %d, want 2", len(notes))
	}
}

func TestSubmitMemberGetsNoAutoReviewNotes(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 0, "score": 2, "feedback": "부족"}]`)
	store := progress.NewMemoryStore()
	if _, err := store.Register("kim", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock, WithStore(store))

	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	notes, _ := store.ReviewNotes("kim")
	if len(notes) != 0 {
		t.Errorf("len(notes) = %d, want 0 for MEMBER", len(notes))
	}
}

func TestSubmitGuestSkipsPersistence(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 0, "score": 7, "feedback": "f"}]`)
	store := progress.NewMemoryStore()
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock, WithStore(store))

	sess := New("비회원", progress.RoleGuest)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if sess.Progress.Experience != 7 {
		t.Errorf("session experience = %v, want 7 tracked in memory", sess.Progress.Experience)
	}
	if records, _ := store.QuizHistory("비회원"); len(records) != 0 {
		t.Errorf("guest history = %d records, want 0", len(records))
	}
}

type failingStore struct {
	progress.Store
}

func (f *failingStore) UpdateProgress(string, progress.Progress) error {
	return errors.New("store unavailable")
}

func (f *failingStore) SaveReviewNote(progress.ReviewNote) (int, error) {
	return 0, errors.New("store unavailable")
}

func (f *failingStore) SaveQuizRecord(progress.QuizRecord) error {
	return errors.New("store unavailable")
}

func TestSubmitSurvivesPersistenceFailure(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 0, "score": 7, "feedback": "f"}]`)
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock, WithStore(&failingStore{}))

	sess := New("lee", progress.RolePro)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v, want nil despite store failure", err)
	}
	if sess.State != StateReview {
		t.Errorf("State = %s, want REVIEW", sess.State)
	}
	if sess.Results[0].Score != 7 {
		t.Errorf("Score = %v, want 7", sess.Results[0].Score)
	}
}

func TestReviewNavigationClamps(t *testing.T) {
	sess := New("kim", progress.RoleMember)
	sess.Results = []ItemResult{{Score: 1}, {Score: 2}, {Score: 3}}

	sess.PrevReview()
	if sess.ReviewIdx != 0 {
		t.Errorf("ReviewIdx = %d, want clamped at 0", sess.ReviewIdx)
	}

	sess.NextReview()
	sess.NextReview()
	sess.NextReview()
	sess.NextReview()
	if sess.ReviewIdx != 2 {
		t.Errorf("ReviewIdx = %d, want clamped at 2", sess.ReviewIdx)
	}

	current, ok := sess.Current()
	if !ok || current.Score != 3 {
		t.Errorf("Current() = %+v, %v, want last result", current, ok)
	}
}

func TestContinueExcludesSolved(t *testing.T) {
	mock := &ai.MockProvider{Responses: []string{
		`[{"id": 0, "score": 5, "feedback": "f"}]`,
		`[{"id": 0, "score": 5, "feedback": "f"}]`,
	}}
	svc := newTestService(&staticSource{questions: testQuestions(2)}, mock)

	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	firstID := sess.Quiz[0].ID
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.Continue(sess); err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if sess.State != StateSolving {
		t.Errorf("State = %s, want SOLVING", sess.State)
	}
	if sess.Quiz[0].ID == firstID {
		t.Error("Continue() re-served an already solved question")
	}

	// Second round exhausts the bank.
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := svc.Continue(sess); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("exhausted Continue() error = %v, want ErrNoQuestions", err)
	}
	if sess.State != StateSetup {
		t.Errorf("State = %s, want SETUP after exhaustion", sess.State)
	}
}

func TestResetKeepsSolvedAndProgress(t *testing.T) {
	mock := ai.NewMockProvider(`[{"id": 0, "score": 7, "feedback": "f"}]`)
	svc := newTestService(&staticSource{questions: testQuestions(1)}, mock)

	sess := New("kim", progress.RoleMember)
	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Submit(t.Context(), sess, []string{passingAnswer}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	svc.Reset(sess)
	if sess.State != StateSetup {
		t.Errorf("State = %s, want SETUP", sess.State)
	}
	if len(sess.Quiz) != 0 || len(sess.Results) != 0 {
		t.Error("Reset() left quiz or results behind")
	}
	if len(sess.Solved) != 1 {
		t.Errorf("len(Solved) = %d, want 1 retained", len(sess.Solved))
	}
	if sess.Progress.Experience != 7 {
		t.Errorf("Experience = %v, want 7 retained", sess.Progress.Experience)
	}
}

func TestStartSourceFailure(t *testing.T) {
	svc := newTestService(&staticSource{err: errors.New("catalog broken")}, ai.NewMockProvider(""))
	sess := New("kim", progress.RoleMember)

	if err := svc.Start(sess, question.Filter{Part: "PART1", Chapter: "all", Standard: "all"}, "beginner"); err == nil {
		t.Fatal("Start() error = nil, want load failure")
	}
	if sess.State != StateSetup {
		t.Errorf("State = %s, want SETUP", sess.State)
	}
}
