package question

import (
	"math/rand"
	"testing"

	"github.com/audit-rank/auditrank/internal/curriculum"
)

func makeQuestions(part string, n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			ID:      string(rune('a' + i)),
			Part:    part,
			Chapter: "ch1",
		}
	}
	return questions
}

func TestQuizSetFiltersByPart(t *testing.T) {
	questions := []Question{
		{ID: "1", Part: "PART1", Chapter: "ch1", Standard: "200"},
		{ID: "2", Part: "PART2", Chapter: "ch4", Standard: "320"},
		{ID: "3", Part: "PART1", Chapter: "ch3", Standard: "Ethics"},
	}

	got := QuizSet(questions, Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}, 10, nil, nil)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, q := range got {
		if q.Part != "PART1" {
			t.Errorf("Part = %q, want PART1", q.Part)
		}
	}
}

func TestQuizSetNarrowsChapterAndStandard(t *testing.T) {
	questions := []Question{
		{ID: "1", Part: "PART1", Chapter: "ch1", Standard: "200"},
		{ID: "2", Part: "PART1", Chapter: "ch1", Standard: "210"},
		{ID: "3", Part: "PART1", Chapter: "ch3", Standard: "Ethics"},
	}

	got := QuizSet(questions, Filter{Part: "PART1", Chapter: "ch1", Standard: "210"}, 10, nil, nil)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("got %v, want only question 2", got)
	}
}

func TestQuizSetEmptyCandidates(t *testing.T) {
	questions := makeQuestions("PART1", 3)

	got := QuizSet(questions, Filter{Part: "PART9", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}, 5, nil, nil)
	if got == nil {
		t.Fatal("got nil, want empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestQuizSetFewerThanRequested(t *testing.T) {
	questions := makeQuestions("PART1", 3)
	f := Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}

	got := QuizSet(questions, f, 5, nil, nil)
	if len(got) != 3 {
		t.Fatalf("len = %d, want all 3", len(got))
	}
	// Under-count sets keep catalog order.
	for i, q := range got {
		if q.ID != questions[i].ID {
			t.Errorf("got[%d].ID = %q, want %q", i, q.ID, questions[i].ID)
		}
	}
}

func TestQuizSetSamplesExactCount(t *testing.T) {
	questions := makeQuestions("PART1", 20)
	f := Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}
	rng := rand.New(rand.NewSource(42))

	got := QuizSet(questions, f, 5, nil, rng)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}

	seen := make(map[string]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Errorf("duplicate question %q in sample", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestQuizSetZeroCountReturnsAll(t *testing.T) {
	questions := makeQuestions("PART1", 7)
	f := Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}

	got := QuizSet(questions, f, 0, nil, nil)
	if len(got) != 7 {
		t.Fatalf("len = %d, want all 7", len(got))
	}
}

func TestQuizSetExcludesSolved(t *testing.T) {
	questions := makeQuestions("PART1", 4)
	f := Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}
	exclude := map[string]bool{
		questions[0].ID: true,
		questions[2].ID: true,
	}

	got := QuizSet(questions, f, 10, exclude, nil)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, q := range got {
		if exclude[q.ID] {
			t.Errorf("excluded question %q returned", q.ID)
		}
	}
}

func TestQuizSetDeterministicWithSeed(t *testing.T) {
	questions := makeQuestions("PART1", 20)
	f := Filter{Part: "PART1", Chapter: curriculum.FilterAll, Standard: curriculum.FilterAll}

	first := QuizSet(questions, f, 5, nil, rand.New(rand.NewSource(7)))
	second := QuizSet(questions, f, 5, nil, rand.New(rand.NewSource(7)))

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("sample diverged at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}
