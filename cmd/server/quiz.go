package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/audit-rank/auditrank/internal/curriculum"
	"github.com/audit-rank/auditrank/internal/question"
	"github.com/audit-rank/auditrank/internal/session"
)

// quizItem is a served question. Keywords, the model answer, and the
// explanation stay server-side until the review response.
type quizItem struct {
	ID          string `json:"id"`
	Part        string `json:"part"`
	Chapter     string `json:"chapter"`
	Standard    string `json:"standard"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type quizResultItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Answer      string  `json:"answer"`
	Score       float64 `json:"score"`
	Evaluation  string  `json:"evaluation"`
	ModelAnswer string  `json:"model_answer"`
	Explanation string  `json:"explanation,omitempty"`
}

func (a *app) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Tier     string `json:"tier"`
		Part     string `json:"part"`
		Chapter  string `json:"chapter"`
		Standard string `json:"standard"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	sess := a.sessionFor(req.Username, req.Role)
	f := question.Filter{
		Part:     req.Part,
		Chapter:  filterOrAll(req.Chapter),
		Standard: filterOrAll(req.Standard),
	}
	if err := a.quiz.Start(sess, f, req.Tier); err != nil {
		writeQuizError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state": sess.State.String(),
		"quiz":  serveQuiz(sess.Quiz),
	})
}

func (a *app) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string   `json:"username"`
		Answers  []string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess, ok := a.lookupSession(req.Username)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	if err := a.quiz.Submit(r.Context(), sess, req.Answers); err != nil {
		writeQuizError(w, err)
		return
	}

	results := make([]quizResultItem, len(sess.Results))
	for i, res := range sess.Results {
		results[i] = quizResultItem{
			ID:          res.Question.ID,
			Title:       res.Question.Title,
			Answer:      res.Answer,
			Score:       res.Score,
			Evaluation:  res.Evaluation,
			ModelAnswer: res.Question.ModelAnswerText(),
			Explanation: res.Question.Explanation,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":       sess.State.String(),
		"total_score": sess.TotalScore(),
		"experience":  sess.Progress.Experience,
		"level":       sess.Progress.Level,
		"results":     results,
	})
}

func (a *app) handleQuizContinue(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromBody(w, r)
	if !ok {
		return
	}

	if err := a.quiz.Continue(sess); err != nil {
		writeQuizError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state": sess.State.String(),
		"quiz":  serveQuiz(sess.Quiz),
	})
}

func (a *app) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromBody(w, r)
	if !ok {
		return
	}

	a.quiz.Reset(sess)
	writeJSON(w, http.StatusOK, map[string]string{"state": sess.State.String()})
}

// sessionFromBody decodes a username-only request and finds its session,
// writing the error response itself when either step fails.
func (a *app) sessionFromBody(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	sess, ok := a.lookupSession(req.Username)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return nil, false
	}
	return sess, true
}

func (a *app) lookupSession(username string) (*session.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[username]
	return sess, ok
}

func filterOrAll(v string) string {
	if v == "" {
		return curriculum.FilterAll
	}
	return v
}

func serveQuiz(quiz []question.Question) []quizItem {
	items := make([]quizItem, len(quiz))
	for i, q := range quiz {
		items[i] = quizItem{
			ID:          q.ID,
			Part:        q.Part,
			Chapter:     q.Chapter,
			Standard:    q.Standard,
			Title:       q.Title,
			Description: q.Description,
		}
	}
	return items
}

func writeQuizError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, session.ErrUnknownTier), errors.Is(err, session.ErrAnswerCount):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrTierNotAllowed):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrNoQuestions):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		slog.Error("quiz request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
