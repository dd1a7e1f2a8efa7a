package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/audit-rank/auditrank/internal/question"
)

// routes creates the HTTP router with health and read-only API endpoints.
func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.HandleFunc("GET /api/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("GET /api/questions/counts", a.handleQuestionCounts)
	mux.HandleFunc("GET /api/curriculum", a.handleCurriculum)

	mux.HandleFunc("POST /api/quiz/start", a.handleQuizStart)
	mux.HandleFunc("POST /api/quiz/submit", a.handleQuizSubmit)
	mux.HandleFunc("POST /api/quiz/continue", a.handleQuizContinue)
	mux.HandleFunc("POST /api/quiz/reset", a.handleQuizReset)

	mux.HandleFunc("POST /api/admin/questions", a.handleAdminAddQuestion)
	mux.HandleFunc("GET /api/admin/questions", a.handleAdminListQuestions)
	mux.HandleFunc("GET /api/admin/questions/{id}", a.handleAdminGetQuestion)
	mux.HandleFunc("PUT /api/admin/questions/{id}", a.handleAdminUpdateQuestion)
	mux.HandleFunc("DELETE /api/admin/questions/{id}", a.handleAdminDeleteQuestion)
	return mux
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "component", "database", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "component", "cache", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *app) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := a.board.Top(r.Context(), limit)
	if err != nil {
		slog.Error("leaderboard query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *app) handleQuestionCounts(w http.ResponseWriter, r *http.Request) {
	questions, err := a.catalog.Questions()
	if err != nil {
		slog.Error("question catalog unavailable", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "catalog unavailable"})
		return
	}

	counts := question.Count(questions)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(questions),
		"parts":     counts.Parts,
		"chapters":  counts.Chapters,
		"standards": counts.Standards,
	})
}

func (a *app) handleCurriculum(w http.ResponseWriter, r *http.Request) {
	idx := a.outline.Index()
	if idx.Empty() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "curriculum unavailable"})
		return
	}

	parts := make([]map[string]any, 0, len(idx.Parts()))
	for _, part := range idx.Parts() {
		chapters := make([]map[string]any, 0)
		for _, ch := range idx.Chapters(part) {
			chapters = append(chapters, map[string]any{
				"chapter":   ch,
				"title":     idx.ChapterNames[ch],
				"standards": idx.Standards(part, ch),
			})
		}
		parts = append(parts, map[string]any{
			"part":     part,
			"chapters": chapters,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": parts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
