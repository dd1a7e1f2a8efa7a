package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/audit-rank/auditrank/internal/question"
)

func (a *app) handleAdminAddQuestion(w http.ResponseWriter, r *http.Request) {
	var q question.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id, err := a.questions.Add(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleAdminListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.questions.List(r.URL.Query().Get("part"))
	if err != nil {
		slog.Error("listing questions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "question store unavailable"})
		return
	}
	if questions == nil {
		questions = []question.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *app) handleAdminGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := a.questions.Get(r.PathValue("id"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *app) handleAdminUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var q question.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	q.ID = r.PathValue("id")

	if err := a.questions.Update(q); err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": q.ID})
}

func (a *app) handleAdminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.questions.Delete(r.PathValue("id")); err != nil {
		writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeAdminError(w http.ResponseWriter, err error) {
	if errors.Is(err, question.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	slog.Error("question store request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "question store unavailable"})
}
