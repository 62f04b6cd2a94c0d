// Package api exposes the platform over HTTP: registration and login,
// exam and question management for staff, and the start/submit attempt
// endpoints for students.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seyio/acadex/internal/assessment"
	"github.com/seyio/acadex/internal/auth"
	"github.com/seyio/acadex/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	assessment *assessment.Service
	tokens     *auth.Service
}

// New creates a new Handler.
func New(s *store.Store, svc *assessment.Service, tokens *auth.Service) *Handler {
	return &Handler{store: s, assessment: svc, tokens: tokens}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.store))

		r.Get("/exams", h.handleListExams)
		r.Get("/exams/{examID}/questions", h.handleListQuestions)
		r.Post("/exams/{examID}/start", h.handleStartExam)
		r.Post("/exams/{examID}/submit", h.handleSubmitExam)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireStaff)
			r.Post("/exams", h.handleCreateExam)
			r.Get("/exams/{examID}", h.handleGetExam)
			r.Put("/exams/{examID}", h.handleUpdateExam)
			r.Delete("/exams/{examID}", h.handleDeleteExam)
			r.Post("/exams/{examID}/questions", h.handleAddQuestion)
			r.Put("/questions/{questionID}", h.handleUpdateQuestion)
			r.Delete("/questions/{questionID}", h.handleDeleteQuestion)
			r.Get("/exams/{examID}/submissions", h.handleListSubmissions)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// isNotFound reports whether a store error means "row does not exist".
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
