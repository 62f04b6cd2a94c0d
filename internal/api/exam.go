package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seyio/acadex/internal/auth"
	"github.com/seyio/acadex/internal/i18n"
	"github.com/seyio/acadex/internal/model"
)

type examRequest struct {
	Title    string `json:"title"`
	Course   string `json:"course"`
	Duration int    `json:"duration"`
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	writeJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be a positive number of minutes")
		return
	}

	user := model.UserFromContext(r.Context())
	exam, err := h.store.CreateExam(model.Exam{
		Title:           req.Title,
		Course:          req.Course,
		DurationMinutes: req.Duration,
		CreatedBy:       user.ID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, exam)
}

// loadOwnedExam fetches the exam from the URL and checks that the
// requesting staff user may manage it. Writes the error response and
// returns ok=false on failure.
func (h *Handler) loadOwnedExam(w http.ResponseWriter, r *http.Request) (model.Exam, bool) {
	exam, err := h.store.GetExam(chi.URLParam(r, "examID"))
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "exam not found")
		return model.Exam{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return model.Exam{}, false
	}
	if !auth.CanManageExam(model.UserFromContext(r.Context()), exam) {
		writeError(w, http.StatusForbidden, "you do not own this exam")
		return model.Exam{}, false
	}
	return exam, true
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadOwnedExam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadOwnedExam(w, r)
	if !ok {
		return
	}
	var req examRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Course != "" {
		exam.Course = req.Course
	}
	if req.Duration > 0 {
		exam.DurationMinutes = req.Duration
	}
	if err := h.store.UpdateExam(exam); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadOwnedExam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteExam(exam.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": i18n.T(r.Context(), "exam_deleted")})
}

type questionRequest struct {
	Text             string   `json:"text"`
	Kind             string   `json:"question_type"`
	Marks            int      `json:"marks"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correct_answer"`
	ExpectedKeywords []string `json:"expected_keywords"`
}

// validate checks the kind-specific shape of a question payload.
func (req questionRequest) validate() string {
	if strings.TrimSpace(req.Text) == "" {
		return "text is required"
	}
	if req.Marks <= 0 {
		return "marks must be a positive integer"
	}
	switch model.QuestionKind(req.Kind) {
	case model.KindMultipleChoice:
		if len(req.Options) == 0 {
			return "MCQ questions must include options"
		}
		if req.CorrectAnswer == "" {
			return "MCQ must have a correct answer"
		}
		if !slices.Contains(req.Options, req.CorrectAnswer) {
			return "correct answer must be one of the options"
		}
	case model.KindTheory:
		// An empty keyword set is allowed; such a question grades to zero.
	default:
		return "question_type must be multiple_choice or theory"
	}
	return ""
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadOwnedExam(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	q, err := h.store.AddQuestion(model.Question{
		ExamID:           exam.ID,
		Text:             req.Text,
		Kind:             model.QuestionKind(req.Kind),
		Marks:            req.Marks,
		Options:          req.Options,
		CorrectAnswer:    req.CorrectAnswer,
		ExpectedKeywords: req.ExpectedKeywords,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// loadOwnedQuestion fetches a question and checks ownership of its exam.
func (h *Handler) loadOwnedQuestion(w http.ResponseWriter, r *http.Request) (model.Question, bool) {
	q, err := h.store.GetQuestion(chi.URLParam(r, "questionID"))
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "question not found")
		return model.Question{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return model.Question{}, false
	}
	exam, err := h.store.GetExam(q.ExamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return model.Question{}, false
	}
	if !auth.CanManageExam(model.UserFromContext(r.Context()), exam) {
		writeError(w, http.StatusForbidden, "you do not own this exam")
		return model.Question{}, false
	}
	return q, true
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadOwnedQuestion(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	q.Text = req.Text
	q.Kind = model.QuestionKind(req.Kind)
	q.Marks = req.Marks
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.ExpectedKeywords = req.ExpectedKeywords
	if err := h.store.UpdateQuestion(q); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadOwnedQuestion(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteQuestion(q.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "question deleted"})
}

// handleListQuestions serves an exam's questions to students with the
// grading parameters stripped.
func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	exam, err := h.store.GetExam(chi.URLParam(r, "examID"))
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "exam not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	questions, err := h.store.ListQuestions(exam.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	views := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.StudentView())
	}
	writeJSON(w, http.StatusOK, views)
}
