package api

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seyio/acadex/internal/assessment"
	"github.com/seyio/acadex/internal/i18n"
	"github.com/seyio/acadex/internal/model"
)

// loadExam fetches the exam from the URL for student-facing endpoints.
func (h *Handler) loadExam(w http.ResponseWriter, r *http.Request) (model.Exam, bool) {
	exam, err := h.store.GetExam(chi.URLParam(r, "examID"))
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "exam not found")
		return model.Exam{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return model.Exam{}, false
	}
	return exam, true
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	user := model.UserFromContext(r.Context())

	result, err := h.assessment.StartExam(user.ID, exam)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, result.Status.HTTPStatus(), result)
}

type submitRequest struct {
	Answers []model.AnswerInput `json:"answers"`
}

// validateAnswers enforces that every answer targets a question of this
// exam and that MCQ answers are one of the predefined options. This runs
// before the orchestrator so the grading engine only ever sees
// well-formed, exam-scoped answers.
func validateAnswers(answers []model.AnswerInput, questions []model.Question) string {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			return "Invalid question"
		}
		if q.Kind == model.KindMultipleChoice && !slices.Contains(q.Options, ans.Answer) {
			return fmt.Sprintf("Answer must be one of %v", q.Options)
		}
	}
	return ""
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	user := model.UserFromContext(r.Context())

	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	questions, err := h.store.ListQuestions(exam.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msg := validateAnswers(req.Answers, questions); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.assessment.HandleSubmission(user.ID, exam, req.Answers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.Status != assessment.StatusSuccess {
		writeJSON(w, result.Status.HTTPStatus(), map[string]string{
			"status":  string(result.Status),
			"message": result.Message,
		})
		return
	}

	percentage := assessment.Percentage(result.Score, result.TotalMarks)

	answers, err := h.store.ListAnswers(result.Submission.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	answerByQuestion := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}
	breakdown := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		a, ok := answerByQuestion[q.ID]
		if !ok {
			continue
		}
		breakdown = append(breakdown, map[string]any{
			"question":       q.Text,
			"student_answer": a.StudentAnswer,
			"score":          a.ScoreAwarded,
			"feedback":       a.Feedback,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       i18n.T(r.Context(), "submission_successful"),
		"total_score":   result.Score,
		"total_marks":   result.TotalMarks,
		"percentage":    percentage,
		"exam_feedback": i18n.T(r.Context(), feedbackBand(percentage)),
		"answers":       breakdown,
	})
}

// feedbackBand picks the exam-wide feedback message for a percentage.
func feedbackBand(percentage float64) string {
	switch {
	case percentage >= 85:
		return "feedback_excellent"
	case percentage >= 70:
		return "feedback_good"
	case percentage >= 50:
		return "feedback_fair"
	default:
		return "feedback_poor"
	}
}

// handleListSubmissions lets staff review all submissions for an exam
// they own.
func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadOwnedExam(w, r)
	if !ok {
		return
	}

	subs, err := h.store.ListSubmissionsForExam(exam.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type row struct {
		Student     string                 `json:"student"`
		Status      model.SubmissionStatus `json:"status"`
		Score       float64                `json:"score"`
		SubmittedAt *time.Time             `json:"submitted_at,omitempty"`
	}
	out := make([]row, 0, len(subs))
	for _, sub := range subs {
		student, err := h.store.GetUserByID(sub.StudentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		username := sub.StudentID
		if student != nil {
			username = student.Username
		}
		out = append(out, row{
			Student:     username,
			Status:      sub.Status(),
			Score:       sub.TotalScore,
			SubmittedAt: sub.SubmittedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
