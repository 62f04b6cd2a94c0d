// Package assessment implements the exam attempt workflow: starting a
// timed attempt, enforcing the submission window, and handing graded
// results back to the API layer. Business rejections are values, never
// errors, so callers can render clean messages for every outcome.
package assessment

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/seyio/acadex/internal/grading"
	"github.com/seyio/acadex/internal/model"
	"github.com/seyio/acadex/internal/store"
)

// Status identifies the outcome of a start or submit operation.
type Status string

const (
	StatusStarted          Status = "started"
	StatusAlreadyStarted   Status = "already_started"
	StatusAlreadySubmitted Status = "already_submitted"
	StatusNotStarted       Status = "not_started"
	StatusTimeExpired      Status = "time_expired"
	StatusSuccess          Status = "success"
)

// HTTPStatus maps an outcome to the HTTP status code the API layer uses.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusStarted, StatusAlreadyStarted:
		return http.StatusOK
	case StatusSuccess:
		return http.StatusCreated
	default:
		return http.StatusBadRequest
	}
}

// StartResult is the outcome of StartExam.
type StartResult struct {
	Status    Status     `json:"status"`
	Message   string     `json:"message"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// SubmitResult is the outcome of HandleSubmission. Submission, Score and
// TotalMarks are only set on StatusSuccess.
type SubmitResult struct {
	Status     Status            `json:"status"`
	Message    string            `json:"message"`
	Submission *model.Submission `json:"submission,omitempty"`
	Score      float64           `json:"score"`
	TotalMarks int               `json:"total_marks"`
}

// Service orchestrates the attempt lifecycle against the store and the
// grading engine.
type Service struct {
	store  *store.Store
	engine *grading.Engine
	now    func() time.Time
}

// NewService creates the assessment service.
func NewService(s *store.Store) *Service {
	return &Service{store: s, engine: grading.NewEngine(s), now: time.Now}
}

// StartExam starts (or re-enters) a student's single attempt at an exam.
// The submission row is created on first call; the unique constraint on
// (student, exam) collapses concurrent starts onto one row. Calling again
// before submitting reports already_started with the original timestamp.
func (s *Service) StartExam(studentID string, exam model.Exam) (StartResult, error) {
	sub, err := s.store.GetOrCreateSubmission(studentID, exam.ID)
	if err != nil {
		return StartResult{}, fmt.Errorf("get or create submission: %w", err)
	}

	if sub.IsSubmitted {
		return StartResult{
			Status:  StatusAlreadySubmitted,
			Message: "You already completed this exam",
		}, nil
	}

	if sub.StartedAt != nil {
		return StartResult{
			Status:    StatusAlreadyStarted,
			Message:   "Exam already started",
			StartTime: sub.StartedAt,
		}, nil
	}

	if err := s.store.StartSubmission(sub.ID, s.now().UTC()); err != nil {
		return StartResult{}, fmt.Errorf("start submission: %w", err)
	}
	// Re-read: a concurrent start may have won the conditional update.
	started, err := s.store.GetSubmissionByID(sub.ID)
	if err != nil {
		return StartResult{}, fmt.Errorf("reload submission: %w", err)
	}

	return StartResult{
		Status:    StatusStarted,
		Message:   "Exam started successfully",
		StartTime: started.StartedAt,
	}, nil
}

// HandleSubmission records a student's answers, grades them and closes
// the attempt. The deadline is checked against a live clock read before
// any answer is persisted, so a late submission earns nothing.
func (s *Service) HandleSubmission(studentID string, exam model.Exam, answers []model.AnswerInput) (SubmitResult, error) {
	sub, err := s.store.GetSubmission(studentID, exam.ID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get submission: %w", err)
	}

	if sub == nil || sub.StartedAt == nil {
		return SubmitResult{
			Status:  StatusNotStarted,
			Message: "You must start the exam before submitting",
		}, nil
	}

	if sub.IsSubmitted {
		return SubmitResult{
			Status:  StatusAlreadySubmitted,
			Message: "You already submitted this exam",
		}, nil
	}

	if s.now().After(exam.Deadline(*sub.StartedAt)) {
		return SubmitResult{
			Status:  StatusTimeExpired,
			Message: "Time is up! You cannot submit anymore",
		}, nil
	}

	for _, in := range answers {
		_, err := s.store.CreateAnswer(model.Answer{
			SubmissionID:  sub.ID,
			QuestionID:    in.QuestionID,
			StudentAnswer: in.Answer,
		})
		if err != nil {
			return SubmitResult{}, fmt.Errorf("record answer: %w", err)
		}
	}

	score, totalMarks, err := s.engine.GradeSubmission(*sub)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("grade submission: %w", err)
	}

	won, err := s.store.FinalizeSubmission(sub.ID, s.now().UTC())
	if err != nil {
		return SubmitResult{}, fmt.Errorf("finalize submission: %w", err)
	}
	if !won {
		// A concurrent submit flipped the flag first.
		return SubmitResult{
			Status:  StatusAlreadySubmitted,
			Message: "You already submitted this exam",
		}, nil
	}

	final, err := s.store.GetSubmissionByID(sub.ID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("reload submission: %w", err)
	}

	return SubmitResult{
		Status:     StatusSuccess,
		Message:    "Submission successful",
		Submission: &final,
		Score:      score,
		TotalMarks: totalMarks,
	}, nil
}

// Percentage converts a score into a percentage of the total marks,
// rounded to two decimals. An exam with zero total marks has no defined
// percentage; it is reported as 0 rather than dividing by zero.
func Percentage(score float64, totalMarks int) float64 {
	if totalMarks == 0 {
		return 0
	}
	return math.Round(score/float64(totalMarks)*100*100) / 100
}
