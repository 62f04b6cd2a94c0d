package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleStaff is an exam-authoring staff role.
	UserRoleStaff UserRole = "staff"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// IsStaff reports whether the user may author exams.
func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff || u.Role == UserRoleAdmin
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionKind discriminates the two supported grading strategies.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindTheory         QuestionKind = "theory"
)

// SubmissionStatus represents the lifecycle state of a submission.
type SubmissionStatus string

const (
	StatusUnstarted SubmissionStatus = "unstarted"
	StatusStarted   SubmissionStatus = "started"
	StatusSubmitted SubmissionStatus = "submitted"
)

// Exam represents a timed exam owned by a staff member.
type Exam struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Course          string    `json:"course"`
	DurationMinutes int       `json:"duration"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Deadline returns the latest instant at which a submission started at
// the given time may still be handed in.
func (e Exam) Deadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Question represents a single exam question. Options and CorrectAnswer
// are only meaningful for multiple_choice, ExpectedKeywords for theory.
type Question struct {
	ID               string       `json:"id"`
	ExamID           string       `json:"exam_id"`
	Text             string       `json:"text"`
	Kind             QuestionKind `json:"question_type"`
	Marks            int          `json:"marks"`
	Options          []string     `json:"options,omitempty"`
	CorrectAnswer    string       `json:"correct_answer,omitempty"`
	ExpectedKeywords []string     `json:"expected_keywords,omitempty"`
	Position         int          `json:"position"`
}

// StudentView strips the grading parameters so a question can be served
// to students without leaking the answer key.
func (q Question) StudentView() Question {
	q.CorrectAnswer = ""
	q.ExpectedKeywords = nil
	return q
}

// Submission represents one student's single attempt at one exam.
// At most one submission ever exists per (student, exam) pair.
type Submission struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	ExamID      string     `json:"exam_id"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	TotalScore  float64    `json:"total_score"`
	IsSubmitted bool       `json:"is_submitted"`
}

// Status derives the lifecycle state from the persisted fields.
func (s Submission) Status() SubmissionStatus {
	switch {
	case s.IsSubmitted:
		return StatusSubmitted
	case s.StartedAt != nil:
		return StatusStarted
	default:
		return StatusUnstarted
	}
}

// Answer records one student's answer to one question within a submission.
// ScoreAwarded and Feedback stay at their zero values until grading runs.
type Answer struct {
	ID            string  `json:"id"`
	SubmissionID  string  `json:"submission_id"`
	QuestionID    string  `json:"question_id"`
	StudentAnswer string  `json:"student_answer"`
	ScoreAwarded  float64 `json:"score_awarded"`
	Feedback      string  `json:"feedback"`
}

// AnswerInput is one entry of a student's submit payload.
type AnswerInput struct {
	QuestionID string `json:"question"`
	Answer     string `json:"answer"`
}

// QuestionImport is used for loading questions from exam fixture files.
type QuestionImport struct {
	Text             string       `json:"text"`
	Kind             QuestionKind `json:"question_type"`
	Marks            int          `json:"marks"`
	Options          []string     `json:"options,omitempty"`
	CorrectAnswer    string       `json:"correct_answer,omitempty"`
	ExpectedKeywords []string     `json:"expected_keywords,omitempty"`
}

// ExamImport is the top-level fixture file structure.
type ExamImport struct {
	Title     string           `json:"title"`
	Course    string           `json:"course"`
	Duration  int              `json:"duration"`
	Questions []QuestionImport `json:"questions"`
}
