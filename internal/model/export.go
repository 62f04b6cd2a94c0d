package model

import "time"

// ResultsExport is the top-level JSON structure for submission export.
type ResultsExport struct {
	ExamID      string          `json:"exam_id"`
	Title       string          `json:"title"`
	Course      string          `json:"course"`
	Date        string          `json:"date"`
	TotalMarks  int             `json:"total_marks"`
	Submissions []StudentResult `json:"submissions"`
}

// StudentResult holds one student's graded submission for export.
type StudentResult struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	TotalScore  float64        `json:"total_score"`
	Answers     []AnswerResult `json:"answers"`
}

// AnswerResult holds per-answer data for export.
type AnswerResult struct {
	QuestionText  string  `json:"question"`
	Kind          string  `json:"question_type"`
	Marks         int     `json:"marks"`
	StudentAnswer string  `json:"student_answer"`
	ScoreAwarded  float64 `json:"score_awarded"`
	Feedback      string  `json:"feedback"`
}
