package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/seyio/acadex/internal/model"
)

// GetOrCreateSubmission returns the submission for (student, exam),
// creating an unstarted one if none exists yet. The UNIQUE constraint on
// (student_id, exam_id) makes concurrent calls race safely to a single row.
func (s *Store) GetOrCreateSubmission(studentID, examID string) (model.Submission, error) {
	_, err := s.db.Exec(
		`INSERT INTO submissions (id, student_id, exam_id, total_score, is_submitted)
		 VALUES ($1, $2, $3, 0, FALSE)
		 ON CONFLICT (student_id, exam_id) DO NOTHING`,
		uuid.NewString(), studentID, examID,
	)
	if err != nil {
		return model.Submission{}, err
	}
	sub, err := s.GetSubmission(studentID, examID)
	if err != nil {
		return model.Submission{}, err
	}
	return *sub, nil
}

// GetSubmission returns the submission for (student, exam), or nil if none exists.
func (s *Store) GetSubmission(studentID, examID string) (*model.Submission, error) {
	row := s.db.QueryRow(
		`SELECT id, student_id, exam_id, started_at, submitted_at, total_score, is_submitted
		 FROM submissions WHERE student_id = $1 AND exam_id = $2`, studentID, examID,
	)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubmissionByID returns a submission by its ID.
func (s *Store) GetSubmissionByID(id string) (model.Submission, error) {
	row := s.db.QueryRow(
		`SELECT id, student_id, exam_id, started_at, submitted_at, total_score, is_submitted
		 FROM submissions WHERE id = $1`, id,
	)
	return scanSubmission(row)
}

// StartSubmission stamps started_at on an unstarted submission. The
// conditional update keeps the first timestamp if two starts race.
func (s *Store) StartSubmission(id string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE submissions SET started_at = $1 WHERE id = $2 AND started_at IS NULL`,
		startedAt, id,
	)
	return err
}

// UpdateTotalScore persists the graded total onto the submission.
func (s *Store) UpdateTotalScore(id string, totalScore float64) error {
	_, err := s.db.Exec(`UPDATE submissions SET total_score = $1 WHERE id = $2`, totalScore, id)
	return err
}

// FinalizeSubmission marks the submission submitted. It reports whether
// this call won the transition: of two concurrent submits exactly one
// observes is_submitted = FALSE and flips it.
func (s *Store) FinalizeSubmission(id string, submittedAt time.Time) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE submissions SET is_submitted = TRUE, submitted_at = $1 WHERE id = $2 AND is_submitted = FALSE`,
		submittedAt, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListSubmissionsForExam returns all submissions for an exam.
func (s *Store) ListSubmissionsForExam(examID string) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, exam_id, started_at, submitted_at, total_score, is_submitted
		 FROM submissions WHERE exam_id = $1 ORDER BY started_at, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CreateAnswer inserts one answer row. At most one answer per
// (submission, question) ever exists; a conflicting insert is a no-op so
// a losing concurrent submit cannot duplicate or overwrite rows.
func (s *Store) CreateAnswer(a model.Answer) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO answers (id, submission_id, question_id, student_answer, score_awarded, feedback)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (submission_id, question_id) DO NOTHING`,
		a.ID, a.SubmissionID, a.QuestionID, a.StudentAnswer, a.ScoreAwarded, a.Feedback,
	)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// UpdateAnswerGrade writes the computed score and feedback onto an answer.
func (s *Store) UpdateAnswerGrade(id string, score float64, feedback string) error {
	_, err := s.db.Exec(
		`UPDATE answers SET score_awarded = $1, feedback = $2 WHERE id = $3`,
		score, feedback, id,
	)
	return err
}

// ListAnswers returns all answers of a submission.
func (s *Store) ListAnswers(submissionID string) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT id, submission_id, question_id, student_answer, score_awarded, feedback
		 FROM answers WHERE submission_id = $1 ORDER BY id`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.StudentAnswer, &a.ScoreAwarded, &a.Feedback); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func scanSubmission(row rowScanner) (model.Submission, error) {
	var sub model.Submission
	var started, submitted sql.NullTime
	err := row.Scan(&sub.ID, &sub.StudentID, &sub.ExamID, &started, &submitted, &sub.TotalScore, &sub.IsSubmitted)
	if err != nil {
		return model.Submission{}, err
	}
	if started.Valid {
		t := started.Time
		sub.StartedAt = &t
	}
	if submitted.Valid {
		t := submitted.Time
		sub.SubmittedAt = &t
	}
	return sub, nil
}
