package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/seyio/acadex/internal/model"
)

// CreateExam inserts a new exam and returns it with ID and timestamp set.
func (s *Store) CreateExam(e model.Exam) (model.Exam, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO exams (id, title, course, duration_minutes, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Title, e.Course, e.DurationMinutes, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return model.Exam{}, err
	}
	return e, nil
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(id string) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, title, course, duration_minutes, created_by, created_at FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

// ListExams returns all exams, newest first.
func (s *Store) ListExams() ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, title, course, duration_minutes, created_by, created_at FROM exams ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExam updates the mutable exam fields.
func (s *Store) UpdateExam(e model.Exam) error {
	_, err := s.db.Exec(
		`UPDATE exams SET title = $1, course = $2, duration_minutes = $3 WHERE id = $4`,
		e.Title, e.Course, e.DurationMinutes, e.ID,
	)
	return err
}

// DeleteExam removes an exam; questions cascade.
func (s *Store) DeleteExam(id string) error {
	_, err := s.db.Exec(`DELETE FROM exams WHERE id = $1`, id)
	return err
}

// ExamCount returns the number of exams in the database.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

// AddQuestion appends a question to an exam.
func (s *Store) AddQuestion(q model.Question) (model.Question, error) {
	q.ID = uuid.NewString()
	if q.Position == 0 {
		var max int
		if err := s.db.QueryRow(
			`SELECT COALESCE(MAX(position), 0) FROM questions WHERE exam_id = $1`, q.ExamID,
		).Scan(&max); err != nil {
			return model.Question{}, err
		}
		q.Position = max + 1
	}
	options, err := json.Marshal(orEmpty(q.Options))
	if err != nil {
		return model.Question{}, err
	}
	keywords, err := json.Marshal(orEmpty(q.ExpectedKeywords))
	if err != nil {
		return model.Question{}, err
	}
	_, err = s.db.Exec(
		`INSERT INTO questions (id, exam_id, text, kind, marks, options_json, correct_answer, keywords_json, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.ExamID, q.Text, q.Kind, q.Marks, string(options), q.CorrectAnswer, string(keywords), q.Position,
	)
	if err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id string) (model.Question, error) {
	row := s.db.QueryRow(
		`SELECT id, exam_id, text, kind, marks, options_json, correct_answer, keywords_json, position
		 FROM questions WHERE id = $1`, id,
	)
	return scanQuestion(row)
}

// UpdateQuestion updates a question in place.
func (s *Store) UpdateQuestion(q model.Question) error {
	options, err := json.Marshal(orEmpty(q.Options))
	if err != nil {
		return err
	}
	keywords, err := json.Marshal(orEmpty(q.ExpectedKeywords))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE questions SET text = $1, kind = $2, marks = $3, options_json = $4, correct_answer = $5, keywords_json = $6
		 WHERE id = $7`,
		q.Text, q.Kind, q.Marks, string(options), q.CorrectAnswer, string(keywords), q.ID,
	)
	return err
}

// DeleteQuestion removes a question.
func (s *Store) DeleteQuestion(id string) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = $1`, id)
	return err
}

// ListQuestions returns all questions of an exam in catalog order.
func (s *Store) ListQuestions(examID string) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, text, kind, marks, options_json, correct_answer, keywords_json, position
		 FROM questions WHERE exam_id = $1 ORDER BY position, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (model.Question, error) {
	var q model.Question
	var options, keywords string
	err := row.Scan(&q.ID, &q.ExamID, &q.Text, &q.Kind, &q.Marks, &options, &q.CorrectAnswer, &keywords, &q.Position)
	if err != nil {
		return model.Question{}, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return model.Question{}, err
	}
	if err := json.Unmarshal([]byte(keywords), &q.ExpectedKeywords); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
