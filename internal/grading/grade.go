package grading

import (
	"fmt"

	"github.com/seyio/acadex/internal/model"
	"github.com/seyio/acadex/internal/store"
)

// Engine grades whole submissions and persists the results. It is the
// sole writer of answer scores, answer feedback, and the submission's
// total score, and runs at most once per submission.
type Engine struct {
	store  *store.Store
	grader Grader
}

// NewEngine creates a grading engine backed by the given store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s, grader: NewGrader()}
}

// GradeSubmission walks every question of the submission's exam in
// catalog order, grades recorded answers, synthesizes zero-score answers
// for skipped questions, and returns the total score and the exam-wide
// total marks. Answers for questions outside the exam are ignored; the
// caller validates membership before answers are recorded.
func (e *Engine) GradeSubmission(sub model.Submission) (float64, int, error) {
	questions, err := e.store.ListQuestions(sub.ExamID)
	if err != nil {
		return 0, 0, fmt.Errorf("list questions: %w", err)
	}

	recorded, err := e.store.ListAnswers(sub.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list answers: %w", err)
	}
	answerByQuestion := make(map[string]model.Answer, len(recorded))
	for _, a := range recorded {
		answerByQuestion[a.QuestionID] = a
	}

	totalMarks := 0
	score := 0.0
	for _, q := range questions {
		totalMarks += q.Marks

		ans, ok := answerByQuestion[q.ID]
		if !ok {
			// Student skipped the question.
			_, err := e.store.CreateAnswer(model.Answer{
				SubmissionID:  sub.ID,
				QuestionID:    q.ID,
				StudentAnswer: "",
				ScoreAwarded:  0,
				Feedback:      "No answer submitted",
			})
			if err != nil {
				return 0, 0, fmt.Errorf("record skipped answer: %w", err)
			}
			continue
		}

		res := e.grader.Grade(q, ans.StudentAnswer)
		if err := e.store.UpdateAnswerGrade(ans.ID, res.ScoreAwarded, res.Feedback); err != nil {
			return 0, 0, fmt.Errorf("persist grade: %w", err)
		}
		score += res.ScoreAwarded
	}

	if err := e.store.UpdateTotalScore(sub.ID, score); err != nil {
		return 0, 0, fmt.Errorf("persist total score: %w", err)
	}
	return score, totalMarks, nil
}
