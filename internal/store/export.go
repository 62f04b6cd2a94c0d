package store

import (
	"fmt"

	"github.com/seyio/acadex/internal/model"
)

// ExportExamResults builds export-ready student results for one exam.
func (s *Store) ExportExamResults(examID string) (model.ResultsExport, error) {
	exam, err := s.GetExam(examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("get exam %s: %w", examID, err)
	}
	questions, err := s.ListQuestions(examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list questions: %w", err)
	}
	questionByID := make(map[string]model.Question, len(questions))
	totalMarks := 0
	for _, q := range questions {
		questionByID[q.ID] = q
		totalMarks += q.Marks
	}

	subs, err := s.ListSubmissionsForExam(examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list submissions: %w", err)
	}

	export := model.ResultsExport{
		ExamID:     exam.ID,
		Title:      exam.Title,
		Course:     exam.Course,
		TotalMarks: totalMarks,
	}
	for _, sub := range subs {
		user, err := s.GetUserByID(sub.StudentID)
		if err != nil {
			return model.ResultsExport{}, fmt.Errorf("get user %s: %w", sub.StudentID, err)
		}
		result := model.StudentResult{
			StartedAt:   sub.StartedAt,
			SubmittedAt: sub.SubmittedAt,
			TotalScore:  sub.TotalScore,
		}
		if user != nil {
			result.Username = user.Username
			result.DisplayName = user.FirstName + " " + user.LastName
		}

		answers, err := s.ListAnswers(sub.ID)
		if err != nil {
			return model.ResultsExport{}, fmt.Errorf("list answers for %s: %w", sub.ID, err)
		}
		for _, a := range answers {
			q := questionByID[a.QuestionID]
			result.Answers = append(result.Answers, model.AnswerResult{
				QuestionText:  q.Text,
				Kind:          string(q.Kind),
				Marks:         q.Marks,
				StudentAnswer: a.StudentAnswer,
				ScoreAwarded:  a.ScoreAwarded,
				Feedback:      a.Feedback,
			})
		}
		export.Submissions = append(export.Submissions, result)
	}
	return export, nil
}
