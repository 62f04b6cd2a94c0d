package grading

import (
	"testing"
	"time"

	"github.com/seyio/acadex/internal/model"
	"github.com/seyio/acadex/internal/store"
)

type fixture struct {
	store *store.Store
	exam  model.Exam
	mcq   model.Question
	theo  model.Question
	sub   model.Submission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	studentID, err := s.CreateUser(model.User{
		Username:     "ada",
		PasswordHash: "x",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	exam, err := s.CreateExam(model.Exam{Title: "Programming 101", DurationMinutes: 30, CreatedBy: studentID})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	mcq, err := s.AddQuestion(model.Question{
		ExamID:        exam.ID,
		Text:          "Pick B",
		Kind:          model.KindMultipleChoice,
		Marks:         10,
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: "B",
	})
	if err != nil {
		t.Fatalf("AddQuestion mcq: %v", err)
	}
	theo, err := s.AddQuestion(model.Question{
		ExamID:           exam.ID,
		Text:             "Explain iteration",
		Kind:             model.KindTheory,
		Marks:            10,
		ExpectedKeywords: []string{"loop", "iterate"},
	})
	if err != nil {
		t.Fatalf("AddQuestion theory: %v", err)
	}

	sub, err := s.GetOrCreateSubmission(studentID, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}
	if err := s.StartSubmission(sub.ID, time.Now()); err != nil {
		t.Fatalf("StartSubmission: %v", err)
	}

	return &fixture{store: s, exam: exam, mcq: mcq, theo: theo, sub: sub}
}

func (f *fixture) answer(t *testing.T, questionID, text string) {
	t.Helper()
	_, err := f.store.CreateAnswer(model.Answer{
		SubmissionID:  f.sub.ID,
		QuestionID:    questionID,
		StudentAnswer: text,
	})
	if err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
}

func TestGradeSubmission(t *testing.T) {
	f := newFixture(t)
	f.answer(t, f.mcq.ID, "b")
	f.answer(t, f.theo.ID, "I will loop through items")

	score, totalMarks, err := NewEngine(f.store).GradeSubmission(f.sub)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if score != 15 {
		t.Errorf("score = %v, want 15", score)
	}
	if totalMarks != 20 {
		t.Errorf("totalMarks = %v, want 20", totalMarks)
	}

	// The total score is persisted onto the submission.
	sub, err := f.store.GetSubmissionByID(f.sub.ID)
	if err != nil {
		t.Fatalf("GetSubmissionByID: %v", err)
	}
	if sub.TotalScore != 15 {
		t.Errorf("persisted total = %v, want 15", sub.TotalScore)
	}
}

func TestGradeSkippedQuestion(t *testing.T) {
	f := newFixture(t)
	f.answer(t, f.mcq.ID, "B")
	// Theory question left unanswered.

	score, totalMarks, err := NewEngine(f.store).GradeSubmission(f.sub)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if score != 10 {
		t.Errorf("score = %v, want 10", score)
	}
	if totalMarks != 20 {
		t.Errorf("totalMarks = %v, want 20 (skipped questions stay in the denominator)", totalMarks)
	}

	answers, err := f.store.ListAnswers(f.sub.ID)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected a synthesized answer for the skipped question, got %d answers", len(answers))
	}
	var synth *model.Answer
	for i := range answers {
		if answers[i].QuestionID == f.theo.ID {
			synth = &answers[i]
		}
	}
	if synth == nil {
		t.Fatal("no answer row for the skipped question")
	}
	if synth.StudentAnswer != "" || synth.ScoreAwarded != 0 {
		t.Errorf("synthesized answer = %+v, want empty text and zero score", synth)
	}
	if synth.Feedback != "No answer submitted" {
		t.Errorf("synthesized feedback = %q, want 'No answer submitted'", synth.Feedback)
	}
}

func TestGradeTotalIsAdditive(t *testing.T) {
	f := newFixture(t)
	f.answer(t, f.mcq.ID, "A") // wrong
	f.answer(t, f.theo.ID, "loops everywhere")

	score, _, err := NewEngine(f.store).GradeSubmission(f.sub)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}

	answers, err := f.store.ListAnswers(f.sub.ID)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	sum := 0.0
	for _, a := range answers {
		sum += a.ScoreAwarded
	}
	if sum != score {
		t.Errorf("sum of answer scores = %v, total = %v; want equal", sum, score)
	}
}

func TestGradeEmptyExam(t *testing.T) {
	s, err := store.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	studentID, err := s.CreateUser(model.User{Username: "bob", PasswordHash: "x", Role: model.UserRoleStudent, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	exam, err := s.CreateExam(model.Exam{Title: "Empty", DurationMinutes: 30, CreatedBy: studentID})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	sub, err := s.GetOrCreateSubmission(studentID, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}

	score, totalMarks, err := NewEngine(s).GradeSubmission(sub)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if score != 0 || totalMarks != 0 {
		t.Errorf("empty exam graded to (%v, %v), want (0, 0)", score, totalMarks)
	}
}
