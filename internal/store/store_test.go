package store

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/seyio/acadex/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, username string) string {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func createTestExam(t *testing.T, s *Store, ownerID string) model.Exam {
	t.Helper()
	exam, err := s.CreateExam(model.Exam{
		Title:           "Midterm",
		Course:          "CS101",
		DurationMinutes: 30,
		CreatedBy:       ownerID,
	})
	if err != nil {
		t.Fatalf("createTestExam: %v", err)
	}
	return exam
}

func TestExamCRUD(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher")

	count, err := s.ExamCount()
	if err != nil {
		t.Fatalf("ExamCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 exams, got %d", count)
	}

	exam := createTestExam(t, s, owner)
	got, err := s.GetExam(exam.ID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if got.Title != "Midterm" || got.DurationMinutes != 30 || got.CreatedBy != owner {
		t.Errorf("GetExam = %+v", got)
	}

	// Not found.
	if _, err := s.GetExam("missing"); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	// Update.
	got.Title = "Final"
	got.DurationMinutes = 60
	if err := s.UpdateExam(got); err != nil {
		t.Fatalf("UpdateExam: %v", err)
	}
	got, _ = s.GetExam(exam.ID)
	if got.Title != "Final" || got.DurationMinutes != 60 {
		t.Errorf("after update: %+v", got)
	}

	// List.
	exams, err := s.ListExams()
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 1 {
		t.Fatalf("expected 1 exam, got %d", len(exams))
	}

	// Delete.
	if err := s.DeleteExam(exam.ID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	if _, err := s.GetExam(exam.ID); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
}

func TestQuestionCRUD(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher")
	exam := createTestExam(t, s, owner)

	mcq, err := s.AddQuestion(model.Question{
		ExamID:        exam.ID,
		Text:          "Capital of France?",
		Kind:          model.KindMultipleChoice,
		Marks:         5,
		Options:       []string{"London", "Paris"},
		CorrectAnswer: "Paris",
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	theo, err := s.AddQuestion(model.Question{
		ExamID:           exam.ID,
		Text:             "Explain gravity",
		Kind:             model.KindTheory,
		Marks:            10,
		ExpectedKeywords: []string{"mass", "force"},
	})
	if err != nil {
		t.Fatalf("AddQuestion theory: %v", err)
	}

	got, err := s.GetQuestion(mcq.ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.CorrectAnswer != "Paris" || len(got.Options) != 2 {
		t.Errorf("GetQuestion = %+v", got)
	}

	// Catalog order follows insertion.
	questions, err := s.ListQuestions(exam.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != mcq.ID || questions[1].ID != theo.ID {
		t.Errorf("questions out of catalog order: %v then %v", questions[0].Text, questions[1].Text)
	}
	if questions[1].ExpectedKeywords[0] != "mass" {
		t.Errorf("keywords = %v", questions[1].ExpectedKeywords)
	}

	// Update.
	got.Marks = 8
	got.CorrectAnswer = "London"
	if err := s.UpdateQuestion(got); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	got, _ = s.GetQuestion(mcq.ID)
	if got.Marks != 8 || got.CorrectAnswer != "London" {
		t.Errorf("after update: %+v", got)
	}

	// Delete.
	if err := s.DeleteQuestion(theo.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	questions, _ = s.ListQuestions(exam.ID)
	if len(questions) != 1 {
		t.Errorf("expected 1 question after delete, got %d", len(questions))
	}

	// Questions cascade with the exam.
	if err := s.DeleteExam(exam.ID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	questions, _ = s.ListQuestions(exam.ID)
	if len(questions) != 0 {
		t.Errorf("expected questions to cascade, got %d", len(questions))
	}
}

func TestGetOrCreateSubmission(t *testing.T) {
	s := newTestStore(t)
	student := createTestUser(t, s, "student")
	exam := createTestExam(t, s, student)

	// No submission yet.
	sub, err := s.GetSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub != nil {
		t.Fatal("expected nil submission before first start")
	}

	first, err := s.GetOrCreateSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}
	if first.StartedAt != nil || first.IsSubmitted {
		t.Errorf("new submission should be unstarted: %+v", first)
	}

	// Second call returns the same row.
	second, err := s.GetOrCreateSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same submission, got %s and %s", first.ID, second.ID)
	}
}

func TestGetOrCreateSubmissionConcurrent(t *testing.T) {
	s := newTestStore(t)
	student := createTestUser(t, s, "student")
	exam := createTestExam(t, s, student)

	const n = 10
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := s.GetOrCreateSubmission(student, exam.ID)
			ids[i], errs[i] = sub.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("goroutine %d got submission %s, want %s", i, ids[i], ids[0])
		}
	}
}

func TestStartSubmissionKeepsFirstTimestamp(t *testing.T) {
	s := newTestStore(t)
	student := createTestUser(t, s, "student")
	exam := createTestExam(t, s, student)
	sub, err := s.GetOrCreateSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := s.StartSubmission(sub.ID, first); err != nil {
		t.Fatalf("StartSubmission: %v", err)
	}
	// A later start must not move the timestamp.
	if err := s.StartSubmission(sub.ID, first.Add(time.Hour)); err != nil {
		t.Fatalf("StartSubmission again: %v", err)
	}

	got, err := s.GetSubmissionByID(sub.ID)
	if err != nil {
		t.Fatalf("GetSubmissionByID: %v", err)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(first) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, first)
	}
}

func TestFinalizeSubmissionExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	student := createTestUser(t, s, "student")
	exam := createTestExam(t, s, student)
	sub, err := s.GetOrCreateSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}
	if err := s.StartSubmission(sub.ID, time.Now()); err != nil {
		t.Fatalf("StartSubmission: %v", err)
	}

	won, err := s.FinalizeSubmission(sub.ID, time.Now())
	if err != nil {
		t.Fatalf("FinalizeSubmission: %v", err)
	}
	if !won {
		t.Fatal("first finalize should win the transition")
	}

	won, err = s.FinalizeSubmission(sub.ID, time.Now())
	if err != nil {
		t.Fatalf("FinalizeSubmission again: %v", err)
	}
	if won {
		t.Error("second finalize must observe the submitted state and lose")
	}

	got, _ := s.GetSubmissionByID(sub.ID)
	if !got.IsSubmitted || got.SubmittedAt == nil {
		t.Errorf("submission not marked submitted: %+v", got)
	}
}

func TestCreateAnswerOnePerQuestion(t *testing.T) {
	s := newTestStore(t)
	student := createTestUser(t, s, "student")
	exam := createTestExam(t, s, student)
	q, err := s.AddQuestion(model.Question{
		ExamID: exam.ID, Text: "Q", Kind: model.KindTheory, Marks: 5,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	sub, err := s.GetOrCreateSubmission(student, exam.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSubmission: %v", err)
	}

	if _, err := s.CreateAnswer(model.Answer{SubmissionID: sub.ID, QuestionID: q.ID, StudentAnswer: "first"}); err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
	// A second insert for the same question is a no-op.
	if _, err := s.CreateAnswer(model.Answer{SubmissionID: sub.ID, QuestionID: q.ID, StudentAnswer: "second"}); err != nil {
		t.Fatalf("CreateAnswer duplicate: %v", err)
	}

	answers, err := s.ListAnswers(sub.ID)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(answers))
	}
	if answers[0].StudentAnswer != "first" {
		t.Errorf("answer = %q, want the first write to stick", answers[0].StudentAnswer)
	}
}

func TestUserStore(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		Role:         model.UserRoleStaff,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("ada")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleStaff {
		t.Errorf("GetUserByUsername = %+v", u)
	}

	u, err = s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil || u.Username != "ada" {
		t.Errorf("GetUserByID = %+v", u)
	}

	// Missing users come back nil without error.
	u, err = s.GetUserByUsername("nobody")
	if err != nil || u != nil {
		t.Errorf("missing user: %v, %v", u, err)
	}

	taken, err := s.EmailExists("ada@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !taken {
		t.Error("expected email to be taken")
	}

	// Duplicate username is rejected by the constraint.
	if _, err := s.CreateUser(model.User{Username: "ada", PasswordHash: "x", Role: model.UserRoleStudent}); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/some/exam.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/exam.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/exam.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/exam.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/exam.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}
