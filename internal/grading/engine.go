package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/seyio/acadex/internal/model"
)

// Result is the outcome of grading a single answer.
type Result struct {
	ScoreAwarded float64
	Feedback     string
}

// Strategy grades one student answer against one question.
type Strategy interface {
	Grade(q model.Question, answer string) Result
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(q model.Question, answer string) Result
}

type defaultGrader struct {
	strategies map[model.QuestionKind]Strategy
}

// NewGrader installs the two built-in strategies. Grading is fixed to
// exact-match multiple choice and keyword-overlap theory.
func NewGrader() Grader {
	return &defaultGrader{
		strategies: map[model.QuestionKind]Strategy{
			model.KindMultipleChoice: multipleChoiceStrategy{},
			model.KindTheory:         theoryStrategy{},
		},
	}
}

func (g *defaultGrader) Grade(q model.Question, answer string) Result {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{Feedback: "Unsupported question type"}
	}
	return s.Grade(q, answer)
}

type multipleChoiceStrategy struct{}

// Grade compares the answer to the correct option, ignoring case and
// surrounding whitespace. A wrong answer's feedback names the correct
// option; the exam is over at grading time, so exposing it is fine.
func (multipleChoiceStrategy) Grade(q model.Question, answer string) Result {
	if normalize(answer) == normalize(q.CorrectAnswer) {
		return Result{ScoreAwarded: float64(q.Marks), Feedback: "Correct answer"}
	}
	return Result{Feedback: "Incorrect. Correct answer is: " + q.CorrectAnswer}
}

type theoryStrategy struct{}

// Grade awards a fraction of the marks proportional to how many expected
// keywords appear in the answer. Matching is a case-insensitive substring
// test against the full, untrimmed answer.
func (theoryStrategy) Grade(q model.Question, answer string) Result {
	if len(q.ExpectedKeywords) == 0 {
		return Result{Feedback: "No keywords provided"}
	}

	lowered := strings.ToLower(answer)
	var matched []string
	for _, word := range q.ExpectedKeywords {
		if strings.Contains(lowered, strings.ToLower(word)) {
			matched = append(matched, word)
		}
	}

	fraction := float64(len(matched)) / float64(len(q.ExpectedKeywords))
	score := round2(fraction * float64(q.Marks))

	feedback := "Poor answer. No key concepts found"
	if len(matched) > 0 {
		feedback = fmt.Sprintf("Matched keywords: %s", strings.Join(matched, ", "))
	}
	feedback += fmt.Sprintf(" | Expected points/keywords: %s", strings.Join(q.ExpectedKeywords, ", "))

	return Result{ScoreAwarded: score, Feedback: feedback}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
