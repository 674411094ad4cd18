package studyai

import (
	"fmt"
	"strings"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

// OptionsPerQuestion is the number of choices every quiz question offers.
const OptionsPerQuestion = 4

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// validateQuiz trims the questions in place and checks the quiz shape.
func validateQuiz(questions []QuizQuestion) error {
	if len(questions) != gamification.QuizLength {
		return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("want %d questions, got %d", gamification.QuizLength, len(questions))}
	}
	for i := range questions {
		q := &questions[i]
		q.Question = strings.TrimSpace(q.Question)
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		if q.Question == "" {
			return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("question %d is blank", i+1)}
		}
		if len(q.Options) != OptionsPerQuestion {
			return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("question %d has %d options", i+1, len(q.Options))}
		}

		seen := make(map[string]bool, len(q.Options))
		answerFound := false
		for j, opt := range q.Options {
			opt = strings.TrimSpace(opt)
			q.Options[j] = opt
			if opt == "" {
				return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("question %d has a blank option", i+1)}
			}
			if seen[opt] {
				return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("question %d repeats option %q", i+1, opt)}
			}
			seen[opt] = true
			if opt == q.CorrectAnswer {
				answerFound = true
			}
		}
		if !answerFound {
			return &plan.ValidationError{Field: "quiz", Reason: fmt.Sprintf("question %d answer %q is not an option", i+1, q.CorrectAnswer)}
		}
	}
	return nil
}

// Score counts answers that match the correct option. Missing answers count as wrong.
func Score(questions []QuizQuestion, answers []string) int {
	score := 0
	for i, q := range questions {
		if i < len(answers) && strings.TrimSpace(answers[i]) == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// WithoutAnswers returns a copy of the quiz with every CorrectAnswer blanked.
func WithoutAnswers(questions []QuizQuestion) []QuizQuestion {
	out := make([]QuizQuestion, len(questions))
	for i, q := range questions {
		out[i] = QuizQuestion{
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
		}
	}
	return out
}
