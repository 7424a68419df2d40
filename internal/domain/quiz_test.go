package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tinyBank = domain.QuestionBank{
	Name: "tiny",
	Questions: []domain.Question{
		{Prompt: "a", Options: []string{"x", "y"}, Correct: 0},
		{Prompt: "b", Options: []string{"x", "y"}, Correct: 1},
		{Prompt: "c", Options: []string{"x", "y", "z"}, Correct: 2},
	},
}

func TestScore(t *testing.T) {
	assert.Equal(t, domain.QuizResult{Correct: 7, Total: 10, Percentage: 70, Passed: true}, domain.Score(7, 10))
	assert.Equal(t, domain.QuizResult{Correct: 2, Total: 3, Percentage: 67, Passed: false}, domain.Score(2, 3))
	assert.Equal(t, 88, domain.Score(7, 8).Percentage)
	assert.Equal(t, domain.QuizResult{}, domain.Score(0, 0))
}

func TestQuizSession_AnswerAndRestart(t *testing.T) {
	s := domain.NewQuizSession(tinyBank)

	require.NoError(t, s.Answer(0))
	require.NoError(t, s.Answer(0))
	assert.Equal(t, 2, s.Current())
	assert.False(t, s.Finished())

	require.NoError(t, s.Answer(2))
	assert.True(t, s.Finished())
	assert.Equal(t, 2, s.Result().Correct)

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, s.Answer(0), &conflict)

	s.Restart()
	assert.Equal(t, 0, s.Current())
	assert.Empty(t, s.Answers())
}

func TestQuizSession_OptionOutOfRange(t *testing.T) {
	s := domain.NewQuizSession(tinyBank)

	var validation *domain.ErrValidation
	assert.ErrorAs(t, s.Answer(5), &validation)
	assert.Equal(t, 0, s.Current())
}

func TestGrade(t *testing.T) {
	r, err := domain.Grade(tinyBank, []int{0, 1, 2})
	require.NoError(t, err)
	assert.True(t, r.Passed)
	assert.Equal(t, 100, r.Percentage)

	_, err = domain.Grade(tinyBank, []int{0, 1})
	var validation *domain.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestBanks(t *testing.T) {
	assert.Len(t, domain.FrameworkQuiz.Questions, 8)
	assert.Len(t, domain.ValidationQuiz.Questions, 10)

	for _, bank := range []domain.QuestionBank{domain.FrameworkQuiz, domain.ValidationQuiz} {
		for i, q := range bank.Questions {
			assert.Less(t, q.Correct, len(q.Options), "%s question %d", bank.Name, i)
		}
	}
}

func TestQuestionJSONHidesAnswer(t *testing.T) {
	raw, err := json.Marshal(domain.FrameworkQuiz)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "Correct")
	assert.NotContains(t, string(raw), "correct")
}
