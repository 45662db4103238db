package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestSummarizeGroupsCategoriesInOrder(t *testing.T) {
	history := singleQuestion("Year of Waterloo?", "1815", "1805")
	history.Category = "History"
	science := singleQuestion("H2O?", "Water", "Salt")
	science.Category = "Science"

	state := domain.SessionState{
		ID:        "s1",
		Questions: []domain.Question{science, history, science, history, science},
		Responses: []domain.Response{
			{Answered: true, Answers: []string{"Water"}, Correct: true},
			{Answered: true, Answers: []string{"1805"}},
			{Answered: true, Answers: []string{"Water"}, Correct: true},
			{Answered: true, Answers: []string{}, TimedOut: true},
			{Answered: true, Answers: []string{"Salt"}},
		},
		Score:    2,
		Finished: true,
	}

	results := Summarize(state)
	assert.Equal(t, 2, results.Score)
	assert.Equal(t, 5, results.Total)
	assert.Equal(t, 40, results.Percentage)
	assert.Equal(t, "Keep practicing!", results.Message)
	assert.Equal(t, "Novice", results.Badge)

	require.Len(t, results.Categories, 2)
	assert.Equal(t, domain.CategoryResult{Category: "Science", Total: 3, Correct: 2, Percentage: 67, Rating: "fair"}, results.Categories[0])
	assert.Equal(t, domain.CategoryResult{Category: "History", Total: 2, Correct: 0, Percentage: 0, Rating: "weak"}, results.Categories[1])

	require.Len(t, results.Review, 5)
	assert.True(t, results.Review[3].TimedOut)
	assert.Empty(t, results.Review[3].UserAnswers)
	assert.Equal(t, []string{"1815"}, results.Review[1].CorrectAnswers)
}

func TestGradeThresholds(t *testing.T) {
	tests := []struct {
		pct     int
		message string
		badge   string
	}{
		{100, "Excellent!", "Master"},
		{90, "Excellent!", "Master"},
		{89, "Great job!", "Expert"},
		{70, "Great job!", "Expert"},
		{69, "Good effort!", "Adept"},
		{50, "Good effort!", "Adept"},
		{49, "Keep practicing!", "Novice"},
		{0, "Keep practicing!", "Novice"},
	}
	for _, tt := range tests {
		message, badge := grade(tt.pct)
		assert.Equal(t, tt.message, message, "pct %d", tt.pct)
		assert.Equal(t, tt.badge, badge, "pct %d", tt.pct)
	}
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 0, percentage(0, 0))
	assert.Equal(t, 33, percentage(1, 3))
	assert.Equal(t, 67, percentage(2, 3))
	assert.Equal(t, 50, percentage(1, 2))
	assert.Equal(t, 13, percentage(1, 8)) // 12.5
	assert.Equal(t, 100, percentage(3, 3))
}

func TestRatingBands(t *testing.T) {
	assert.Equal(t, "strong", rating(7, 10))
	assert.Equal(t, "fair", rating(2, 5))
	assert.Equal(t, "fair", rating(69, 100))
	assert.Equal(t, "weak", rating(39, 100))
	assert.Equal(t, "weak", rating(0, 0))
}

func TestScoreAnswers(t *testing.T) {
	single := singleQuestion("2+2?", "4", "3", "5")
	multi := multiQuestion("Primes?", []string{"2", "3"}, []string{"4", "9"})

	ok, err := scoreAnswers(single, []string{"4"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = scoreAnswers(single, []string{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = scoreAnswers(single, []string{"4", "5"})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	_, err = scoreAnswers(single, []string{"22"})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	ok, err = scoreAnswers(multi, []string{"3", "2"})
	require.NoError(t, err)
	assert.True(t, ok, "order does not matter")

	ok, err = scoreAnswers(multi, []string{"2", "3", "9"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = scoreAnswers(multi, []string{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	assert.Nil(t, dedupe(nil))
	assert.Equal(t, []string{}, dedupe([]string{}))
	assert.Equal(t, []string{"b", "a"}, dedupe([]string{"b", "a", "b"}))
}
