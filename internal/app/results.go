package app

import (
	"math"

	"trivia-quiz-service/internal/domain"
)

// Summarize builds the results breakdown from a session state.
// Categories keep the order in which they first appear in the quiz.
func Summarize(state domain.SessionState) domain.Results {
	results := domain.Results{
		SessionID:  state.ID,
		Score:      state.Score,
		Total:      len(state.Questions),
		Categories: []domain.CategoryResult{},
		Review:     make([]domain.ReviewItem, 0, len(state.Questions)),
	}
	results.Percentage = percentage(state.Score, results.Total)
	results.Message, results.Badge = grade(results.Percentage)

	byCategory := make(map[string]int)
	for i, q := range state.Questions {
		var resp domain.Response
		if i < len(state.Responses) {
			resp = state.Responses[i]
		}

		idx, ok := byCategory[q.Category]
		if !ok {
			idx = len(results.Categories)
			byCategory[q.Category] = idx
			results.Categories = append(results.Categories, domain.CategoryResult{Category: q.Category})
		}
		results.Categories[idx].Total++
		if resp.Correct {
			results.Categories[idx].Correct++
		}

		results.Review = append(results.Review, domain.ReviewItem{
			Index:           i,
			Category:        q.Category,
			Difficulty:      q.Difficulty,
			Text:            q.Text,
			Answers:         q.Answers,
			UserAnswers:     append([]string{}, resp.Answers...),
			CorrectAnswers:  q.CorrectAnswers,
			Correct:         resp.Correct,
			MultipleCorrect: q.MultipleCorrect,
			TimedOut:        resp.TimedOut,
		})
	}

	for i := range results.Categories {
		c := &results.Categories[i]
		c.Percentage = percentage(c.Correct, c.Total)
		c.Rating = rating(c.Correct, c.Total)
	}
	return results
}

// percentage rounds half up, matching how scores are shown to players.
func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(correct)*100/float64(total) + 0.5))
}

func grade(pct int) (message, badge string) {
	switch {
	case pct >= 90:
		return "Excellent!", "Master"
	case pct >= 70:
		return "Great job!", "Expert"
	case pct >= 50:
		return "Good effort!", "Adept"
	default:
		return "Keep practicing!", "Novice"
	}
}

func rating(correct, total int) string {
	if total == 0 {
		return "weak"
	}
	ratio := float64(correct) / float64(total)
	switch {
	case ratio >= 0.7:
		return "strong"
	case ratio >= 0.4:
		return "fair"
	default:
		return "weak"
	}
}
