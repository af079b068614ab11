package cli

import (
	"context"
	"fmt"

	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
)

// seedSampleData gives the memory driver something to serve; swap in postgres or sqlite for real content.
func seedSampleData(ctx context.Context, s *memory.Store) error {
	questions := []domain.Question{
		{
			ID: "q-trains", Title: "Problems on Trains", Slug: "problems-on-trains",
			Category: domain.CategoryQuantitative, Difficulty: domain.DifficultyMedium, Acceptance: "48%",
			Text: "A 120 m train passes a pole in 6 seconds. What is its speed in km/h?",
			Options: []domain.Option{
				{ID: "o1", Text: "60"},
				{ID: "o2", Text: "72", Correct: true},
				{ID: "o3", Text: "80"},
				{ID: "o4", Text: "90"},
			},
		},
		{
			ID: "q-averages", Title: "Averages", Slug: "averages",
			Category: domain.CategoryQuantitative, Difficulty: domain.DifficultyEasy,
			Text: "What is the average of 4, 8 and 12?",
			Options: []domain.Option{
				{ID: "o1", Text: "6"},
				{ID: "o2", Text: "8", Correct: true},
				{ID: "o3", Text: "10"},
			},
		},
		{
			ID: "q-blood", Title: "Blood Relations", Slug: "blood-relations",
			Category: domain.CategoryLogical, Difficulty: domain.DifficultyHard,
			Text: "A is the brother of B. B is the sister of C. C is the father of D. How is A related to D?",
			Options: []domain.Option{
				{ID: "o1", Text: "Uncle", Correct: true},
				{ID: "o2", Text: "Father"},
				{ID: "o3", Text: "Brother"},
			},
		},
		{
			ID: "q-joins", Title: "Inner Joins", Slug: "inner-joins",
			Category: domain.CategoryDatabase, Difficulty: domain.DifficultyEasy,
			Text: "Which join returns only rows with matches in both tables?",
			Options: []domain.Option{
				{ID: "o1", Text: "LEFT JOIN"},
				{ID: "o2", Text: "INNER JOIN", Correct: true},
				{ID: "o3", Text: "FULL OUTER JOIN"},
			},
		},
	}
	for _, q := range questions {
		if _, err := s.SaveQuestion(ctx, q); err != nil {
			return fmt.Errorf("seed question %s: %w", q.Slug, err)
		}
	}

	users := []domain.User{
		{ID: "demo-user", Name: "Demo User", Email: "demo@example.com", Coins: 30},
		{ID: "demo-rival", Name: "Demo Rival", Email: "rival@example.com", Coins: 55},
	}
	for _, u := range users {
		if _, err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	_, err := s.SaveTestSeries(ctx, domain.TestSeries{
		ID:          "ts-quant-mock",
		Name:        "Quantitative Mock Test",
		Description: "Timed mock covering arithmetic topics.",
		CostInCoins: 50,
		QuestionIDs: []string{"q-trains", "q-averages"},
	})
	if err != nil {
		return fmt.Errorf("seed test series: %w", err)
	}
	return nil
}
