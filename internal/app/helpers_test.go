package app_test

import (
	"context"
	"testing"
	"time"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
)

type fixture struct {
	store    *memory.Store
	hub      *app.LeaderboardHub
	practice *app.PracticeService
	series   *app.TestSeriesService
	users    *app.UserService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, q := range sampleQuestions() {
		if _, err := store.SaveQuestion(ctx, q); err != nil {
			t.Fatalf("seed question %s: %v", q.Slug, err)
		}
	}
	for _, u := range []domain.User{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob", Coins: 40},
		{ID: "u3", Name: "Carol", Coins: 60},
	} {
		if _, err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if _, err := store.SaveTestSeries(ctx, domain.TestSeries{ID: "ts1", Name: "Mock 1", Description: "Full mock", CostInCoins: 50, QuestionIDs: []string{"q1", "q2"}}); err != nil {
		t.Fatalf("seed series: %v", err)
	}

	questions := memory.NewQuestionCache(store, time.Minute)
	hub := app.NewLeaderboardHub(store, 10)
	return fixture{
		store:    store,
		hub:      hub,
		practice: app.NewPracticeService(questions, store, hub),
		series:   app.NewTestSeriesService(store, store, hub),
		users:    app.NewUserService(store, questions, hub),
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID: "q1", Title: "Sum of digits", Slug: "sum-of-digits",
			Category: domain.CategoryQuantitative, Difficulty: domain.DifficultyMedium,
			Text: "What is 2 + 2?",
			Options: []domain.Option{
				{ID: "o1", Text: "4", Correct: true},
				{ID: "o2", Text: "5", Correct: false},
			},
		},
		{
			ID: "q2", Title: "Averages", Slug: "averages",
			Category: domain.CategoryQuantitative, Difficulty: domain.DifficultyEasy,
			Text: "Average of 2 and 4?",
			Options: []domain.Option{
				{ID: "o1", Text: "3", Correct: true},
				{ID: "o2", Text: "6", Correct: false},
			},
		},
		{
			ID: "q3", Title: "Trains", Slug: "trains",
			Category: domain.CategoryQuantitative, Difficulty: domain.DifficultyHard,
			Text: "Two trains...",
			Options: []domain.Option{
				{ID: "o1", Text: "1h", Correct: false},
				{ID: "o2", Text: "2h", Correct: true},
			},
		},
		{
			ID: "q4", Title: "Blood relations", Slug: "blood-relations",
			Category: domain.CategoryLogical, Difficulty: domain.DifficultyEasy,
			Text: "A is the father of B...",
			Options: []domain.Option{
				{ID: "o1", Text: "Uncle", Correct: true},
				{ID: "o2", Text: "Cousin", Correct: false},
			},
		},
	}
}
