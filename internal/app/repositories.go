package app

import (
	"context"

	"aptitude-practice-service/internal/domain"
)

// QuestionRepository reads question content (usually through a cache).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	GetQuestionBySlug(ctx context.Context, slug string) (domain.Question, error)
	// ListQuestions returns every question of category, or all questions when category is empty.
	ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error)
	// CategoryCounts tallies, per category, the total questions and how many of them are in solved.
	CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error)
}

// UserRepository owns user documents.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	// UpdateUser runs fn on a copy of the user as one atomic read-modify-write.
	// If fn returns an error nothing is persisted. fn must not call back into the repository.
	UpdateUser(ctx context.Context, id string, fn func(u *domain.User) error) (domain.User, error)
	// TopUsers returns up to limit users by coins descending, then name, then id.
	TopUsers(ctx context.Context, limit int) ([]domain.User, error)
}

// TestSeriesRepository reads test series.
type TestSeriesRepository interface {
	GetTestSeries(ctx context.Context, id string) (domain.TestSeries, error)
	ListTestSeries(ctx context.Context) ([]domain.TestSeries, error)
}

// LeaderboardNotifier is told when a balance changed.
type LeaderboardNotifier interface {
	Refresh(ctx context.Context) (domain.Leaderboard, error)
}

type noopNotifier struct{}

func (noopNotifier) Refresh(context.Context) (domain.Leaderboard, error) {
	return domain.Leaderboard{}, nil
}
