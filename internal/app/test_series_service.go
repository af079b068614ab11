package app

import (
	"context"
	"log"

	"aptitude-practice-service/internal/domain"
)

// TestSeriesService lists test series and spends coins to unlock them.
type TestSeriesService struct {
	series   TestSeriesRepository
	users    UserRepository
	notifier LeaderboardNotifier
}

func NewTestSeriesService(series TestSeriesRepository, users UserRepository, notifier LeaderboardNotifier) *TestSeriesService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TestSeriesService{series: series, users: users, notifier: notifier}
}

// List returns every test series.
func (s *TestSeriesService) List(ctx context.Context) ([]domain.TestSeries, error) {
	return s.series.ListTestSeries(ctx)
}

// Unlock debits the series cost and records the unlock in a single user update.
func (s *TestSeriesService) Unlock(ctx context.Context, userID, seriesID string) (domain.UnlockResult, error) {
	series, err := s.series.GetTestSeries(ctx, seriesID)
	if err != nil {
		return domain.UnlockResult{}, err
	}

	updated, err := s.users.UpdateUser(ctx, userID, func(u *domain.User) error {
		if u.UnlockedTestSeries.Has(series.ID) {
			return domain.ErrAlreadyUnlocked
		}
		if u.Coins < series.CostInCoins {
			return domain.ErrInsufficientFunds
		}
		u.Coins -= series.CostInCoins
		u.UnlockedTestSeries.Add(series.ID)
		return nil
	})
	if err != nil {
		return domain.UnlockResult{}, err
	}

	if series.CostInCoins > 0 {
		if _, err := s.notifier.Refresh(ctx); err != nil {
			log.Printf("leaderboard refresh after unlock failed: %v", err)
		}
	}
	return domain.UnlockResult{
		Message:      "Test series unlocked!",
		NewCoinTotal: updated.Coins,
	}, nil
}
