package app

import (
	"context"
	"math"

	"aptitude-practice-service/internal/domain"
)

// UserService serves the read-only views over users: leaderboard, stats, profile.
type UserService struct {
	users     UserRepository
	questions QuestionRepository
	hub       *LeaderboardHub
}

func NewUserService(users UserRepository, questions QuestionRepository, hub *LeaderboardHub) *UserService {
	return &UserService{users: users, questions: questions, hub: hub}
}

// Leaderboard returns the current top users by coins.
func (s *UserService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	return s.hub.Refresh(ctx)
}

// Stats summarizes solved counts per category.
func (s *UserService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	counts, err := s.questions.CategoryCounts(ctx, user.SolvedQuestions)
	if err != nil {
		return domain.UserStats{}, err
	}

	stats := make(map[string]domain.CategoryStats, len(domain.Categories))
	for _, c := range domain.Categories {
		count := counts[c]
		stats[c.StatsKey()] = domain.CategoryStats{
			Solved:     count.Solved,
			Total:      count.Total,
			Percentage: percentage(count.Solved, count.Total),
		}
	}
	return domain.UserStats{Coins: user.Coins, Stats: stats}, nil
}

// Profile returns the user record; the credential is never serialized.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

func percentage(solved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(solved) / float64(total) * 100))
}
