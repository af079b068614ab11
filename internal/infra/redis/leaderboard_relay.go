package redis

import (
	"context"
	"log"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaderboardChannel = "leaderboard:changed"

// LeaderboardRelay shares "coins changed" signals between service instances.
// Each instance keeps its own hub and subscribers; Redis only carries the signal
// so every hub recomputes from the shared user store.
type LeaderboardRelay struct {
	client     *redis.Client
	hub        *app.LeaderboardHub
	instanceID string
}

func NewLeaderboardRelay(client *redis.Client, hub *app.LeaderboardHub) *LeaderboardRelay {
	return &LeaderboardRelay{
		client:     client,
		hub:        hub,
		instanceID: uuid.NewString(),
	}
}

// Refresh updates the local hub and tells the other instances to do the same.
func (r *LeaderboardRelay) Refresh(ctx context.Context) (domain.Leaderboard, error) {
	lb, err := r.hub.Refresh(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if err := r.client.Publish(ctx, leaderboardChannel, r.instanceID).Err(); err != nil {
		// best-effort: peers still converge on their scheduled refresh
		log.Printf("leaderboard relay publish failed: %v", wrap("publish", err))
	}
	return lb, nil
}

// Listen refreshes the local hub whenever another instance signals a change.
// It blocks until ctx is done.
func (r *LeaderboardRelay) Listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, leaderboardChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return wrap("subscribe", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload == r.instanceID {
				continue
			}
			if _, err := r.hub.Refresh(ctx); err != nil {
				log.Printf("leaderboard relay refresh failed: %v", err)
			}
		}
	}
}
