package redis

import (
	"context"
	"testing"
	"time"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLeaderboardRelayPropagatesBetweenInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// two instances sharing one user store
	store := memory.NewStore()
	_, _ = store.CreateUser(ctx, domain.User{ID: "u1", Name: "Alice"})

	hubA := app.NewLeaderboardHub(store, 10)
	hubB := app.NewLeaderboardHub(store, 10)
	relayA := NewLeaderboardRelay(newClient(mr), hubA)
	relayB := NewLeaderboardRelay(newClient(mr), hubB)

	if _, err := hubB.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	updates, unsubscribe := hubB.Subscribe()
	defer unsubscribe()
	<-updates

	go func() { _ = relayB.Listen(ctx) }()
	waitForSubscribers(t, mr)

	_, _ = store.UpdateUser(ctx, "u1", func(u *domain.User) error {
		u.Coins = 25
		return nil
	})
	if _, err := relayA.Refresh(ctx); err != nil {
		t.Fatalf("relay refresh: %v", err)
	}

	select {
	case lb := <-updates:
		if len(lb.Entries) != 1 || lb.Entries[0].Coins != 25 {
			t.Fatalf("unexpected snapshot %+v", lb.Entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected instance B to refresh")
	}
}

func waitForSubscribers(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mr.PubSubNumSub(leaderboardChannel)[leaderboardChannel] > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("relay never subscribed")
}
