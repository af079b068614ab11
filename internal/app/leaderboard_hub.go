package app

import (
	"context"
	"sync"
	"time"

	"aptitude-practice-service/internal/domain"
)

// DefaultLeaderboardSize matches the public leaderboard page.
const DefaultLeaderboardSize = 10

// LeaderboardHub computes the top-N snapshot and fans it out to subscribers.
type LeaderboardHub struct {
	users UserRepository
	size  int
	now   func() time.Time

	mu          sync.Mutex
	last        domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(users UserRepository, size int) *LeaderboardHub {
	return NewLeaderboardHubWithClock(users, size, time.Now)
}

// NewLeaderboardHubWithClock allows deterministic timestamps in tests.
func NewLeaderboardHubWithClock(users UserRepository, size int, now func() time.Time) *LeaderboardHub {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &LeaderboardHub{
		users:       users,
		size:        size,
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Refresh reloads the top users and broadcasts the snapshot when it changed.
func (h *LeaderboardHub) Refresh(ctx context.Context) (domain.Leaderboard, error) {
	users, err := h.users.TopUsers(ctx, h.size)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.LeaderboardEntry{UserID: u.ID, Name: u.Name, Coins: u.Coins})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sameEntries(h.last.Entries, entries) && !h.last.UpdatedAt.IsZero() {
		return h.last, nil
	}
	h.last = domain.Leaderboard{Entries: entries, UpdatedAt: h.now()}
	h.broadcastLocked(h.last)
	return h.last, nil
}

// Subscribe returns a channel that receives leaderboard snapshots, starting with the latest.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	if !h.last.UpdatedAt.IsZero() {
		ch <- h.last
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports how many feeds are attached.
func (h *LeaderboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *LeaderboardHub) broadcastLocked(lb domain.Leaderboard) {
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func sameEntries(a, b []domain.LeaderboardEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
