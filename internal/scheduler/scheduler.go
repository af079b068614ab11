package scheduler

import (
	"context"
	"log"
	"time"

	"aptitude-practice-service/internal/domain"
	"github.com/go-co-op/gocron"
)

// DefaultRefreshInterval is used when no interval is configured.
const DefaultRefreshInterval = time.Minute

// Refresher recomputes and publishes the leaderboard.
type Refresher interface {
	Refresh(ctx context.Context) (domain.Leaderboard, error)
}

// Scheduler periodically refreshes the leaderboard so changes made by
// other instances or directly in the database reach websocket clients.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

func New(refresher Refresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   interval,
	}
}

// Start schedules the refresh job and runs it without blocking.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.refresh); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the job.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.refresher.Refresh(ctx); err != nil {
		log.Printf("scheduled leaderboard refresh failed: %v", err)
	}
}
