package cli

import (
	"context"
	"fmt"
	"time"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/config"
	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
	pgstore "aptitude-practice-service/internal/infra/postgres"
	rediscache "aptitude-practice-service/internal/infra/redis"
	"aptitude-practice-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// store is the method set shared by the memory, postgres and sqlite drivers.
type store interface {
	memory.QuestionLoader
	app.UserRepository
	app.TestSeriesRepository
	SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
}

type backend struct {
	store     store
	questions app.QuestionRepository
	redis     *redis.Client
	// forget drops a question from the shared cache after it was rewritten.
	forget  func(ctx context.Context, q domain.Question) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{forget: func(context.Context, domain.Question) error { return nil }}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.store = pgstore.NewStore(pool)
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		b.store = s
	default:
		s := memory.NewStore()
		if err := seedSampleData(ctx, s); err != nil {
			return nil, err
		}
		b.store = s
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
		cache := rediscache.NewQuestionCache(b.redis, b.store, questionTTL)
		b.questions = cache
		b.forget = cache.Forget
	} else {
		b.questions = memory.NewQuestionCache(b.store, questionTTL)
	}
	return b, nil
}
