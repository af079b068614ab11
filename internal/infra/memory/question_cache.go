package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"aptitude-practice-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id string) (domain.Question, error)
	LoadQuestionBySlug(ctx context.Context, slug string) (domain.Question, error)
	ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error)
	CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error)
}

// QuestionCache caches single-question lookups with TTL to avoid repeated store hits.
// Listings and counts go straight to the loader. A ttl <= 0 disables caching.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return c.get(ctx, "id:"+id, func() (domain.Question, error) {
		return c.loader.LoadQuestion(ctx, id)
	})
}

func (c *QuestionCache) GetQuestionBySlug(ctx context.Context, slug string) (domain.Question, error) {
	return c.get(ctx, "slug:"+slug, func() (domain.Question, error) {
		return c.loader.LoadQuestionBySlug(ctx, slug)
	})
}

func (c *QuestionCache) ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	return c.loader.ListQuestions(ctx, category)
}

func (c *QuestionCache) CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error) {
	return c.loader.CategoryCounts(ctx, solved)
}

func (c *QuestionCache) get(_ context.Context, key string, load func() (domain.Question, error)) (domain.Question, error) {
	if q, ok := c.lookup(key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if q, ok := c.lookup(key); ok {
			return q, nil
		}

		q, err := load()
		if err != nil {
			return domain.Question{}, err
		}
		if c.ttl <= 0 {
			return q, nil
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache["id:"+q.ID] = cachedQuestion{question: q, expiresAt: expiresAt}
		c.cache["slug:"+q.Slug] = cachedQuestion{question: q, expiresAt: expiresAt}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) lookup(key string) (domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.question, true
	}
	return domain.Question{}, false
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
