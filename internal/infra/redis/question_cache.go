package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches question documents in Redis and falls back to a loader on miss.
// Documents are stored as JSON under question:id:{id}; question:slug:{slug} holds the id.
// A ttl <= 0 disables caching.
type QuestionCache struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionCache(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.readByID(ctx, id); ok {
		return q, nil
	}
	return c.fill(ctx, "id:"+id, func() (domain.Question, error) {
		if q, ok := c.readByID(ctx, id); ok {
			return q, nil
		}
		return c.loader.LoadQuestion(ctx, id)
	})
}

func (c *QuestionCache) GetQuestionBySlug(ctx context.Context, slug string) (domain.Question, error) {
	if q, ok := c.readBySlug(ctx, slug); ok {
		return q, nil
	}
	return c.fill(ctx, "slug:"+slug, func() (domain.Question, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.readBySlug(ctx, slug); ok {
			return q, nil
		}
		return c.loader.LoadQuestionBySlug(ctx, slug)
	})
}

func (c *QuestionCache) ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	return c.loader.ListQuestions(ctx, category)
}

func (c *QuestionCache) CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error) {
	return c.loader.CategoryCounts(ctx, solved)
}

// Forget removes a question from the cache, e.g. after it was re-imported.
func (c *QuestionCache) Forget(ctx context.Context, q domain.Question) error {
	return c.client.Del(ctx, idKey(q.ID), slugKey(q.Slug)).Err()
}

func (c *QuestionCache) fill(ctx context.Context, key string, load func() (domain.Question, error)) (domain.Question, error) {
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		q, err := load()
		if err != nil {
			return domain.Question{}, err
		}
		// a zero ttl would make redis keep the keys forever
		if c.ttl > 0 {
			c.write(ctx, q)
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) readByID(ctx context.Context, id string) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, idKey(id)).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) readBySlug(ctx context.Context, slug string) (domain.Question, bool) {
	id, err := c.client.Get(ctx, slugKey(slug)).Result()
	if err != nil {
		return domain.Question{}, false
	}
	return c.readByID(ctx, id)
}

// write is best effort; a failed write only costs a later reload.
func (c *QuestionCache) write(ctx context.Context, q domain.Question) {
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	ttl := c.ttlWithJitter()
	pipe := c.client.Pipeline()
	pipe.Set(ctx, idKey(q.ID), data, ttl)
	pipe.Set(ctx, slugKey(q.Slug), q.ID, ttl)
	_, _ = pipe.Exec(ctx)
}

func idKey(id string) string {
	return "question:id:" + id
}

func slugKey(slug string) string {
	return "question:slug:" + slug
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("redis %s: %w", op, err)
}
