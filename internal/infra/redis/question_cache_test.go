package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(client, loader, time.Minute)

	q, err := cache.GetQuestionBySlug(context.Background(), "two-plus-two")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("question:id:q1") || !mr.Exists("question:slug:two-plus-two") {
		t.Fatalf("expected redis keys to be set")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := cache.GetQuestion(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached.Options) != len(q.Options) || !cached.Options[0].Correct {
		t.Fatalf("expected options to survive the round trip, got %+v", cached.Options)
	}
}

func TestQuestionCacheMissAndForget(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(newClient(mr), loader, time.Minute)

	if _, err := cache.GetQuestion(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	q, _ := cache.GetQuestion(context.Background(), "q1")
	if err := cache.Forget(context.Background(), q); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if mr.Exists("question:id:q1") {
		t.Fatalf("expected key removed")
	}
}

func TestQuestionCacheZeroTTLDisablesCaching(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(newClient(mr), loader, 0)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
			t.Fatalf("get question: %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected every lookup to hit the loader, got %d", loader.calls)
	}
	if mr.Exists("question:id:q1") || mr.Exists("question:slug:two-plus-two") {
		t.Fatalf("expected no redis keys with a zero ttl")
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestion(ctx context.Context, id string) (domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestion(ctx, id)
}

func (l *countingLoader) LoadQuestionBySlug(ctx context.Context, slug string) (domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionBySlug(ctx, slug)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	_, err := store.SaveQuestion(context.Background(), domain.Question{
		ID:         "q1",
		Title:      "Two plus two",
		Slug:       "two-plus-two",
		Category:   domain.CategoryQuantitative,
		Difficulty: domain.DifficultyEasy,
		Text:       "What is 2 + 2?",
		Options: []domain.Option{
			{ID: "o1", Text: "4", Correct: true},
			{ID: "o2", Text: "5", Correct: false},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
