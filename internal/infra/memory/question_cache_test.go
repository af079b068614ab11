package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"aptitude-practice-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	// the id lookup also primed the slug entry
	if _, err := cache.GetQuestionBySlug(context.Background(), "two-plus-two"); err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuestion(context.Background(), "q1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuestion(context.Background(), "q1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionCacheZeroTTLDisablesCaching(t *testing.T) {
	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(loader, 0)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
			t.Fatalf("get question: %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected every lookup to hit the loader, got %d", loader.calls)
	}
	if len(cache.cache) != 0 {
		t.Fatalf("expected nothing stored, got %d entries", len(cache.cache))
	}
}

func TestQuestionCacheDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{QuestionLoader: seededStore(t)}
	cache := NewQuestionCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.GetQuestionBySlug(context.Background(), "missing")
		if !errors.Is(err, domain.ErrQuestionNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected misses to hit the loader, got %d", loader.calls)
	}
}

type countingLoader struct {
	QuestionLoader
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

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if _, err := store.SaveQuestion(context.Background(), sampleQuestion()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:         "q1",
		Title:      "Two plus two",
		Slug:       "two-plus-two",
		Category:   domain.CategoryQuantitative,
		Difficulty: domain.DifficultyMedium,
		Text:       "What is 2 + 2?",
		Options: []domain.Option{
			{ID: "o1", Text: "4", Correct: true},
			{ID: "o2", Text: "5", Correct: false},
		},
	}
}
