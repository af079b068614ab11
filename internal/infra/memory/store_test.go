package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aptitude-practice-service/internal/domain"
)

func TestStoreUpdateUserIsAtomicPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user, err := store.CreateUser(ctx, domain.User{Name: "Alice"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.UpdateUser(ctx, user.ID, func(u *domain.User) error {
				if u.SolvedQuestions.Has("q1") {
					return nil
				}
				u.Coins += 10
				u.SolvedQuestions.Add("q1")
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Coins != 10 || got.SolvedQuestions.Len() != 1 {
		t.Fatalf("expected a single award, got coins=%d solved=%v", got.Coins, got.SolvedQuestions.Slice())
	}
}

func TestStoreUpdateUserAbortsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user, _ := store.CreateUser(ctx, domain.User{Name: "Bob", Coins: 5})

	boom := errors.New("boom")
	_, err := store.UpdateUser(ctx, user.ID, func(u *domain.User) error {
		u.Coins = 100
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	got, _ := store.GetUser(ctx, user.ID)
	if got.Coins != 5 {
		t.Fatalf("expected unchanged coins, got %d", got.Coins)
	}

	if _, err := store.UpdateUser(ctx, "nobody", func(*domain.User) error { return nil }); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestStoreSaveQuestionUpsertsBySlug(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	q := sampleQuestion()
	q.ID = ""
	q.Text = "What is two plus two?"
	saved, err := store.SaveQuestion(ctx, q)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID != "q1" {
		t.Fatalf("expected id to be kept, got %s", saved.ID)
	}
	all, _ := store.ListQuestions(ctx, "")
	if len(all) != 1 || all[0].Text != q.Text {
		t.Fatalf("expected replaced question, got %+v", all)
	}
	if all[0].Acceptance != "N/A" {
		t.Fatalf("expected default acceptance, got %q", all[0].Acceptance)
	}

	bad := sampleQuestion()
	bad.Slug = "bad"
	bad.Options[1].Correct = true
	if _, err := store.SaveQuestion(ctx, bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreTopUsersOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, u := range []domain.User{
		{ID: "u1", Name: "Carol", Coins: 10},
		{ID: "u2", Name: "Alice", Coins: 30},
		{ID: "u3", Name: "Bob", Coins: 10},
	} {
		if _, err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	top, err := store.TopUsers(ctx, 2)
	if err != nil {
		t.Fatalf("top users: %v", err)
	}
	if len(top) != 2 || top[0].ID != "u2" || top[1].ID != "u3" {
		t.Fatalf("unexpected order: %+v", top)
	}
}

func TestStoreCategoryCounts(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	other := sampleQuestion()
	other.ID, other.Slug, other.Title = "q2", "three-plus-three", "Three plus three"
	other.Category = domain.CategoryLogical
	if _, err := store.SaveQuestion(ctx, other); err != nil {
		t.Fatalf("save: %v", err)
	}

	counts, err := store.CategoryCounts(ctx, domain.NewIDSet("q1"))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[domain.CategoryQuantitative] != (domain.CategoryCount{Solved: 1, Total: 1}) {
		t.Fatalf("unexpected quantitative count %+v", counts[domain.CategoryQuantitative])
	}
	if counts[domain.CategoryLogical] != (domain.CategoryCount{Solved: 0, Total: 1}) {
		t.Fatalf("unexpected logical count %+v", counts[domain.CategoryLogical])
	}
}
