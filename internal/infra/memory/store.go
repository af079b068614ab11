package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aptitude-practice-service/internal/domain"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of the question, user and test series stores.
// Writes to one user are serialized by a per-user mutex.
type Store struct {
	now func() time.Time

	mu        sync.RWMutex
	questions map[string]domain.Question
	slugs     map[string]string
	users     map[string]domain.User
	series    map[string]domain.TestSeries

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		questions: make(map[string]domain.Question),
		slugs:     make(map[string]string),
		users:     make(map[string]domain.User),
		series:    make(map[string]domain.TestSeries),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Store) LoadQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) LoadQuestionBySlug(_ context.Context, slug string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slugs[slug]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(s.questions[id]), nil
}

func (s *Store) ListQuestions(_ context.Context, category domain.Category) ([]domain.Question, error) {
	s.mu.RLock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if category == "" || q.Category == category {
			out = append(out, cloneQuestion(q))
		}
	}
	s.mu.RUnlock()
	domain.SortForNavigation(out)
	return out, nil
}

func (s *Store) CategoryCounts(_ context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.Category]domain.CategoryCount)
	for _, q := range s.questions {
		c := counts[q.Category]
		c.Total++
		if solved.Has(q.ID) {
			c.Solved++
		}
		counts[q.Category] = c
	}
	return counts, nil
}

// SaveQuestion inserts q or replaces the question with the same slug, keeping its id.
func (s *Store) SaveQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.slugs[q.Slug]; ok {
		q.ID = id
	} else if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if old, ok := s.questions[q.ID]; ok && old.Slug != q.Slug {
		delete(s.slugs, old.Slug)
	}
	if q.Acceptance == "" {
		q.Acceptance = "N/A"
	}
	s.questions[q.ID] = cloneQuestion(q)
	s.slugs[q.Slug] = q.ID
	return q, nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// CreateUser stores a new user with an empty history.
func (s *Store) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u = u.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u.Clone(), nil
}

func (s *Store) UpdateUser(_ context.Context, id string, fn func(u *domain.User) error) (domain.User, error) {
	lock := s.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	draft := current.Clone()
	if err := fn(&draft); err != nil {
		return domain.User{}, err
	}
	if draft.Coins < 0 {
		return domain.User{}, domain.ErrInsufficientFunds
	}
	draft.ID = id
	draft.UpdatedAt = s.now()

	s.mu.Lock()
	s.users[id] = draft
	s.mu.Unlock()
	return draft.Clone(), nil
}

func (s *Store) TopUsers(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Coins != users[j].Coins {
			return users[i].Coins > users[j].Coins
		}
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *Store) GetTestSeries(_ context.Context, id string) (domain.TestSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.series[id]
	if !ok {
		return domain.TestSeries{}, domain.ErrTestSeriesNotFound
	}
	return cloneSeries(ts), nil
}

func (s *Store) ListTestSeries(_ context.Context) ([]domain.TestSeries, error) {
	s.mu.RLock()
	out := make([]domain.TestSeries, 0, len(s.series))
	for _, ts := range s.series {
		out = append(out, cloneSeries(ts))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SaveTestSeries(_ context.Context, ts domain.TestSeries) (domain.TestSeries, error) {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	if ts.CostInCoins < 0 {
		return domain.TestSeries{}, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[ts.ID] = cloneSeries(ts)
	return ts, nil
}

func (s *Store) userLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option(nil), q.Options...)
	return q
}

func cloneSeries(ts domain.TestSeries) domain.TestSeries {
	ts.QuestionIDs = append([]string(nil), ts.QuestionIDs...)
	return ts
}
