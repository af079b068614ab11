package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aptitude-practice-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store keeps questions, users and test series in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const questionColumns = `id, slug, title, category, difficulty, acceptance, question_text, options`

func (s *Store) LoadQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id=$1`, id)
	return scanQuestion(row)
}

func (s *Store) LoadQuestionBySlug(ctx context.Context, slug string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE slug=$1`, slug)
	return scanQuestion(row)
}

func (s *Store) ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY title COLLATE "C", id`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE category=$1 ORDER BY title COLLATE "C", id`, string(category))
	}
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

func (s *Store) CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, count(*), count(*) FILTER (WHERE id = ANY($1))
		FROM questions
		GROUP BY category`, solved.Slice())
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]domain.CategoryCount)
	for rows.Next() {
		var (
			category           string
			total, solvedCount int
		)
		if err := rows.Scan(&category, &total, &solvedCount); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[domain.Category(category)] = domain.CategoryCount{Solved: solvedCount, Total: total}
	}
	return counts, rows.Err()
}

// SaveQuestion upserts by slug and returns the stored question with its id.
func (s *Store) SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Acceptance == "" {
		q.Acceptance = "N/A"
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal options: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			difficulty = EXCLUDED.difficulty,
			acceptance = EXCLUDED.acceptance,
			question_text = EXCLUDED.question_text,
			options = EXCLUDED.options
		RETURNING id`,
		q.ID, q.Slug, q.Title, string(q.Category), string(q.Difficulty), q.Acceptance, q.Text, string(options),
	).Scan(&q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("save question: %w", err)
	}
	return q, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	return loadUser(ctx, s.pool, id, false)
}

// CreateUser inserts a user with an empty history.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, coins)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Coins,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	u.SolvedQuestions = domain.NewIDSet()
	u.UnlockedTestSeries = domain.NewIDSet()
	return u, nil
}

// UpdateUser locks the user row for the length of a transaction, applies fn and
// writes back only what changed.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(u *domain.User) error) (domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := loadUser(ctx, tx, id, true)
	if err != nil {
		return domain.User{}, err
	}
	draft := current.Clone()
	if err := fn(&draft); err != nil {
		return domain.User{}, err
	}
	if draft.Coins < 0 {
		return domain.User{}, domain.ErrInsufficientFunds
	}

	if draft.Coins != current.Coins || draft.Name != current.Name {
		err = tx.QueryRow(ctx, `UPDATE users SET coins=$2, name=$3, updated_at=now() WHERE id=$1 RETURNING updated_at`,
			id, draft.Coins, draft.Name).Scan(&draft.UpdatedAt)
		if err != nil {
			return domain.User{}, fmt.Errorf("update user: %w", err)
		}
	}
	for _, qid := range draft.SolvedQuestions.Diff(current.SolvedQuestions) {
		if _, err := tx.Exec(ctx, `INSERT INTO user_solved_questions (user_id, question_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, qid); err != nil {
			return domain.User{}, fmt.Errorf("insert solved question: %w", err)
		}
	}
	for _, qid := range current.SolvedQuestions.Diff(draft.SolvedQuestions) {
		if _, err := tx.Exec(ctx, `DELETE FROM user_solved_questions WHERE user_id=$1 AND question_id=$2`, id, qid); err != nil {
			return domain.User{}, fmt.Errorf("delete solved question: %w", err)
		}
	}
	for _, sid := range draft.UnlockedTestSeries.Diff(current.UnlockedTestSeries) {
		if _, err := tx.Exec(ctx, `INSERT INTO user_unlocked_test_series (user_id, series_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, sid); err != nil {
			return domain.User{}, fmt.Errorf("insert unlocked series: %w", err)
		}
	}
	for _, sid := range current.UnlockedTestSeries.Diff(draft.UnlockedTestSeries) {
		if _, err := tx.Exec(ctx, `DELETE FROM user_unlocked_test_series WHERE user_id=$1 AND series_id=$2`, id, sid); err != nil {
			return domain.User{}, fmt.Errorf("delete unlocked series: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit: %w", err)
	}
	draft.ID = id
	return draft, nil
}

// TopUsers returns ranked users; their solved and unlocked sets are left empty.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, coins, created_at, updated_at
		FROM users
		ORDER BY coins DESC, name COLLATE "C", id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u := domain.User{SolvedQuestions: domain.NewIDSet(), UnlockedTestSeries: domain.NewIDSet()}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Coins, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) GetTestSeries(ctx context.Context, id string) (domain.TestSeries, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, name, description, cost_in_coins, question_ids FROM test_series WHERE id=$1`, id)
	ts, err := scanSeries(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TestSeries{}, domain.ErrTestSeriesNotFound
	}
	return ts, err
}

func (s *Store) ListTestSeries(ctx context.Context) ([]domain.TestSeries, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, cost_in_coins, question_ids FROM test_series ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list test series: %w", err)
	}
	defer rows.Close()

	out := []domain.TestSeries{}
	for rows.Next() {
		ts, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *Store) SaveTestSeries(ctx context.Context, ts domain.TestSeries) (domain.TestSeries, error) {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	ids, err := json.Marshal(append([]string{}, ts.QuestionIDs...))
	if err != nil {
		return domain.TestSeries{}, fmt.Errorf("marshal question ids: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO test_series (id, name, description, cost_in_coins, question_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			cost_in_coins = EXCLUDED.cost_in_coins,
			question_ids = EXCLUDED.question_ids`,
		ts.ID, ts.Name, ts.Description, ts.CostInCoins, string(ids))
	if err != nil {
		return domain.TestSeries{}, fmt.Errorf("save test series: %w", err)
	}
	return ts, nil
}

func loadUser(ctx context.Context, q querier, id string, forUpdate bool) (domain.User, error) {
	query := `SELECT id, name, email, password_hash, coins, created_at, updated_at FROM users WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var u domain.User
	err := q.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Coins, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}

	if u.SolvedQuestions, err = loadIDSet(ctx, q, `SELECT question_id FROM user_solved_questions WHERE user_id=$1`, id); err != nil {
		return domain.User{}, err
	}
	if u.UnlockedTestSeries, err = loadIDSet(ctx, q, `SELECT series_id FROM user_unlocked_test_series WHERE user_id=$1`, id); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func loadIDSet(ctx context.Context, q querier, query, userID string) (domain.IDSet, error) {
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load id set: %w", err)
	}
	defer rows.Close()

	set := domain.NewIDSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		set.Add(id)
	}
	return set, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q                    domain.Question
		category, difficulty string
		options              []byte
	)
	err := row.Scan(&q.ID, &q.Slug, &q.Title, &category, &difficulty, &q.Acceptance, &q.Text, &options)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	q.Category = domain.Category(category)
	q.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

func scanSeries(row pgx.Row) (domain.TestSeries, error) {
	var (
		ts  domain.TestSeries
		ids []byte
	)
	if err := row.Scan(&ts.ID, &ts.Name, &ts.Description, &ts.CostInCoins, &ids); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TestSeries{}, err
		}
		return domain.TestSeries{}, fmt.Errorf("load test series: %w", err)
	}
	if err := json.Unmarshal(ids, &ts.QuestionIDs); err != nil {
		return domain.TestSeries{}, fmt.Errorf("unmarshal question ids: %w", err)
	}
	return ts, nil
}
