package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aptitude-practice-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store is a single-file SQLite implementation of the question, user and test series stores.
// One connection and immediate transactions serialize every user update.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the database at path (":memory:" for tests) and creates the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=on", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			acceptance TEXT NOT NULL DEFAULT 'N/A',
			question_text TEXT NOT NULL,
			options TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			coins INTEGER NOT NULL DEFAULT 0 CHECK (coins >= 0),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_series (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			cost_in_coins INTEGER NOT NULL DEFAULT 50 CHECK (cost_in_coins >= 0),
			question_ids TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS user_solved_questions (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, question_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_unlocked_test_series (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			series_id TEXT NOT NULL REFERENCES test_series(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, series_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

type questionRow struct {
	ID         string `db:"id"`
	Slug       string `db:"slug"`
	Title      string `db:"title"`
	Category   string `db:"category"`
	Difficulty string `db:"difficulty"`
	Acceptance string `db:"acceptance"`
	Text       string `db:"question_text"`
	Options    string `db:"options"`
}

func (r questionRow) toDomain() (domain.Question, error) {
	q := domain.Question{
		ID:         r.ID,
		Slug:       r.Slug,
		Title:      r.Title,
		Category:   domain.Category(r.Category),
		Difficulty: domain.Difficulty(r.Difficulty),
		Acceptance: r.Acceptance,
		Text:       r.Text,
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("failed to parse options: %w", err)
	}
	return q, nil
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Coins        int       `db:"coins"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type seriesRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CostInCoins int    `db:"cost_in_coins"`
	QuestionIDs string `db:"question_ids"`
}

func (r seriesRow) toDomain() (domain.TestSeries, error) {
	ts := domain.TestSeries{ID: r.ID, Name: r.Name, Description: r.Description, CostInCoins: r.CostInCoins}
	if err := json.Unmarshal([]byte(r.QuestionIDs), &ts.QuestionIDs); err != nil {
		return domain.TestSeries{}, fmt.Errorf("failed to parse question ids: %w", err)
	}
	return ts, nil
}

const questionColumns = `id, slug, title, category, difficulty, acceptance, question_text, options`

func (s *Store) LoadQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.loadQuestion(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
}

func (s *Store) LoadQuestionBySlug(ctx context.Context, slug string) (domain.Question, error) {
	return s.loadQuestion(ctx, `SELECT `+questionColumns+` FROM questions WHERE slug = ?`, slug)
}

func (s *Store) loadQuestion(ctx context.Context, query string, arg string) (domain.Question, error) {
	var row questionRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return domain.Question{}, fmt.Errorf("failed to get question: %w", err)
	}
	return row.toDomain()
}

func (s *Store) ListQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	var (
		rows []questionRow
		err  error
	)
	if category == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+questionColumns+` FROM questions ORDER BY title, id`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+questionColumns+` FROM questions WHERE category = ? ORDER BY title, id`, string(category))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	out := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Store) CategoryCounts(ctx context.Context, solved domain.IDSet) (map[domain.Category]domain.CategoryCount, error) {
	type countRow struct {
		Category string `db:"category"`
		N        int    `db:"n"`
	}

	var totals []countRow
	if err := s.db.SelectContext(ctx, &totals, `SELECT category, count(*) AS n FROM questions GROUP BY category`); err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	counts := make(map[domain.Category]domain.CategoryCount, len(totals))
	for _, r := range totals {
		counts[domain.Category(r.Category)] = domain.CategoryCount{Total: r.N}
	}
	if solved.Len() == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(`SELECT category, count(*) AS n FROM questions WHERE id IN (?) GROUP BY category`, solved.Slice())
	if err != nil {
		return nil, fmt.Errorf("failed to build solved query: %w", err)
	}
	var solvedRows []countRow
	if err := s.db.SelectContext(ctx, &solvedRows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count solved questions: %w", err)
	}
	for _, r := range solvedRows {
		c := counts[domain.Category(r.Category)]
		c.Solved = r.N
		counts[domain.Category(r.Category)] = c
	}
	return counts, nil
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
		return domain.Question{}, fmt.Errorf("failed to marshal options: %w", err)
	}

	err = s.db.GetContext(ctx, &q.ID, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			difficulty = excluded.difficulty,
			acceptance = excluded.acceptance,
			question_text = excluded.question_text,
			options = excluded.options
		RETURNING id`,
		q.ID, q.Slug, q.Title, string(q.Category), string(q.Difficulty), q.Acceptance, q.Text, string(options))
	if err != nil {
		return domain.Question{}, fmt.Errorf("failed to save question: %w", err)
	}
	return q, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	return loadUser(ctx, s.db, id)
}

// CreateUser inserts a user with an empty history.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, coins, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Coins, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	u.SolvedQuestions = domain.NewIDSet()
	u.UnlockedTestSeries = domain.NewIDSet()
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(u *domain.User) error) (domain.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadUser(ctx, tx, id)
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

	draft.UpdatedAt = s.now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE users SET coins = ?, name = ?, updated_at = ? WHERE id = ?`,
		draft.Coins, draft.Name, draft.UpdatedAt, id); err != nil {
		return domain.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	for _, qid := range draft.SolvedQuestions.Diff(current.SolvedQuestions) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_solved_questions (user_id, question_id) VALUES (?, ?)`, id, qid); err != nil {
			return domain.User{}, fmt.Errorf("failed to record solved question: %w", err)
		}
	}
	for _, qid := range current.SolvedQuestions.Diff(draft.SolvedQuestions) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_solved_questions WHERE user_id = ? AND question_id = ?`, id, qid); err != nil {
			return domain.User{}, fmt.Errorf("failed to remove solved question: %w", err)
		}
	}
	for _, sid := range draft.UnlockedTestSeries.Diff(current.UnlockedTestSeries) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_unlocked_test_series (user_id, series_id) VALUES (?, ?)`, id, sid); err != nil {
			return domain.User{}, fmt.Errorf("failed to record unlock: %w", err)
		}
	}
	for _, sid := range current.UnlockedTestSeries.Diff(draft.UnlockedTestSeries) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_unlocked_test_series WHERE user_id = ? AND series_id = ?`, id, sid); err != nil {
			return domain.User{}, fmt.Errorf("failed to remove unlock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, fmt.Errorf("failed to commit: %w", err)
	}
	draft.ID = id
	return draft, nil
}

// TopUsers returns ranked users; their solved and unlocked sets are left empty.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, email, password_hash, coins, created_at, updated_at
		FROM users
		ORDER BY coins DESC, name, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (s *Store) GetTestSeries(ctx context.Context, id string) (domain.TestSeries, error) {
	var row seriesRow
	err := s.db.GetContext(ctx, &row, `SELECT id, name, description, cost_in_coins, question_ids FROM test_series WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TestSeries{}, domain.ErrTestSeriesNotFound
	}
	if err != nil {
		return domain.TestSeries{}, fmt.Errorf("failed to get test series: %w", err)
	}
	return row.toDomain()
}

func (s *Store) ListTestSeries(ctx context.Context) ([]domain.TestSeries, error) {
	var rows []seriesRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, description, cost_in_coins, question_ids FROM test_series ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list test series: %w", err)
	}
	out := make([]domain.TestSeries, 0, len(rows))
	for _, row := range rows {
		ts, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (s *Store) SaveTestSeries(ctx context.Context, ts domain.TestSeries) (domain.TestSeries, error) {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	ids, err := json.Marshal(append([]string{}, ts.QuestionIDs...))
	if err != nil {
		return domain.TestSeries{}, fmt.Errorf("failed to marshal question ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO test_series (id, name, description, cost_in_coins, question_ids)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			cost_in_coins = excluded.cost_in_coins,
			question_ids = excluded.question_ids`,
		ts.ID, ts.Name, ts.Description, ts.CostInCoins, string(ids))
	if err != nil {
		return domain.TestSeries{}, fmt.Errorf("failed to save test series: %w", err)
	}
	return ts, nil
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		Coins:              r.Coins,
		SolvedQuestions:    domain.NewIDSet(),
		UnlockedTestSeries: domain.NewIDSet(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func loadUser(ctx context.Context, q sqlx.QueryerContext, id string) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT id, name, email, password_hash, coins, created_at, updated_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.toDomain()

	var solved, unlocked []string
	if err := sqlx.SelectContext(ctx, q, &solved, `SELECT question_id FROM user_solved_questions WHERE user_id = ?`, id); err != nil {
		return domain.User{}, fmt.Errorf("failed to get solved questions: %w", err)
	}
	if err := sqlx.SelectContext(ctx, q, &unlocked, `SELECT series_id FROM user_unlocked_test_series WHERE user_id = ?`, id); err != nil {
		return domain.User{}, fmt.Errorf("failed to get unlocked test series: %w", err)
	}
	u.SolvedQuestions = domain.NewIDSet(solved...)
	u.UnlockedTestSeries = domain.NewIDSet(unlocked...)
	return u, nil
}
