package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Difficulty grades a question and determines its coin award.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Category is the fixed subject area of a question.
type Category string

const (
	CategoryQuantitative       Category = "Quantitative"
	CategoryLogical            Category = "Logical"
	CategoryVerbal             Category = "Verbal"
	CategoryDataInterpretation Category = "Data Interpretation"
	CategoryAlgorithms         Category = "Algorithms"
	CategoryDatabase           Category = "Database"
)

// Categories lists the enumeration in display order.
var Categories = []Category{
	CategoryQuantitative,
	CategoryLogical,
	CategoryVerbal,
	CategoryDataInterpretation,
	CategoryAlgorithms,
	CategoryDatabase,
}

// ParseCategory matches raw against the enumeration ignoring case.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}

// StatsKey is the short lower-case key used in per-category stats ("data" for Data Interpretation).
func (c Category) StatsKey() string {
	fields := strings.Fields(strings.ToLower(string(c)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Option is one answer choice of a question.
type Option struct {
	ID      string `json:"_id"`
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Acceptance string     `json:"acceptance"`
	Text       string     `json:"questionText"`
	Options    []Option   `json:"options"`
}

// CorrectOption returns the single option flagged correct.
func (q Question) CorrectOption() (Option, error) {
	var (
		found Option
		count int
	)
	for _, opt := range q.Options {
		if opt.Correct {
			found = opt
			count++
		}
	}
	if count != 1 {
		return Option{}, ErrInvalidOptionData
	}
	return found, nil
}

// Option looks up an option by id.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Validate checks the fields a stored question must carry.
func (q Question) Validate() error {
	switch {
	case q.Title == "":
		return ErrInvalidQuestion("missing title")
	case q.Slug == "":
		return ErrInvalidQuestion("missing slug")
	case q.Text == "":
		return ErrInvalidQuestion("missing question text")
	}
	if _, ok := ParseCategory(string(q.Category)); !ok {
		return ErrInvalidQuestion("unknown category " + string(q.Category))
	}
	if _, err := CoinsFor(q.Difficulty); err != nil {
		return ErrInvalidQuestion("unknown difficulty " + string(q.Difficulty))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" || opt.Text == "" {
			return ErrInvalidQuestion("option missing id or text")
		}
		if _, dup := seen[opt.ID]; dup {
			return ErrInvalidQuestion("duplicate option id " + opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	if _, err := q.CorrectOption(); err != nil {
		return ErrInvalidQuestion("exactly one option must be correct")
	}
	return nil
}

// PublicOption is an option without its correctness flag.
type PublicOption struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
}

// PublicQuestion is the question shape served to clients before they answer.
type PublicQuestion struct {
	ID         string         `json:"_id"`
	Title      string         `json:"title"`
	Slug       string         `json:"slug"`
	Category   Category       `json:"category"`
	Difficulty Difficulty     `json:"difficulty"`
	Acceptance string         `json:"acceptance"`
	Text       string         `json:"questionText"`
	Options    []PublicOption `json:"options"`
}

// Public strips correctness flags.
func (q Question) Public() PublicQuestion {
	opts := make([]PublicOption, 0, len(q.Options))
	for _, opt := range q.Options {
		opts = append(opts, PublicOption{ID: opt.ID, Text: opt.Text})
	}
	return PublicQuestion{
		ID:         q.ID,
		Title:      q.Title,
		Slug:       q.Slug,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Acceptance: q.Acceptance,
		Text:       q.Text,
		Options:    opts,
	}
}

// QuestionSummary is a problem-list row.
type QuestionSummary struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Difficulty Difficulty `json:"difficulty"`
	Acceptance string     `json:"acceptance"`
	Category   Category   `json:"category"`
}

// Summary projects q to a list row.
func (q Question) Summary() QuestionSummary {
	return QuestionSummary{
		ID:         q.ID,
		Title:      q.Title,
		Slug:       q.Slug,
		Difficulty: q.Difficulty,
		Acceptance: q.Acceptance,
		Category:   q.Category,
	}
}

// IDSet is an unordered set of ids. It marshals as a sorted JSON array.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether it was absent.
func (s IDSet) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s IDSet) Len() int { return len(s) }

// Slice returns the members sorted.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Diff returns the ids present in s but not in other.
func (s IDSet) Diff(other IDSet) []string {
	var out []string
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// User is a player account. PasswordHash never leaves the service.
type User struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Coins              int       `json:"coins"`
	SolvedQuestions    IDSet     `json:"solvedQuestions"`
	UnlockedTestSeries IDSet     `json:"unlockedTestSeries"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Clone deep-copies the sets so mutations on the copy stay local.
func (u User) Clone() User {
	u.SolvedQuestions = u.SolvedQuestions.Clone()
	u.UnlockedTestSeries = u.UnlockedTestSeries.Clone()
	return u
}

// TestSeries is a priced bundle of questions.
type TestSeries struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CostInCoins int      `json:"costInCoins"`
	QuestionIDs []string `json:"questions"`
}

// AnswerResult summarizes the outcome of a submission.
type AnswerResult struct {
	Correct         bool   `json:"correct"`
	Message         string `json:"message"`
	CorrectOptionID string `json:"correctAnswerId"`
	AlreadyAwarded  bool   `json:"alreadyAwarded,omitempty"`
	CoinsEarned     int    `json:"coinsEarned,omitempty"`
	NewCoinTotal    *int   `json:"newCoinTotal,omitempty"`
}

// UnlockResult is returned after a successful unlock.
type UnlockResult struct {
	Message      string `json:"message"`
	NewCoinTotal int    `json:"newCoinTotal"`
}

// Navigation holds the adjacent slugs within a category; nil at either end.
type Navigation struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// ProblemView is a single problem with its category neighbours.
type ProblemView struct {
	Problem    PublicQuestion `json:"problem"`
	Navigation Navigation     `json:"navigation"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID string `json:"_id"`
	Name   string `json:"name"`
	Coins  int    `json:"coins"`
}

// Leaderboard is a ranked snapshot.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CategoryCount is the per-category tally used by stats.
type CategoryCount struct {
	Solved int `json:"solved"`
	Total  int `json:"total"`
}

// CategoryStats adds the rounded completion percentage.
type CategoryStats struct {
	Solved     int `json:"solved"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// UserStats is the progress summary for one user.
type UserStats struct {
	Coins int                      `json:"coins"`
	Stats map[string]CategoryStats `json:"stats"`
}
