package app

import (
	"context"
	"fmt"
	"log"

	"aptitude-practice-service/internal/domain"
)

const (
	msgWrongAnswer    = "Wrong Answer!"
	msgAlreadyAwarded = "Correct, but coin already awarded."
)

// PracticeService contains the problem browsing and answer use cases.
type PracticeService struct {
	questions QuestionRepository
	users     UserRepository
	notifier  LeaderboardNotifier
}

func NewPracticeService(questions QuestionRepository, users UserRepository, notifier LeaderboardNotifier) *PracticeService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &PracticeService{questions: questions, users: users, notifier: notifier}
}

// ListProblems returns the problem list, optionally filtered by category (case-insensitive).
func (s *PracticeService) ListProblems(ctx context.Context, category string) ([]domain.QuestionSummary, error) {
	var filter domain.Category
	if category != "" {
		c, ok := domain.ParseCategory(category)
		if !ok {
			return []domain.QuestionSummary{}, nil
		}
		filter = c
	}

	questions, err := s.questions.ListQuestions(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuestionSummary, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Summary())
	}
	return out, nil
}

// Locate fetches a problem by slug together with its previous/next problem in the same category.
func (s *PracticeService) Locate(ctx context.Context, slug string) (domain.ProblemView, error) {
	problem, err := s.questions.GetQuestionBySlug(ctx, slug)
	if err != nil {
		return domain.ProblemView{}, err
	}

	siblings, err := s.questions.ListQuestions(ctx, problem.Category)
	if err != nil {
		return domain.ProblemView{}, err
	}
	if !containsQuestion(siblings, problem.ID) {
		// the cached copy is stale (moved category or re-keyed); resolve against the listing
		problem, siblings, err = s.relocate(ctx, slug)
		if err != nil {
			return domain.ProblemView{}, err
		}
	}
	domain.SortForNavigation(siblings)

	return domain.ProblemView{
		Problem:    problem.Public(),
		Navigation: domain.Navigate(siblings, problem),
	}, nil
}

// relocate finds slug in the uncached listing and returns it with its current category siblings.
func (s *PracticeService) relocate(ctx context.Context, slug string) (domain.Question, []domain.Question, error) {
	all, err := s.questions.ListQuestions(ctx, "")
	if err != nil {
		return domain.Question{}, nil, err
	}
	var (
		problem domain.Question
		found   bool
	)
	for _, q := range all {
		if q.Slug == slug {
			problem, found = q, true
			break
		}
	}
	if !found {
		return domain.Question{}, nil, domain.ErrQuestionNotFound
	}
	siblings := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if q.Category == problem.Category {
			siblings = append(siblings, q)
		}
	}
	return problem, siblings, nil
}

func containsQuestion(questions []domain.Question, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// SubmitAnswer grades the selected option and awards coins once per user and question.
func (s *PracticeService) SubmitAnswer(ctx context.Context, userID, questionID, optionID string) (domain.AnswerResult, error) {
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return domain.AnswerResult{}, err
	}

	correct, err := question.CorrectOption()
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("question %s: %w", question.ID, err)
	}
	selected, ok := question.Option(optionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrOptionNotFound
	}

	if !selected.Correct {
		return domain.AnswerResult{
			Correct:         false,
			Message:         msgWrongAnswer,
			CorrectOptionID: correct.ID,
		}, nil
	}

	coins, err := domain.CoinsFor(question.Difficulty)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("question %s: %w", question.ID, err)
	}

	awarded := false
	updated, err := s.users.UpdateUser(ctx, userID, func(u *domain.User) error {
		if u.SolvedQuestions.Has(question.ID) {
			return nil
		}
		u.Coins += coins
		u.SolvedQuestions.Add(question.ID)
		awarded = true
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if !awarded {
		return domain.AnswerResult{
			Correct:         true,
			Message:         msgAlreadyAwarded,
			CorrectOptionID: correct.ID,
			AlreadyAwarded:  true,
		}, nil
	}

	if _, err := s.notifier.Refresh(ctx); err != nil {
		log.Printf("leaderboard refresh after award failed: %v", err)
	}

	total := updated.Coins
	return domain.AnswerResult{
		Correct:         true,
		Message:         fmt.Sprintf("Correct! You earned %d coins.", coins),
		CorrectOptionID: correct.ID,
		CoinsEarned:     coins,
		NewCoinTotal:    &total,
	}, nil
}
