package domain

import "errors"

var (
	// ErrQuestionNotFound is returned for an unknown question id or slug.
	ErrQuestionNotFound = errors.New("problem not found")
	// ErrUserNotFound is returned for an unknown user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrTestSeriesNotFound is returned for an unknown test series id.
	ErrTestSeriesNotFound = errors.New("test series not found")
	// ErrOptionNotFound indicates a submitted option id is not part of the question.
	ErrOptionNotFound = errors.New("invalid option selected")
	// ErrInvalidOptionData means the stored question does not have exactly one correct option.
	ErrInvalidOptionData = errors.New("invalid option data in database")
	// ErrUnknownDifficulty is returned when a difficulty has no coin award.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrAlreadyUnlocked rejects a second unlock of the same series.
	ErrAlreadyUnlocked = errors.New("you have already unlocked this test")
	// ErrInsufficientFunds rejects an unlock the balance cannot cover.
	ErrInsufficientFunds = errors.New("not enough coins")
	// ErrInvalidInput marks malformed request input.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrInvalidQuestion wraps a question validation failure.
func ErrInvalidQuestion(reason string) error {
	return &QuestionError{Reason: reason}
}

// QuestionError reports why a question failed validation.
type QuestionError struct {
	Reason string
}

func (e *QuestionError) Error() string { return "invalid question: " + e.Reason }

// Unwrap lets callers test for ErrInvalidInput.
func (e *QuestionError) Unwrap() error { return ErrInvalidInput }

// IsNotFound reports whether err is one of the missing-entity sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTestSeriesNotFound)
}

// IsInvalidInput reports whether err stems from bad input or inconsistent question data.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrOptionNotFound) ||
		errors.Is(err, ErrInvalidOptionData) ||
		errors.Is(err, ErrUnknownDifficulty) ||
		errors.Is(err, ErrInvalidInput)
}
