package domain

import "fmt"

var coinAwards = map[Difficulty]int{
	DifficultyEasy:   10,
	DifficultyMedium: 15,
	DifficultyHard:   25,
}

// CoinsFor returns the award for solving a question of difficulty d.
// Unmapped difficulties fail rather than award nothing.
func CoinsFor(d Difficulty) (int, error) {
	coins, ok := coinAwards[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, string(d))
	}
	return coins, nil
}
