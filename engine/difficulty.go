package engine

import "fmt"

// Difficulty maps directly onto the search depth in plies.
type Difficulty int

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

func (d Difficulty) Valid() bool { return d >= Easy && d <= Hard }

func (d Difficulty) Depth() int { return int(d) }

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty accepts 1-3 or the names easy/medium/hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "1", "easy":
		return Easy, nil
	case "2", "medium":
		return Medium, nil
	case "3", "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("invalid difficulty %q (want 1-3)", s)
}
