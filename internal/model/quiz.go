package model

// Difficulty tags a question's expected difficulty
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty tags
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// OptionCount is the fixed number of choices per question
const OptionCount = 4

// QuizQuestion is a single validated multiple-choice question.
// CorrectAnswer always equals one of Options.
type QuizQuestion struct {
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`

	// Repaired is set when any field was substituted with a default
	// because the generated object violated the question contract.
	Repaired bool `json:"repaired"`
}

// Valid checks the structural contract of a question
func (q QuizQuestion) Valid() bool {
	if q.Question == "" || len(q.Options) != OptionCount || !q.Difficulty.Valid() {
		return false
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return true
		}
	}
	return false
}

// CountRepaired returns how many questions in a batch were repaired
func CountRepaired(questions []QuizQuestion) int {
	n := 0
	for _, q := range questions {
		if q.Repaired {
			n++
		}
	}
	return n
}
