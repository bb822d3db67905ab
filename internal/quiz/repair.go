package quiz

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
)

// Repair converts one decoded question object into a structurally valid
// QuizQuestion. n is the 1-based position used for a missing question text.
// Any substituted default sets Repaired.
func Repair(obj map[string]any, n int, ph extract.Placeholders) model.QuizQuestion {
	var q model.QuizQuestion

	if s, ok := nonEmptyString(obj["question"]); ok {
		q.Question = s
	} else {
		q.Question = fmt.Sprintf(ph.Question, n)
		q.Repaired = true
	}

	if opts, ok := fourOptions(obj["options"]); ok {
		q.Options = opts
	} else {
		q.Options = append([]string(nil), ph.Options...)
		q.Repaired = true
	}

	q.CorrectAnswer = q.Options[0]
	if s, ok := nonEmptyString(obj["correctAnswer"]); ok && contains(q.Options, s) {
		q.CorrectAnswer = s
	} else {
		q.Repaired = true
	}

	if s, ok := nonEmptyString(obj["explanation"]); ok {
		q.Explanation = s
	} else {
		q.Explanation = ph.Explanation
		q.Repaired = true
	}

	q.Difficulty = model.DifficultyMedium
	if s, ok := nonEmptyString(obj["difficulty"]); ok && model.Difficulty(strings.ToLower(s)).Valid() {
		q.Difficulty = model.Difficulty(strings.ToLower(s))
	} else {
		q.Repaired = true
	}

	return q
}

// Placeholder is the fully defaulted question at position n
func Placeholder(n int, ph extract.Placeholders) model.QuizQuestion {
	return Repair(map[string]any{}, n, ph)
}

// RepairBatch repairs every object and fits the batch to exactly count
// questions: extra questions are dropped, missing ones are placeholders.
func RepairBatch(items []map[string]any, count int, ph extract.Placeholders) []model.QuizQuestion {
	out := make([]model.QuizQuestion, 0, count)
	for i := 0; i < count; i++ {
		if i < len(items) {
			out = append(out, Repair(items[i], i+1, ph))
		} else {
			out = append(out, Placeholder(i+1, ph))
		}
	}
	return out
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// fourOptions accepts only an array of exactly four non-empty strings
func fourOptions(v any) ([]string, bool) {
	raw, ok := v.([]any)
	if !ok || len(raw) != model.OptionCount {
		return nil, false
	}
	opts := make([]string, 0, model.OptionCount)
	for _, item := range raw {
		s, ok := nonEmptyString(item)
		if !ok {
			return nil, false
		}
		opts = append(opts, s)
	}
	return opts, true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
