package quiz

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
)

// Fallback is the rule-based question generator. Output depends only on
// its input: there is no randomness.
type Fallback struct {
	rules          *extract.Analyzer
	shortThreshold int
}

// NewFallback creates a rule-based generator. Text of at most shortThreshold
// runes gets the fixed short-content questions.
func NewFallback(rules *extract.Analyzer, shortThreshold int) *Fallback {
	if rules == nil {
		rules = extract.NewAnalyzer(nil)
	}
	return &Fallback{rules: rules, shortThreshold: shortThreshold}
}

// IsShort reports whether text takes the short-content path
func (f *Fallback) IsShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) <= f.shortThreshold
}

// Generate builds the question batch for a document's text
func (f *Fallback) Generate(title, text string) []model.QuizQuestion {
	if f.IsShort(text) {
		return f.ShortContent()
	}
	return f.FromFeatures(title, f.rules.Features(text))
}

// ShortContent returns the fixed purpose, scope and importance questions
func (f *Fallback) ShortContent() []model.QuizQuestion {
	entries := f.rules.Vocabulary().Catalog.ShortContent
	out := make([]model.QuizQuestion, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToQuestion())
	}
	return out
}

// FromFeatures emits, in order: the keyword question (if any keywords),
// the number question (if any numbers), procedure adherence, violation
// reporting, the role question (if any roles) and periodic review.
func (f *Fallback) FromFeatures(title string, features model.TextFeatures) []model.QuizQuestion {
	c := f.rules.Vocabulary().Catalog
	if strings.TrimSpace(title) == "" {
		title = c.Placeholders.Untitled
	}

	var out []model.QuizQuestion
	if len(features.Keywords) > 0 {
		out = append(out, slotQuestion(c.Keyword, title, features.Keywords[0], len(out)))
	}
	if len(features.Numbers) > 0 {
		out = append(out, slotQuestion(c.Number, title, features.Numbers[0], len(out)))
	}
	out = append(out, c.ProcedureAdherence.ToQuestion())
	out = append(out, c.ViolationReporting.ToQuestion())
	if len(features.Roles) > 0 {
		out = append(out, slotQuestion(c.Role, title, features.Roles[0], len(out)))
	}
	out = append(out, c.PeriodicReview.ToQuestion())
	return out
}

// slotQuestion places answer among the slot's distractors. The answer's
// position rotates with the slot index so answers are not always first.
func slotQuestion(slot extract.SlotText, title, answer string, index int) model.QuizQuestion {
	distractors := make([]string, 0, model.OptionCount-1)
	for _, d := range slot.Distractors {
		if d == answer {
			continue
		}
		distractors = append(distractors, d)
		if len(distractors) == model.OptionCount-1 {
			break
		}
	}

	pos := index % model.OptionCount
	if pos > len(distractors) {
		pos = len(distractors)
	}
	options := make([]string, 0, model.OptionCount)
	options = append(options, distractors[:pos]...)
	options = append(options, answer)
	options = append(options, distractors[pos:]...)

	return model.QuizQuestion{
		Question:      fill(slot.Question, title),
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   fill(slot.Explanation, answer),
		Difficulty:    model.Difficulty(slot.Difficulty),
	}
}

// fill substitutes value into template when it has a %s verb
func fill(template, value string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, value)
	}
	return template
}
