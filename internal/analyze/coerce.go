package analyze

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
)

// Coerce converts a decoded reply object into a DocumentAnalysis. Fields that
// are absent, of the wrong type, or empty get a one-element placeholder list.
func Coerce(obj map[string]any, ph extract.Placeholders) model.DocumentAnalysis {
	return model.DocumentAnalysis{
		Summary:           stringField(obj, "summary", ph.Summary),
		KeyPoints:         listField(obj, "keyPoints", ph.KeyPoints),
		ImportantConcepts: listField(obj, "importantConcepts", ph.Concepts),
		Procedures:        listField(obj, "procedures", ph.Procedures),
		Responsibilities:  listField(obj, "responsibilities", ph.Responsibilities),
		Compliance:        listField(obj, "compliance", ph.Compliance),
	}
}

func stringField(obj map[string]any, key, placeholder string) string {
	s, ok := obj[key].(string)
	if !ok {
		return placeholder
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder
	}
	return s
}

func listField(obj map[string]any, key, placeholder string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return []string{placeholder}
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case float64, bool:
			out = append(out, fmt.Sprint(v))
		default:
			// nested objects, arrays and nulls carry no usable text
		}
	}
	if len(out) == 0 {
		return []string{placeholder}
	}
	return out
}

// FromFeatures derives an analysis from rule-based extraction results
func FromFeatures(text string, f model.TextFeatures, ph extract.Placeholders) model.DocumentAnalysis {
	summary := ph.Summary
	if sentences := extract.SplitSentences(text); len(sentences) > 0 {
		summary = sentences[0]
	}

	orPlaceholder := func(list []string, placeholder string) []string {
		if len(list) == 0 {
			return []string{placeholder}
		}
		return append([]string(nil), list...)
	}

	return model.DocumentAnalysis{
		Summary:           summary,
		KeyPoints:         orPlaceholder(f.Keywords, ph.KeyPoints),
		ImportantConcepts: orPlaceholder(f.Topics, ph.Concepts),
		Procedures:        []string{ph.Procedures},
		Responsibilities:  orPlaceholder(f.Roles, ph.Responsibilities),
		Compliance:        []string{ph.Compliance},
	}
}
