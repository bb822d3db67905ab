package quiz

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docquiz/internal/model"
)

const systemPrompt = `You write multiple-choice quizzes that check whether employees understood a specific internal document.
Respond with a JSON array and nothing else.`

// BuildPrompt renders the synthesis instruction for an analysis
func BuildPrompt(title string, analysis model.DocumentAnalysis, docType model.DocumentType, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create exactly %d quiz questions about the following document.\n\n", count)
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Document type: %s\n\n", docType)

	fmt.Fprintf(&b, "Summary:\n%s\n\n", analysis.Summary)
	writeList(&b, "Key points", analysis.KeyPoints)
	writeList(&b, "Important concepts", analysis.ImportantConcepts)
	writeList(&b, "Procedures", analysis.Procedures)
	writeList(&b, "Responsibilities", analysis.Responsibilities)
	writeList(&b, "Compliance requirements", analysis.Compliance)

	fmt.Fprintf(&b, `Return ONLY a JSON array of %d objects shaped like this:
[
  {
    "question": "question text",
    "options": ["option 1", "option 2", "option 3", "option 4"],
    "correctAnswer": "the exact text of the correct option",
    "explanation": "why this answer is correct, citing the document",
    "difficulty": "easy | medium | hard"
  }
]

Rules:
- Every question has exactly 4 options and correctAnswer is copied verbatim from options.
- Ask about this document's concrete content. Explanations must reference what the document says, not generic policy language.
- Mix difficulties.
- Write in the same language as the document.
`, count)

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
