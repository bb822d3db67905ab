package analyze

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
)

const systemPrompt = `You are an analyst who reads internal company documents and extracts their actual content for employee training.
Respond with a single JSON object and nothing else.`

var typeLabels = map[model.DocumentType]string{
	model.DocumentPolicy: "internal policy",
	model.DocumentNews:   "news article",
	model.DocumentManual: "manual",
}

// BuildPrompt renders the analysis instruction for a document. Only the
// first limit runes of the text are embedded.
func BuildPrompt(doc model.SourceDocument, limit int) string {
	label, ok := typeLabels[doc.DocumentType]
	if !ok {
		label = string(doc.DocumentType)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s and extract what it actually says.\n\n", label)
	fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	fmt.Fprintf(&b, "Document type: %s\n\n", doc.DocumentType)
	b.WriteString("Content:\n")
	b.WriteString(extract.Truncate(doc.RawText, limit))
	b.WriteString("\n\n")

	b.WriteString(`Return ONLY a JSON object with exactly these fields:
{
  "summary": "a short summary of the document",
  "keyPoints": ["the main points stated in the document"],
  "importantConcepts": ["terms, rules or concepts the document defines"],
  "procedures": ["steps or procedures the document describes"],
  "responsibilities": ["who is responsible for what"],
  "compliance": ["obligations, prohibitions and compliance requirements"]
}

Rules:
- Extract the document's concrete content (names, numbers, deadlines, rules). Do not write generic boilerplate.
- Use these field names for every document type. If a field does not apply (for example procedures in a news article), return an empty list.
- Write the values in the same language as the document.
`)
	return b.String()
}
