// Package extract implements the service-free text analysis used by the
// rule-based quiz path: plain-text conversion, sentence splitting and
// vocabulary-driven feature extraction.
package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText returns the visible text of an HTML fragment. Input without
// markup is returned with whitespace collapsed.
func PlainText(htmlContent string) string {
	if !strings.ContainsAny(htmlContent, "<&") {
		return strings.Join(strings.Fields(htmlContent), " ")
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return strings.Join(strings.Fields(htmlContent), " ")
	}
	return strings.TrimSpace(extractVisibleText(doc))
}

// Title returns the text of the document's first <title> element
func Title(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			var buf strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					buf.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(buf.String()), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// SplitSentences splits text on Japanese and Latin sentence terminators
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		switch r {
		case '。', '！', '？':
			flush()
		case '.', '!', '?':
			// Avoid splitting decimals and abbreviations
			next := i + utf8.RuneLen(r)
			if next >= len(text) || text[next] == ' ' || text[next] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
