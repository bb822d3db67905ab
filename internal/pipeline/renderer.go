package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Renderer writes run results to files and terminals
type Renderer struct {
	indent bool
}

// NewRenderer creates a renderer; indent pretty-prints JSON output
func NewRenderer(indent bool) *Renderer {
	return &Renderer{indent: indent}
}

// RenderJSON writes v as JSON to path, creating parent directories
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := r.marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteJSON writes v as JSON to w
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	data, err := r.marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (r *Renderer) marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if r.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderMarkdown writes the question batch as a Markdown quiz sheet
func (r *Renderer) RenderMarkdown(res Result, path string) error {
	return writeFile(path, []byte(Markdown(res)))
}

// Markdown formats a result as a Markdown quiz sheet with an answer key
func Markdown(res Result) string {
	var b strings.Builder

	title := res.Title
	if title == "" {
		title = res.DocumentID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if res.Analysis != nil && res.Analysis.Summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", res.Analysis.Summary)
	}

	for i, q := range res.Questions {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+j, opt)
		}
		b.WriteString("\n")
	}

	if len(res.Questions) > 0 {
		b.WriteString("---\n\n## Answers\n\n")
		for i, q := range res.Questions {
			fmt.Fprintf(&b, "%d. **%s** (%s): %s\n", i+1, q.CorrectAnswer, q.Difficulty, q.Explanation)
		}
	}

	return b.String()
}

// RenderSummary prints a short human-readable run summary to w
func (r *Renderer) RenderSummary(w io.Writer, res Result) {
	if !res.OK {
		fmt.Fprintf(w, "✗ %s (%s): %s\n", res.DocumentID, res.ErrorKind, res.Error)
		return
	}

	fmt.Fprintf(w, "✓ %s: %d questions via %s", res.DocumentID, len(res.Questions), res.Mode)
	if res.RepairedCount > 0 {
		fmt.Fprintf(w, " (%d repaired)", res.RepairedCount)
	}
	fmt.Fprintln(w)

	for i, q := range res.Questions {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, q.Difficulty, q.Question)
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
