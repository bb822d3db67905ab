package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/docquiz/internal/model"
)

func sampleResult() Result {
	return Result{
		OK:         true,
		RunID:      uuid.New(),
		DocumentID: "pol-1",
		Title:      "パスワード規程",
		Mode:       ModeAI,
		Analysis:   &model.DocumentAnalysis{Summary: "パスワード管理の規程"},
		Questions: []model.QuizQuestion{{
			Question:      "変更頻度は？",
			Options:       []string{"30日", "60日", "90日", "180日"},
			CorrectAnswer: "90日",
			Explanation:   "規程による。",
			Difficulty:    model.DifficultyEasy,
			Repaired:      true,
		}},
		RepairedCount: 1,
	}
}

func TestRenderer_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "quiz.json")
	require.NoError(t, NewRenderer(true).RenderJSON(sampleResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, "ai", decoded["mode"])
	assert.EqualValues(t, 1, decoded["repairedCount"])
	assert.NotContains(t, decoded, "error")
}

func TestRenderer_FailedResultKeepsEmptyQuestions(t *testing.T) {
	var buf bytes.Buffer
	res := FailedResult(uuid.New(), ErrInput)
	require.NoError(t, NewRenderer(false).WriteJSON(&buf, res))
	assert.Contains(t, buf.String(), `"questions":[]`)
	assert.Contains(t, buf.String(), `"errorKind":"input"`)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResult())
	assert.Contains(t, md, "# パスワード規程")
	assert.Contains(t, md, "> パスワード管理の規程")
	assert.Contains(t, md, "C. 90日")
	assert.Contains(t, md, "1. **90日** (easy)")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(false)

	r.RenderSummary(&buf, sampleResult())
	assert.Contains(t, buf.String(), "1 questions via ai (1 repaired)")

	buf.Reset()
	r.RenderSummary(&buf, Result{DocumentID: "x", Error: "boom", ErrorKind: KindTransient})
	assert.Contains(t, buf.String(), "✗ x (transient): boom")
}
