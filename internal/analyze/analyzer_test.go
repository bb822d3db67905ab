package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/llm"
	"github.com/ppiankov/docquiz/internal/llm/llmtest"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/retry"
)

var testDoc = model.SourceDocument{
	ID:           "doc-1",
	Title:        "情報セキュリティ規程",
	DocumentType: model.DocumentPolicy,
	RawText: "すべての従業員は、パスワードを90日ごとに変更しなければならない。" +
		"セキュリティ事故を発見した場合、24時間以内に情報システム部の責任者へ報告する。",
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestAnalyzer(p llm.Provider, rec *sleepRecorder) *Analyzer {
	opts := DefaultOptions()
	opts.Policy.Sleep = rec.sleep
	return New(p, nil, opts, nil)
}

const fullReply = `Here is the analysis:
{
  "summary": "パスワード管理と事故報告のルール",
  "keyPoints": ["パスワードは90日ごとに変更"],
  "importantConcepts": ["セキュリティ事故"],
  "procedures": ["事故を発見したら24時間以内に報告"],
  "responsibilities": ["情報システム部の責任者が報告を受ける"],
  "compliance": ["パスワード変更は義務"]
}`

func TestAnalyze_Success(t *testing.T) {
	rec := &sleepRecorder{}
	p := llmtest.Text(fullReply)
	a := newTestAnalyzer(p, rec)

	got, err := a.Analyze(context.Background(), testDoc)
	require.NoError(t, err)

	assert.Equal(t, "パスワード管理と事故報告のルール", got.Summary)
	assert.Equal(t, []string{"事故を発見したら24時間以内に報告"}, got.Procedures)
	assert.Equal(t, 1, p.Calls())
	assert.Empty(t, rec.delays)

	req := p.Requests()[0]
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)
	assert.Equal(t, 2000, req.MaxTokens)
	assert.Contains(t, req.Prompt, testDoc.Title)
	assert.Contains(t, req.Prompt, "internal policy")
	assert.Contains(t, req.Prompt, "procedures")
	assert.NotEmpty(t, req.System)
}

func TestAnalyze_MissingFieldGetsPlaceholder(t *testing.T) {
	reply := `{"summary":"s","keyPoints":["k"],"importantConcepts":["c"],"responsibilities":["r"],"compliance":["x"]}`
	a := newTestAnalyzer(llmtest.Text(reply), &sleepRecorder{})

	got, err := a.Analyze(context.Background(), testDoc)
	require.NoError(t, err)

	require.Len(t, got.Procedures, 1)
	assert.Equal(t, extract.DefaultVocabulary().Catalog.Placeholders.Procedures, got.Procedures[0])
	assert.Equal(t, []string{"k"}, got.KeyPoints)
}

func TestAnalyze_MalformedJSONExhaustsRetries(t *testing.T) {
	rec := &sleepRecorder{}
	p := llmtest.Text(`{"summary": "unterminated`)
	a := newTestAnalyzer(p, rec)

	got, err := a.Analyze(context.Background(), testDoc)
	require.Error(t, err)
	assert.Nil(t, got)

	var analysisErr *AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, 3, analysisErr.Attempts)
	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
	assert.ErrorIs(t, err, llm.ErrNoFragment)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestAnalyze_RecoversAfterTransientFailure(t *testing.T) {
	rec := &sleepRecorder{}
	p := llmtest.New(
		llmtest.Reply{Err: errors.New("API error (503): overloaded")},
		llmtest.Reply{Text: "no json here"},
		llmtest.Reply{Text: fullReply},
	)
	a := newTestAnalyzer(p, rec)

	got, err := a.Analyze(context.Background(), testDoc)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Summary)
	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestAnalyze_PromptTruncatesText(t *testing.T) {
	opts := DefaultOptions()
	opts.PromptLength = 10
	p := llmtest.Text(fullReply)
	a := New(p, nil, opts, nil)

	doc := testDoc
	doc.RawText = strings.Repeat("あ", 10) + strings.Repeat("い", 50)
	_, err := a.Analyze(context.Background(), doc)
	require.NoError(t, err)

	prompt := p.Requests()[0].Prompt
	assert.Contains(t, prompt, strings.Repeat("あ", 10))
	assert.NotContains(t, prompt, "い")
}

func TestAnalyze_NoProvider(t *testing.T) {
	a := New(nil, nil, DefaultOptions(), nil)
	assert.False(t, a.HasProvider())

	_, err := a.Analyze(context.Background(), testDoc)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestAnalyze_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := llmtest.Text(fullReply)
	a := newTestAnalyzer(p, &sleepRecorder{})

	_, err := a.Analyze(ctx, testDoc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_TransitionsForwarded(t *testing.T) {
	var seen []retry.State
	opts := DefaultOptions()
	opts.Policy.Sleep = (&sleepRecorder{}).sleep
	opts.Policy.OnTransition = func(tr retry.Transition) { seen = append(seen, tr.To) }

	a := New(llmtest.New(llmtest.Reply{Text: "nope"}, llmtest.Reply{Text: fullReply}), nil, opts, nil)
	_, err := a.Analyze(context.Background(), testDoc)
	require.NoError(t, err)
	assert.Equal(t, []retry.State{retry.StateAttempting, retry.StateSucceeded}, seen)
}

func TestFallback_DerivesAnalysis(t *testing.T) {
	a := New(nil, nil, DefaultOptions(), nil)

	analysis, features := a.Fallback(testDoc)

	assert.Equal(t, "すべての従業員は、パスワードを90日ごとに変更しなければならない。", analysis.Summary)
	assert.Equal(t, []string{"90日", "24時間"}, features.Numbers)
	assert.Equal(t, features.Roles, analysis.Responsibilities)
	for _, list := range [][]string{
		analysis.KeyPoints, analysis.ImportantConcepts, analysis.Procedures,
		analysis.Responsibilities, analysis.Compliance,
	} {
		assert.NotEmpty(t, list)
	}
}
