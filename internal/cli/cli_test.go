package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/pipeline"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"policy-pol-001", "policy-pol-001"},
		{"news-https://example.com/a b", "news-https___example.com_a-b"},
		{"manual-..", "manual-"},
		{"..", "document"},
		{"  ", "document"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}

	long := sanitizeFilename(strings.Repeat("規", 60))
	assert.LessOrEqual(t, len(long), 100)
	assert.True(t, strings.HasPrefix(strings.Repeat("規", 60), long), "cut must fall on a rune boundary")
}

func TestNewStoredDocument(t *testing.T) {
	html := "<html><head><title>週報</title></head><body><p>本文です。</p></body></html>"

	news := newStoredDocument("n1", model.DocumentNews, "", "weekly.html", html)
	assert.Equal(t, "週報", news.Title)
	assert.Equal(t, html, news.Summary, "news summaries keep their markup")

	policy := newStoredDocument("p1", model.DocumentPolicy, "", "rules.html", html)
	assert.Equal(t, "本文です。", strings.TrimSpace(strings.TrimPrefix(policy.ExtractedText, "週報")))
	assert.Empty(t, policy.Summary)

	manual := newStoredDocument("m1", model.DocumentManual, "手順", "steps.txt", "手順の本文")
	assert.Equal(t, "手順", manual.Title)
	assert.Equal(t, "手順の本文", manual.Question)

	untitled := newStoredDocument("m2", model.DocumentManual, "", "dir/steps.txt", "x")
	assert.Equal(t, "steps", untitled.Title)
}

func TestReadDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("従業員は毎年研修を受講する。"), 0o644))

	doc, err := readDocumentFile(path, "", "Manual")
	require.NoError(t, err)
	assert.Equal(t, "handbook.txt", doc.ID)
	assert.Equal(t, "handbook", doc.Title)
	assert.Equal(t, model.DocumentManual, doc.DocumentType)
	assert.Equal(t, "従業員は毎年研修を受講する。", doc.RawText)

	_, err = readDocumentFile(filepath.Join(dir, "missing.txt"), "", "manual")
	assert.Error(t, err)
}

func TestPrepareRun(t *testing.T) {
	t.Cleanup(func() { inputFile, inputURL, docType = "", "", "" })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cfg := model.DefaultConfig()

	_, _, _, err := prepareRun(cmd, cfg, logging.Nop(), nil)
	assert.Error(t, err, "no source selected")

	inputURL = "https://example.com/a"
	_, _, _, err = prepareRun(cmd, cfg, logging.Nop(), []string{"id-1"})
	assert.Error(t, err, "two sources selected")

	src, req, cleanup, err := prepareRun(cmd, cfg, logging.Nop(), nil)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &pipeline.URLSource{}, src)
	assert.Equal(t, "https://example.com/a", req.DocumentID)
	assert.Equal(t, "news", req.DocumentType)

	inputURL = ""
	inputFile = filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(inputFile, []byte("本文"), 0o644))
	src, req, _, err = prepareRun(cmd, cfg, logging.Nop(), nil)
	require.NoError(t, err)
	assert.IsType(t, pipeline.TextSource{}, src)
	assert.Equal(t, "doc.txt", req.DocumentID)
	assert.Equal(t, "manual", req.DocumentType)
}

const handbookText = "情報セキュリティ規程。すべての従業員は、パスワードを90日ごとに変更しなければならない。" +
	"セキュリティ事故を発見した場合、従業員は24時間以内に情報システム部の責任者へ報告する。" +
	"責任者は報告内容を監査し、年2回の点検結果を管理者に共有する。"

// runCLI executes the root command with args against an empty home
// directory and resets the package-level flag state afterwards
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCQUIZ_LLM_PROVIDER", "")
	t.Cleanup(func() {
		docType, inputFile, inputURL, inputTitle, outJSON, outMD = "", "", "", "", "", ""
		offline = false
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func readResult(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func TestGenerateCommand_OfflineFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "security.txt")
	require.NoError(t, os.WriteFile(input, []byte(handbookText), 0o644))
	out := filepath.Join(dir, "quiz.json")
	md := filepath.Join(dir, "quiz.md")

	err := runCLI(t, "generate", "--file", input, "--type", "policy", "--offline", "--json", out, "--md", md)
	require.NoError(t, err)

	res := readResult(t, out)
	assert.Equal(t, true, res["ok"])
	assert.Equal(t, "fallback", res["mode"])
	assert.Equal(t, "security.txt", res["documentId"])
	assert.Equal(t, "policy", res["documentType"])
	assert.NotEmpty(t, res["questions"])

	sheet, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(sheet), "security")
}

func TestGenerateCommand_ShortContentFails(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(input, []byte("短いメモ。"), 0o644))
	out := filepath.Join(dir, "quiz.json")

	err := runCLI(t, "generate", "--file", input, "--offline", "--json", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed (input)")

	res := readResult(t, out)
	assert.Equal(t, false, res["ok"])
	assert.Equal(t, "input", res["errorKind"])
	assert.Equal(t, []any{}, res["questions"])
}

func TestGenerateCommand_NeedsOneSource(t *testing.T) {
	err := runCLI(t, "generate", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestRunConfigChecks(t *testing.T) {
	var tags atomic.Int32
	tags.Store(http.StatusOK)
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(int(tags.Load()))
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer ollama.Close()

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = ollama.URL
	cfg.Store.DSN = filepath.Join(t.TempDir(), "docs.db")

	var out bytes.Buffer
	assert.Equal(t, 0, runConfigChecks(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "✓ generation service")
	assert.Contains(t, out.String(), "ollama is reachable")
	assert.Contains(t, out.String(), "✓ document store")

	tags.Store(http.StatusInternalServerError)
	cfg.VocabularyFile = filepath.Join(t.TempDir(), "missing.yaml")
	out.Reset()
	assert.Equal(t, 2, runConfigChecks(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "✗ generation service")
	assert.Contains(t, out.String(), "✗ vocabulary")

	cfg.LLM.Provider = ""
	cfg.VocabularyFile = ""
	out.Reset()
	assert.Equal(t, 0, runConfigChecks(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "disabled, rule-based questions only")
}
