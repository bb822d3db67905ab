package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/pipeline"
)

// mockGenerator implements Generator
type mockGenerator struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (m *mockGenerator) Run(ctx context.Context, req pipeline.Request) pipeline.Result {
	m.calls.Add(1)
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.fail[req.DocumentID] {
		return pipeline.Result{
			DocumentID: req.DocumentID,
			Questions:  []model.QuizQuestion{},
			Error:      "content length 9 is below the minimum of 50 characters",
			ErrorKind:  pipeline.KindInput,
		}
	}
	mode := pipeline.ModeAI
	if req.Offline {
		mode = pipeline.ModeFallback
	}
	return pipeline.Result{
		OK:         true,
		DocumentID: req.DocumentID,
		Mode:       mode,
		Questions:  make([]model.QuizQuestion, 5),
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessRequests(t *testing.T) {
	gen := &mockGenerator{fail: map[string]bool{"m-2": true}}
	processor := NewBatchProcessor(gen, 2)

	reqs := []pipeline.Request{
		{DocumentID: "p-1", DocumentType: "policy"},
		{DocumentID: "m-2", DocumentType: "manual"},
		{DocumentID: "n-3", DocumentType: "news"},
	}

	results := processor.ProcessRequests(context.Background(), reqs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.DocumentID != reqs[i].DocumentID {
			t.Errorf("result %d is for %s, expected %s", i, res.DocumentID, reqs[i].DocumentID)
		}
	}
	if !results[0].OK || results[1].OK || !results[2].OK {
		t.Errorf("unexpected outcomes: %v %v %v", results[0].OK, results[1].OK, results[2].OK)
	}

	summary := Summarize(results)
	if summary.OK != 2 || summary.Failed != 1 || summary.ByKind["input"] != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestBatchProcessor_ProcessRequests_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockGenerator{}, 2)

	results := processor.ProcessRequests(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	gen := &mockGenerator{}
	processor := NewBatchProcessor(gen, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reqs := []pipeline.Request{
		{DocumentID: "a", DocumentType: "policy"},
		{DocumentID: "b", DocumentType: "policy"},
	}
	results := processor.ProcessRequests(ctx, reqs)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.OK {
			t.Errorf("expected %s to fail after cancel", res.DocumentID)
		}
		if res.Questions == nil {
			t.Errorf("expected non-nil questions for %s", res.DocumentID)
		}
	}
}

func TestGenerateResult_GetError(t *testing.T) {
	ok := &GenerateResult{Result: pipeline.Result{OK: true}}
	if ok.GetError() != nil {
		t.Errorf("expected nil error, got %v", ok.GetError())
	}

	failed := &GenerateResult{Result: pipeline.Result{Error: "boom", ErrorKind: pipeline.KindTransient}}
	if got := failed.GetError(); got == nil || got.Error() != "transient: boom" {
		t.Errorf("unexpected error: %v", got)
	}
}

func TestReadRequestsFromFile(t *testing.T) {
	path := writeTemp(t, `doc-1 policy
# comment
doc-2

doc-3   news
doc-1 POLICY
doc-1 manual`)

	reqs, err := ReadRequestsFromFile(path, "manual")
	if err != nil {
		t.Fatalf("ReadRequestsFromFile failed: %v", err)
	}

	expected := []pipeline.Request{
		{DocumentID: "doc-1", DocumentType: "policy"},
		{DocumentID: "doc-2", DocumentType: "manual"},
		{DocumentID: "doc-3", DocumentType: "news"},
		{DocumentID: "doc-1", DocumentType: "manual"},
	}
	if len(reqs) != len(expected) {
		t.Fatalf("expected %d requests, got %d: %+v", len(expected), len(reqs), reqs)
	}
	for i, req := range reqs {
		if req != expected[i] {
			t.Errorf("request %d: expected %+v, got %+v", i, expected[i], req)
		}
	}
}

func TestReadRequestsFromFile_Errors(t *testing.T) {
	if _, err := ReadRequestsFromFile("non_existent_file.txt", "policy"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}

	if _, err := ReadRequestsFromFile(writeTemp(t, "doc-1 policy extra\n"), "policy"); err == nil {
		t.Error("expected error for a line with three fields")
	}

	if _, err := ReadRequestsFromFile(writeTemp(t, "doc-1\n"), ""); err == nil {
		t.Error("expected error when no type is available")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "doc-1 policy\ndoc-2 news\n# comment\n\ndoc-3 manual\n")

	gen := &mockGenerator{}
	processor := NewBatchProcessor(gen, 2)

	results, err := processor.ProcessFile(context.Background(), path, "", true)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Mode != pipeline.ModeFallback {
			t.Errorf("expected offline requests for %s", res.DocumentID)
		}
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockGenerator{}, 2)

	results, err := processor.ProcessFile(context.Background(), writeTemp(t, ""), "policy", false)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}

func TestBatchProcessor_WithPipeline(t *testing.T) {
	src := pipeline.NewTextSource(model.SourceDocument{
		ID:           "pol-1",
		Title:        "規程",
		DocumentType: model.DocumentPolicy,
		RawText:      "すべての従業員は、パスワードを90日ごとに変更しなければならない。違反を発見した場合は責任者へ報告する。",
	})
	p := pipeline.NewPipeline(model.DefaultConfig(), src)

	results := NewBatchProcessor(p, 2).ProcessRequests(context.Background(), []pipeline.Request{
		{DocumentID: "pol-1", DocumentType: "policy"},
		{DocumentID: "missing", DocumentType: "policy"},
	})

	if !results[0].OK || results[0].Mode != pipeline.ModeFallback {
		t.Errorf("expected rule-based success, got %+v", results[0])
	}
	if results[1].OK || results[1].ErrorKind != pipeline.KindInput {
		t.Errorf("expected input error, got %+v", results[1])
	}
}
