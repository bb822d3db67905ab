package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/docquiz/internal/pipeline"
)

// Generator runs one generation request
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// GenerateJob generates the question batch for one document
type GenerateJob struct {
	Request   pipeline.Request
	Generator Generator
}

// Execute executes the generation job
func (j *GenerateJob) Execute(ctx context.Context) Result {
	return &GenerateResult{Result: j.Generator.Run(ctx, j.Request)}
}

// GenerateResult represents the result of a generation job
type GenerateResult struct {
	pipeline.Result
}

// GetError returns the run's failure, or nil when it succeeded
func (r *GenerateResult) GetError() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%s: %s", r.ErrorKind, r.Error)
}

// Summary counts batch outcomes
type Summary struct {
	Total    int               `json:"total"`
	OK       int               `json:"ok"`
	Failed   int               `json:"failed"`
	Fallback int               `json:"fallback"`
	ByKind   map[string]int    `json:"byKind,omitempty"`
	Results  []pipeline.Result `json:"results"`
}

// Summarize counts the outcomes of results
func Summarize(results []pipeline.Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch {
		case r.OK:
			s.OK++
			if r.Mode == pipeline.ModeFallback {
				s.Fallback++
			}
		default:
			s.Failed++
			if s.ByKind == nil {
				s.ByKind = make(map[string]int)
			}
			s.ByKind[string(r.ErrorKind)]++
		}
	}
	return s
}

// BatchProcessor processes multiple documents concurrently
type BatchProcessor struct {
	generator   Generator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(generator Generator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		concurrency: concurrency,
	}
}

// ProcessRequests runs every request and returns the results in input order
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []pipeline.Request) []pipeline.Result {
	if len(reqs) == 0 {
		return []pipeline.Result{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, req := range reqs {
		pool.Submit(&GenerateJob{
			Request:   req,
			Generator: b.generator,
		})
	}

	results := pool.Wait()

	out := make([]pipeline.Result, len(reqs))
	for i, req := range reqs {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*GenerateResult).Result
			continue
		}
		// Never ran: the batch was cancelled
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = pipeline.FailedResult(uuid.New(), err)
		out[i].DocumentID = req.DocumentID
	}

	return out
}

// ProcessFile reads requests from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath, defaultType string, offline bool) ([]pipeline.Result, error) {
	reqs, err := ReadRequestsFromFile(filePath, defaultType)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	for i := range reqs {
		reqs[i].Offline = offline
	}

	return b.ProcessRequests(ctx, reqs), nil
}

// ReadRequestsFromFile reads one "<id> [type]" request per line. Lines
// without a type use defaultType.
func ReadRequestsFromFile(filePath, defaultType string) ([]pipeline.Request, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reqs []pipeline.Request
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		req := pipeline.Request{DocumentID: fields[0], DocumentType: defaultType}
		switch len(fields) {
		case 1:
		case 2:
			req.DocumentType = fields[1]
		default:
			return nil, fmt.Errorf("line %d: expected \"<id> [type]\", got %q", lineNo, line)
		}
		if req.DocumentType == "" {
			return nil, fmt.Errorf("line %d: no document type for %s", lineNo, req.DocumentID)
		}

		// Deduplicate requests
		key := req.DocumentID + "\x00" + strings.ToLower(req.DocumentType)
		if !seen[key] {
			seen[key] = true
			reqs = append(reqs, req)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return reqs, nil
}
