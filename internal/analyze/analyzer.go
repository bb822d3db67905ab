// Package analyze turns document text into a structured DocumentAnalysis
// with one generation-service request per attempt.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/llm"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/retry"
)

// ErrNoProvider is returned by Analyze when no generation service is configured
var ErrNoProvider = errors.New("no generation service configured")

// AnalysisError reports that the generation service could not produce a
// usable analysis. It wraps the last underlying cause.
type AnalysisError struct {
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("content analysis failed after %d attempts: %v", e.Attempts, lastCause(e.Err))
	}
	return fmt.Sprintf("content analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func lastCause(err error) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Last
	}
	return err
}

// Options controls the analysis request
type Options struct {
	PromptLength int // runes of text embedded in the prompt
	Temperature  float32
	MaxTokens    int
	Policy       retry.Policy
}

// OptionsFromConfig reads the analysis settings from the pipeline config
func OptionsFromConfig(cfg model.PipelineConfig) Options {
	return Options{
		PromptLength: cfg.AnalysisPromptLength,
		Temperature:  cfg.AnalysisTemperature,
		MaxTokens:    cfg.AnalysisMaxTokens,
		Policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			BackoffBase:    cfg.BackoffBase,
			AttemptTimeout: cfg.AnalysisTimeout,
		},
	}
}

// DefaultOptions returns the analysis settings of model.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig().Pipeline)
}

// Analyzer is the content analyzer. The zero provider is allowed; Analyze
// then fails with ErrNoProvider and callers use Fallback instead.
type Analyzer struct {
	provider llm.Provider
	rules    *extract.Analyzer
	opts     Options
	log      *logging.Logger
}

// New creates an analyzer over provider (may be nil)
func New(provider llm.Provider, rules *extract.Analyzer, opts Options, log *logging.Logger) *Analyzer {
	if rules == nil {
		rules = extract.NewAnalyzer(nil)
	}
	return &Analyzer{
		provider: provider,
		rules:    rules,
		opts:     opts,
		log:      logging.OrNop(log),
	}
}

// HasProvider reports whether a generation service is configured
func (a *Analyzer) HasProvider() bool {
	return a.provider != nil
}

// Analyze requests a structured analysis of doc from the generation service,
// retrying recoverable failures under the configured policy.
func (a *Analyzer) Analyze(ctx context.Context, doc model.SourceDocument) (*model.DocumentAnalysis, error) {
	if a.provider == nil {
		return nil, &AnalysisError{Err: ErrNoProvider}
	}

	log := a.log.With("stage", "analyze", "document_id", doc.ID, "provider", a.provider.Name())
	req := llm.GenerateRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(doc, a.opts.PromptLength),
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	}

	policy := a.opts.Policy
	policy.OnTransition = retry.LogTransitions(log, policy.OnTransition)

	placeholders := a.rules.Vocabulary().Catalog.Placeholders
	analysis, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (model.DocumentAnalysis, error) {
		start := time.Now()
		resp, err := a.provider.Generate(ctx, req)
		if err != nil {
			return model.DocumentAnalysis{}, err
		}

		obj, err := llm.DecodeObject(resp.Text)
		if err != nil {
			return model.DocumentAnalysis{}, fmt.Errorf("parse analysis reply: %w", err)
		}

		log.Debug("analysis reply parsed", "attempt", attempt, "tokens", resp.TokensUsed, "elapsed", time.Since(start))
		return Coerce(obj, placeholders), nil
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		attempts := 0
		if errors.As(err, &exhausted) {
			attempts = exhausted.Attempts
		}
		return nil, &AnalysisError{Attempts: attempts, Err: err}
	}

	return &analysis, nil
}

// Fallback runs the deterministic analyzer. It never fails.
func (a *Analyzer) Fallback(doc model.SourceDocument) (*model.DocumentAnalysis, model.TextFeatures) {
	features := a.rules.Features(doc.RawText)
	analysis := FromFeatures(doc.RawText, features, a.rules.Vocabulary().Catalog.Placeholders)
	return &analysis, features
}
