// Package quiz turns a document analysis into a batch of validated
// multiple-choice questions, through the generation service or through
// fixed templates when no service is available.
package quiz

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

// ErrNoProvider is returned by Synthesize when no generation service is configured
var ErrNoProvider = errors.New("no generation service configured")

// ErrNoQuestions marks a reply that parsed but held no question objects
var ErrNoQuestions = errors.New("reply contains no questions")

// SynthesisError reports that the generation service could not produce a
// question batch. It wraps the last underlying cause.
type SynthesisError struct {
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	var exhausted *retry.ExhaustedError
	if errors.As(e.Err, &exhausted) {
		return fmt.Sprintf("quiz synthesis failed after %d attempts: %v", exhausted.Attempts, exhausted.Last)
	}
	return fmt.Sprintf("quiz synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Options controls the synthesis request
type Options struct {
	QuestionCount int
	Temperature   float32
	MaxTokens     int
	Policy        retry.Policy
}

// OptionsFromConfig reads the synthesis settings from the pipeline config
func OptionsFromConfig(cfg model.PipelineConfig) Options {
	return Options{
		QuestionCount: cfg.QuestionCount,
		Temperature:   cfg.SynthesisTemperature,
		MaxTokens:     cfg.SynthesisMaxTokens,
		Policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			BackoffBase:    cfg.BackoffBase,
			AttemptTimeout: cfg.SynthesisTimeout,
		},
	}
}

// DefaultOptions returns the synthesis settings of model.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig().Pipeline)
}

// Synthesizer produces question batches through the generation service
type Synthesizer struct {
	provider llm.Provider
	vocab    *extract.Vocabulary
	opts     Options
	log      *logging.Logger
}

// NewSynthesizer creates a synthesizer over provider (may be nil)
func NewSynthesizer(provider llm.Provider, vocab *extract.Vocabulary, opts Options, log *logging.Logger) *Synthesizer {
	if vocab == nil {
		vocab = extract.DefaultVocabulary()
	}
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = model.DefaultConfig().Pipeline.QuestionCount
	}
	return &Synthesizer{
		provider: provider,
		vocab:    vocab,
		opts:     opts,
		log:      logging.OrNop(log),
	}
}

// Synthesize asks the generation service for a question batch and repairs
// every returned question. The batch always holds exactly QuestionCount
// questions on success.
func (s *Synthesizer) Synthesize(ctx context.Context, title string, analysis model.DocumentAnalysis, docType model.DocumentType) ([]model.QuizQuestion, error) {
	if s.provider == nil {
		return nil, &SynthesisError{Err: ErrNoProvider}
	}

	log := s.log.With("stage", "synthesize", "provider", s.provider.Name())
	req := llm.GenerateRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(title, analysis, docType, s.opts.QuestionCount),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}

	policy := s.opts.Policy
	policy.OnTransition = retry.LogTransitions(log, policy.OnTransition)

	placeholders := s.vocab.Catalog.Placeholders
	questions, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) ([]model.QuizQuestion, error) {
		start := time.Now()
		resp, err := s.provider.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		items, err := llm.DecodeList(resp.Text, "questions")
		if err != nil {
			return nil, fmt.Errorf("parse quiz reply: %w", err)
		}
		if len(items) == 0 {
			return nil, ErrNoQuestions
		}

		batch := RepairBatch(items, s.opts.QuestionCount, placeholders)
		log.Debug("quiz reply parsed",
			"attempt", attempt,
			"returned", len(items),
			"repaired", model.CountRepaired(batch),
			"elapsed", time.Since(start),
		)
		return batch, nil
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		attempts := 0
		if errors.As(err, &exhausted) {
			attempts = exhausted.Attempts
		}
		return nil, &SynthesisError{Attempts: attempts, Err: err}
	}

	if n := model.CountRepaired(questions); n > 0 {
		log.Warn("questions repaired", "count", n)
	}
	return questions, nil
}
