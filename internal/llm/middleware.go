package llm

import (
	"context"
	"time"

	"github.com/ppiankov/docquiz/internal/logging"
)

// Waiter blocks until a call keyed by key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

type limitedProvider struct {
	Provider
	waiter Waiter
}

// WithLimiter gates every Generate call on w, keyed by the provider name
func WithLimiter(p Provider, w Waiter) Provider {
	if p == nil || w == nil {
		return p
	}
	return &limitedProvider{Provider: p, waiter: w}
}

func (l *limitedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := l.waiter.Wait(ctx, l.Name()); err != nil {
		return nil, err
	}
	return l.Provider.Generate(ctx, req)
}

type transcriptProvider struct {
	Provider
	log *logging.Logger
}

// WithTranscript logs every prompt and reply at debug level
func WithTranscript(p Provider, log *logging.Logger) Provider {
	if p == nil || log == nil {
		return p
	}
	return &transcriptProvider{Provider: p, log: log.With("provider", p.Name())}
}

func (t *transcriptProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	t.log.Debug("llm request",
		"system", req.System,
		"prompt", req.Prompt,
		"temperature", req.Temperature,
		"max_tokens", req.MaxTokens,
	)

	start := time.Now()
	resp, err := t.Provider.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		t.log.Debug("llm error", "error", err, "elapsed", elapsed)
		return nil, err
	}
	t.log.Debug("llm response",
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"elapsed", elapsed,
		"text", resp.Text,
	)
	return resp, nil
}
