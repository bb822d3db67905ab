// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ppiankov/docquiz/internal/llm"
)

// Reply is one scripted outcome: Text is returned unless Err is set
type Reply struct {
	Text string
	Err  error
}

// Provider replays scripted replies in order. After the script runs out the
// last reply repeats. A Provider is safe for concurrent use.
type Provider struct {
	ProviderName string

	mu       sync.Mutex
	replies  []Reply
	requests []llm.GenerateRequest
}

// New returns a provider replaying replies
func New(replies ...Reply) *Provider {
	return &Provider{ProviderName: "scripted", replies: replies}
}

// Text returns a provider that always answers text
func Text(text string) *Provider {
	return New(Reply{Text: text})
}

func (p *Provider) Name() string { return p.ProviderName }

func (p *Provider) IsAvailable(ctx context.Context) bool { return true }

func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	n := len(p.requests)
	p.requests = append(p.requests, req)
	var reply Reply
	if len(p.replies) > 0 {
		if n < len(p.replies) {
			reply = p.replies[n]
		} else {
			reply = p.replies[len(p.replies)-1]
		}
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &llm.GenerateResponse{Text: reply.Text, Model: "scripted-1", TokensUsed: len(reply.Text) / 4}, nil
}

// Calls returns how many Generate calls were made
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of every request received
func (p *Provider) Requests() []llm.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.GenerateRequest(nil), p.requests...)
}
