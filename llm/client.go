package llm

import "context"

// Request is a minimal one-shot completion request.
type Request struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// Client is the narrow language-model contract the concierge consumes.
// Implementations return the raw completion text; callers own all parsing
// and must treat malformed output as a soft failure.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleteFunc adapts a function to the Client interface.
type CompleteFunc func(ctx context.Context, req Request) (string, error)

// Complete implements Client.
func (f CompleteFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
