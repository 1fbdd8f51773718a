package outbound

import "context"

// CompletionOptions tunes a single completion.
type CompletionOptions struct {
	MaxTokens   int
	Temperature *float64
}

// TextGeneratorPort defines text generation operations.
type TextGeneratorPort interface {
	// Complete returns the generated text for prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}
