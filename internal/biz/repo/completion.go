package repo

import "context"

// CompletionRepo is a text-generation backend
type CompletionRepo interface {
	// Complete returns the model's answer to prompt under systemPrompt
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)

	// Name identifies the backend in logs and metrics
	Name() string
}
