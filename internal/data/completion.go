package data

import (
	"context"

	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// ChatClient is a single-turn text generation client
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
	Model() string
}

// completionRepo implements the completion repository on a chat client
type completionRepo struct {
	client   ChatClient
	provider string
}

// NewCompletionRepo creates a completion repository for the named provider
func NewCompletionRepo(provider string, client ChatClient) repo.CompletionRepo {
	return &completionRepo{client: client, provider: provider}
}

// Complete returns the model's answer
func (r *completionRepo) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return r.client.Chat(ctx, systemPrompt, prompt)
}

// Name returns provider/model
func (r *completionRepo) Name() string {
	return r.provider + "/" + r.client.Model()
}
