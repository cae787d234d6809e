package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// DefaultAIFallback is sent when the completion backend fails or times out
const DefaultAIFallback = "🤖 I'm experiencing some technical difficulties. Please try again later..."

// ResponderUsecase produces AI replies under a deadline
type ResponderUsecase struct {
	completion repo.CompletionRepo
	contextUC  *ContextBuilderUsecase
	timeout    time.Duration
	fallback   string
}

// NewResponderUsecase creates a new responder usecase
func NewResponderUsecase(
	completion repo.CompletionRepo,
	contextUC *ContextBuilderUsecase,
	timeout time.Duration,
	fallback string,
) *ResponderUsecase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if fallback == "" {
		fallback = DefaultAIFallback
	}
	return &ResponderUsecase{
		completion: completion,
		contextUC:  contextUC,
		timeout:    timeout,
		fallback:   fallback,
	}
}

type completionResult struct {
	text string
	err  error
}

// Respond always returns text to send. A non-nil error means the fallback was
// used; it wraps domain.ErrUpstreamTimeout when the deadline passed.
func (uc *ResponderUsecase) Respond(ctx context.Context, req *domain.AIRequest) (string, error) {
	if uc.completion == nil {
		return uc.fallback, errors.New("no completion backend configured")
	}

	prompt := uc.contextUC.BuildPrompt(req)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	// buffered so the worker never blocks after we stop waiting
	done := make(chan completionResult, 1)
	go func() {
		text, err := uc.completion.Complete(ctx, uc.contextUC.SystemPrompt(), prompt)
		done <- completionResult{text: text, err: err}
	}()

	var res completionResult
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return uc.fallback, fmt.Errorf("%s completion: %w", uc.completion.Name(), domain.ErrUpstreamTimeout)
		}
		return uc.fallback, fmt.Errorf("%s completion: %w", uc.completion.Name(), ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return uc.fallback, fmt.Errorf("%s completion: %w: %v", uc.completion.Name(), domain.ErrUpstreamTimeout, res.err)
		}
		return uc.fallback, fmt.Errorf("%s completion: %w", uc.completion.Name(), res.err)
	}

	answer := strings.TrimSpace(res.text)
	if answer == "" {
		return uc.fallback, fmt.Errorf("%s completion: empty answer", uc.completion.Name())
	}

	uc.contextUC.Record(domain.Message{
		ChatID:     req.ChatID,
		SenderName: "bot",
		Content:    answer,
		IsBot:      true,
	})
	return answer, nil
}
