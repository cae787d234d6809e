package repo

import (
	"context"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// FilterRepo persists per-chat filter rules
type FilterRepo interface {
	// Add inserts a rule, returns domain.ErrDuplicateRule if the pattern exists
	Add(ctx context.Context, rule *domain.FilterRule) error

	// Remove deletes a rule, returns domain.ErrNotFound if absent
	Remove(ctx context.Context, chatID int64, pattern string) error

	// List returns rules in insertion order
	List(ctx context.Context, chatID int64) ([]domain.FilterRule, error)
}
