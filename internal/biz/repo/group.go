package repo

import (
	"context"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// GroupRepo persists group configuration
type GroupRepo interface {
	// Get returns the stored config, or domain.ErrNotFound
	Get(ctx context.Context, chatID int64) (*domain.GroupConfig, error)

	// Save inserts or replaces the config and its admin set
	Save(ctx context.Context, cfg *domain.GroupConfig) error
}
