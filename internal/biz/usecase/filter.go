package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// filterSnapshot is an immutable view of one chat's rules
type filterSnapshot struct {
	rules []domain.FilterRule
}

// FilterUsecase matches text against per-chat banned patterns.
// Reads use a published snapshot and never block; writes are serialised per chat.
type FilterUsecase struct {
	filterRepo repo.FilterRepo
	now        func() time.Time

	snapshots sync.Map // chatID -> *filterSnapshot
	locks     sync.Map // chatID -> *sync.Mutex
}

// NewFilterUsecase creates a new filter usecase
func NewFilterUsecase(filterRepo repo.FilterRepo) *FilterUsecase {
	return &FilterUsecase{
		filterRepo: filterRepo,
		now:        time.Now,
	}
}

// Match returns the first rule, in insertion order, whose pattern occurs in text
func (uc *FilterUsecase) Match(ctx context.Context, chatID int64, text string) (*domain.FilterRule, error) {
	snap, err := uc.snapshot(ctx, chatID)
	if err != nil {
		return nil, err
	}
	for i := range snap.rules {
		if snap.rules[i].Matches(text) {
			rule := snap.rules[i]
			return &rule, nil
		}
	}
	return nil, nil
}

// List returns the chat's rules in insertion order
func (uc *FilterUsecase) List(ctx context.Context, chatID int64) ([]domain.FilterRule, error) {
	snap, err := uc.snapshot(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return append([]domain.FilterRule(nil), snap.rules...), nil
}

// Add registers a pattern. Patterns are case-folded; adding an existing one
// returns domain.ErrDuplicateRule.
func (uc *FilterUsecase) Add(ctx context.Context, chatID int64, pattern string) (*domain.FilterRule, error) {
	pattern = domain.NormalizePattern(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("add filter: empty pattern")
	}

	mu := uc.lock(chatID)
	mu.Lock()
	defer mu.Unlock()

	rule := &domain.FilterRule{
		ChatID:    chatID,
		Pattern:   pattern,
		CreatedAt: uc.now(),
	}
	if err := uc.filterRepo.Add(ctx, rule); err != nil {
		return nil, fmt.Errorf("add filter: %w", err)
	}
	if err := uc.reload(ctx, chatID); err != nil {
		return nil, err
	}
	return rule, nil
}

// Remove deletes a pattern, returning domain.ErrNotFound if absent
func (uc *FilterUsecase) Remove(ctx context.Context, chatID int64, pattern string) error {
	pattern = domain.NormalizePattern(pattern)

	mu := uc.lock(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := uc.filterRepo.Remove(ctx, chatID, pattern); err != nil {
		return fmt.Errorf("remove filter: %w", err)
	}
	return uc.reload(ctx, chatID)
}

// Seed adds default patterns, skipping ones already present
func (uc *FilterUsecase) Seed(ctx context.Context, chatID int64, patterns []string) error {
	for _, p := range patterns {
		if _, err := uc.Add(ctx, chatID, p); err != nil && !errors.Is(err, domain.ErrDuplicateRule) {
			return err
		}
	}
	return nil
}

func (uc *FilterUsecase) snapshot(ctx context.Context, chatID int64) (*filterSnapshot, error) {
	if v, ok := uc.snapshots.Load(chatID); ok {
		return v.(*filterSnapshot), nil
	}

	rules, err := uc.filterRepo.List(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load filters: %w", err)
	}
	v, _ := uc.snapshots.LoadOrStore(chatID, &filterSnapshot{rules: rules})
	return v.(*filterSnapshot), nil
}

// reload must be called with the chat lock held
func (uc *FilterUsecase) reload(ctx context.Context, chatID int64) error {
	rules, err := uc.filterRepo.List(ctx, chatID)
	if err != nil {
		return fmt.Errorf("reload filters: %w", err)
	}
	uc.snapshots.Store(chatID, &filterSnapshot{rules: rules})
	return nil
}

func (uc *FilterUsecase) lock(chatID int64) *sync.Mutex {
	v, _ := uc.locks.LoadOrStore(chatID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
