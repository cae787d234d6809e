package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// GroupDefaults seeds a chat's configuration the first time it is seen
type GroupDefaults struct {
	AdminIDs        []int64 // always admins, in every chat
	WelcomeTemplate string
	DefaultFilters  []string
}

// GroupUsecase owns GroupConfig. Published configs are immutable; callers must
// not modify what Get returns.
type GroupUsecase struct {
	groupRepo repo.GroupRepo
	filterUC  *FilterUsecase
	defaults  GroupDefaults
	now       func() time.Time

	configs sync.Map // chatID -> *domain.GroupConfig
	locks   sync.Map // chatID -> *sync.Mutex
}

// NewGroupUsecase creates a new group usecase
func NewGroupUsecase(groupRepo repo.GroupRepo, filterUC *FilterUsecase, defaults GroupDefaults) *GroupUsecase {
	return &GroupUsecase{
		groupRepo: groupRepo,
		filterUC:  filterUC,
		defaults:  defaults,
		now:       time.Now,
	}
}

// Get returns the chat's configuration, creating and persisting defaults on first use
func (uc *GroupUsecase) Get(ctx context.Context, chatID int64) (*domain.GroupConfig, error) {
	if v, ok := uc.configs.Load(chatID); ok {
		return v.(*domain.GroupConfig), nil
	}

	mu := uc.lock(chatID)
	mu.Lock()
	defer mu.Unlock()

	if v, ok := uc.configs.Load(chatID); ok {
		return v.(*domain.GroupConfig), nil
	}

	cfg, err := uc.groupRepo.Get(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		cfg, err = uc.initialize(ctx, chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("get group config: %w", err)
	}

	uc.configs.Store(chatID, cfg)
	return cfg, nil
}

// IsAdmin reports whether userID is a configured admin or a stored admin of the chat
func (uc *GroupUsecase) IsAdmin(cfg *domain.GroupConfig, userID int64) bool {
	if slices.Contains(uc.defaults.AdminIDs, userID) {
		return true
	}
	return cfg != nil && cfg.IsAdmin(userID)
}

// Update applies fn to a copy of the configuration, persists it, then publishes it
func (uc *GroupUsecase) Update(ctx context.Context, chatID int64, fn func(cfg *domain.GroupConfig) error) (*domain.GroupConfig, error) {
	current, err := uc.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	mu := uc.lock(chatID)
	mu.Lock()
	defer mu.Unlock()

	// re-read under the lock so concurrent updates apply in order
	if v, ok := uc.configs.Load(chatID); ok {
		current = v.(*domain.GroupConfig)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = uc.now()

	if err := uc.groupRepo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save group config: %w", err)
	}
	uc.configs.Store(chatID, next)
	return next, nil
}

// Toggle flips a setting and returns the new configuration
func (uc *GroupUsecase) Toggle(ctx context.Context, chatID int64, setting domain.Setting) (*domain.GroupConfig, error) {
	return uc.Update(ctx, chatID, func(cfg *domain.GroupConfig) error {
		_, err := cfg.Toggle(setting)
		return err
	})
}

// initialize must be called with the chat lock held
func (uc *GroupUsecase) initialize(ctx context.Context, chatID int64) (*domain.GroupConfig, error) {
	cfg := domain.DefaultGroupConfig(chatID)
	cfg.WelcomeTemplate = uc.defaults.WelcomeTemplate
	cfg.UpdatedAt = uc.now()

	if err := uc.groupRepo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	if uc.filterUC != nil && len(uc.defaults.DefaultFilters) > 0 {
		if err := uc.filterUC.Seed(ctx, chatID, uc.defaults.DefaultFilters); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (uc *GroupUsecase) lock(chatID int64) *sync.Mutex {
	v, _ := uc.locks.LoadOrStore(chatID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
