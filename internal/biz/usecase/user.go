package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// UserUsecase records member activity
type UserUsecase struct {
	userRepo repo.UserRepo
	now      func() time.Time
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(userRepo repo.UserRepo) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, now: time.Now}
}

// RecordActivity counts one message from sender
func (uc *UserUsecase) RecordActivity(ctx context.Context, chatID int64, sender domain.Sender) (*domain.User, error) {
	u, err := uc.userRepo.RecordActivity(ctx, chatID, sender, uc.now())
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}
	return u, nil
}

// Touch makes sure a record exists for sender without counting a message
func (uc *UserUsecase) Touch(ctx context.Context, chatID int64, sender domain.Sender) error {
	if err := uc.userRepo.Touch(ctx, chatID, sender, uc.now()); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// RecordWarning creates the user if needed and bumps the warning counter
func (uc *UserUsecase) RecordWarning(ctx context.Context, chatID int64, sender domain.Sender) (int64, error) {
	if err := uc.Touch(ctx, chatID, sender); err != nil {
		return 0, err
	}
	n, err := uc.userRepo.RecordWarning(ctx, chatID, sender.ID)
	if err != nil {
		return 0, fmt.Errorf("record warning: %w", err)
	}
	return n, nil
}

// RecordAIInteraction bumps the AI interaction counter
func (uc *UserUsecase) RecordAIInteraction(ctx context.Context, chatID, userID int64) error {
	if err := uc.userRepo.RecordAIInteraction(ctx, chatID, userID); err != nil {
		return fmt.Errorf("record ai interaction: %w", err)
	}
	return nil
}

// SetBanned records the ban state
func (uc *UserUsecase) SetBanned(ctx context.Context, chatID, userID int64, banned bool) error {
	if err := uc.userRepo.SetBanned(ctx, chatID, userID, banned); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}

// Get returns a user's record
func (uc *UserUsecase) Get(ctx context.Context, chatID, userID int64) (*domain.User, error) {
	return uc.userRepo.Get(ctx, chatID, userID)
}

// FindByUsername resolves "@name" or "name" to a known user
func (uc *UserUsecase) FindByUsername(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, domain.ErrNotFound
	}
	return uc.userRepo.FindByUsername(ctx, chatID, username)
}

// TopN returns up to n most active users; n <= 0 yields an empty result
func (uc *UserUsecase) TopN(ctx context.Context, chatID int64, n int) ([]domain.User, error) {
	if n <= 0 {
		return []domain.User{}, nil
	}
	users, err := uc.userRepo.TopN(ctx, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	return users, nil
}

// Purge forgets a user
func (uc *UserUsecase) Purge(ctx context.Context, chatID, userID int64) error {
	return uc.userRepo.Purge(ctx, chatID, userID)
}
