package usecase

import (
	"context"
	"fmt"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// LeaderboardRenderer rasterises a leaderboard to PNG bytes
type LeaderboardRenderer func(board domain.Leaderboard) ([]byte, error)

// StatsUsecase produces leaderboard images
type StatsUsecase struct {
	userUC *UserUsecase
	render LeaderboardRenderer
	size   int
	title  string
}

// NewStatsUsecase creates a new stats usecase
func NewStatsUsecase(userUC *UserUsecase, render LeaderboardRenderer, size int, title string) *StatsUsecase {
	if size <= 0 {
		size = 10
	}
	if title == "" {
		title = "Top Active Members"
	}
	return &StatsUsecase{userUC: userUC, render: render, size: size, title: title}
}

// Board returns the ranked leaderboard, or domain.ErrEmptyLeaderboard
func (uc *StatsUsecase) Board(ctx context.Context, chatID int64) (domain.Leaderboard, error) {
	users, err := uc.userUC.TopN(ctx, chatID, uc.size)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if len(users) == 0 {
		return domain.Leaderboard{}, domain.ErrEmptyLeaderboard
	}
	return domain.NewLeaderboard(uc.title, users), nil
}

// Leaderboard renders the chat's leaderboard image
func (uc *StatsUsecase) Leaderboard(ctx context.Context, chatID int64) ([]byte, error) {
	board, err := uc.Board(ctx, chatID)
	if err != nil {
		return nil, err
	}
	png, err := uc.render(board)
	if err != nil {
		return nil, fmt.Errorf("render leaderboard: %w", err)
	}
	return png, nil
}
