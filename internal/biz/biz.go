package biz

import (
	"time"

	"github.com/socialbounty/groupbot/internal/biz/repo"
	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Classifier *usecase.Classifier
	Group      *usecase.GroupUsecase
	Filter     *usecase.FilterUsecase
	User       *usecase.UserUsecase
	Escalation *usecase.EscalationUsecase
	Stats      *usecase.StatsUsecase
	Context    *usecase.ContextBuilderUsecase
	Responder  *usecase.ResponderUsecase
	Moderation *usecase.ModerationUsecase
}

// Config collects what the usecases need beyond their repositories
type Config struct {
	BotID       int64
	BotUsername string
	GroupChatID int64

	Prompt     usecase.PromptConfig
	Replies    usecase.Replies
	Group      usecase.GroupDefaults
	Escalation usecase.EscalationConfig

	WelcomeTTL      time.Duration
	LeaderboardSize int
	AITimeout       time.Duration
	AIFallback      string
	AIRateLimit     int
	AIRateWindow    time.Duration
}

// NewUsecases wires every usecase
func NewUsecases(
	cfg Config,
	userRepo repo.UserRepo,
	filterRepo repo.FilterRepo,
	groupRepo repo.GroupRepo,
	completion repo.CompletionRepo,
	render usecase.LeaderboardRenderer,
) (*Usecases, error) {
	escalationUC, err := usecase.NewEscalationUsecase(cfg.Escalation)
	if err != nil {
		return nil, err
	}

	filterUC := usecase.NewFilterUsecase(filterRepo)
	groupUC := usecase.NewGroupUsecase(groupRepo, filterUC, cfg.Group)
	userUC := usecase.NewUserUsecase(userRepo)
	contextUC := usecase.NewContextBuilderUsecase(cfg.Prompt)
	statsUC := usecase.NewStatsUsecase(userUC, render, cfg.LeaderboardSize, "")

	return &Usecases{
		Classifier: usecase.NewClassifier(cfg.BotID, cfg.BotUsername, cfg.GroupChatID),
		Group:      groupUC,
		Filter:     filterUC,
		User:       userUC,
		Escalation: escalationUC,
		Stats:      statsUC,
		Context:    contextUC,
		Responder:  usecase.NewResponderUsecase(completion, contextUC, cfg.AITimeout, cfg.AIFallback),
		Moderation: usecase.NewModerationUsecase(
			groupUC,
			filterUC,
			userUC,
			escalationUC,
			statsUC,
			contextUC,
			cfg.Replies,
			usecase.ModerationConfig{
				GroupChatID:  cfg.GroupChatID,
				BotID:        cfg.BotID,
				BotUsername:  cfg.BotUsername,
				WelcomeTTL:   cfg.WelcomeTTL,
				AIRateLimit:  cfg.AIRateLimit,
				AIRateWindow: cfg.AIRateWindow,
			},
		),
	}, nil
}
