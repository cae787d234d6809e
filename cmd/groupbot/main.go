package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/socialbounty/groupbot/internal/api"
	"github.com/socialbounty/groupbot/internal/biz"
	"github.com/socialbounty/groupbot/internal/biz/repo"
	"github.com/socialbounty/groupbot/internal/conf"
	"github.com/socialbounty/groupbot/internal/data"
	"github.com/socialbounty/groupbot/internal/infra/gemini"
	"github.com/socialbounty/groupbot/internal/infra/openai"
	"github.com/socialbounty/groupbot/internal/infra/telegram"
	"github.com/socialbounty/groupbot/internal/render"
	"github.com/socialbounty/groupbot/internal/server"
	"github.com/socialbounty/groupbot/internal/service"
)

var version = "dev"

func main() {
	if err := run(os.Args); err != nil {
		log.Printf("exiting: %v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "groupbot",
		Usage:   "Telegram group moderation bot",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file to load before reading the environment",
				Value: ".env",
			},
		},
		Before: func(cctx *cli.Context) error {
			if err := godotenv.Load(cctx.String("env-file")); err != nil {
				log.Printf("no %s file found, using environment variables", cctx.String("env-file"))
			}
			return nil
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the webhook server (default)",
				Action: runServe,
			},
			{
				Name:   "set-webhook",
				Usage:  "register WEBHOOK_URL/webhook with Telegram and exit",
				Action: runSetWebhook,
			},
			{
				Name:      "send",
				Usage:     "send a text message as the bot",
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "chat",
						Usage: "target chat id (defaults to GROUP_CHAT_ID)",
					},
				},
				Action: runSend,
			},
		},
	}
	return app.Run(args)
}

func loadConfig() (*conf.Config, *zap.SugaredLogger, error) {
	bootLog, err := conf.NewLogger(os.Getenv("DEBUG") == "true")
	if err != nil {
		return nil, nil, err
	}

	cfg, err := conf.Load(bootLog)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := bootLog
	if cfg.Debug {
		if logger, err = conf.NewLogger(true); err != nil {
			return nil, nil, err
		}
	}
	return cfg, logger, nil
}

func newTelegramClient(cfg *conf.Config, logger *zap.SugaredLogger) (*telegram.Client, error) {
	return telegram.NewClient(telegram.Config{BotToken: cfg.Telegram.BotToken}, logger)
}

// newCompletion builds the configured AI provider; closeFn releases its resources
func newCompletion(ctx context.Context, cfg conf.AIConfig) (repo.CompletionRepo, func() error, error) {
	switch cfg.Provider {
	case conf.ProviderOpenAI:
		client := openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return data.NewCompletionRepo(cfg.Provider, client), func() error { return nil }, nil
	case conf.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return data.NewCompletionRepo(cfg.Provider, client), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}

func runServe(cctx *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize clients
	tgClient, err := newTelegramClient(cfg, logger)
	if err != nil {
		return err
	}
	messenger := data.NewTelegramRepo(tgClient)
	self := messenger.Self()

	completion, closeCompletion, err := newCompletion(ctx, cfg.AI)
	if err != nil {
		return err
	}
	defer closeCompletion()

	// Initialize repository layer
	db, err := data.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := data.NewRepositories(db, messenger, completion)

	// Initialize usecase layer
	ucs, err := biz.NewUsecases(biz.Config{
		BotID:           self.ID,
		BotUsername:     self.Username,
		GroupChatID:     cfg.Telegram.GroupChatID,
		Prompt:          cfg.ToPromptConfig(),
		Replies:         cfg.ToReplies(),
		Group:           cfg.ToGroupDefaults(),
		Escalation:      cfg.ToEscalationConfig(),
		WelcomeTTL:      cfg.Moderation.WelcomeTTL,
		LeaderboardSize: cfg.Moderation.LeaderboardSize,
		AITimeout:       cfg.AI.Timeout,
		AIFallback:      cfg.AI.Fallback,
		AIRateLimit:     cfg.AI.RateLimit,
		AIRateWindow:    cfg.AI.RateWindow,
	}, repos.User, repos.Filter, repos.Group, repos.Completion, render.Leaderboard)
	if err != nil {
		return err
	}

	// Initialize service layer
	janitor := service.NewJanitor(messenger, time.Second, logger.Named("janitor"))
	updates := service.NewUpdateService(
		ucs.Classifier,
		ucs.Group,
		ucs.User,
		ucs.Moderation,
		ucs.Responder,
		messenger,
		janitor,
		service.UpdateOptions{TrustChatAdmins: cfg.Telegram.TrustChatAdmins},
		logger,
	)

	apiServer := api.NewServer(ucs.Filter, ucs.User, ucs.Group, cfg.Server.APIToken, logger)
	var apiHandler http.Handler
	if apiServer.Enabled() {
		apiHandler = apiServer.Routes()
	} else {
		logger.Info("API_TOKEN not set, operator api disabled")
	}

	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		WebhookURL:    cfg.Telegram.WebhookURL,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	}, updates, messenger, apiHandler, logger)

	logger.Infow("starting groupbot",
		"version", version,
		"bot", self.Username,
		"group", cfg.Telegram.GroupChatID,
		"ai", completion.Name(),
		"db", cfg.Storage.DBPath,
	)

	janitor.Start(ctx)
	defer janitor.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		url, err := srv.RegisterWebhook(gctx)
		if err != nil {
			// the server keeps running; /setwebhook can retry
			logger.Warnw("webhook registration failed", "error", err)
			return nil
		}
		logger.Infow("webhook registered", "url", url)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}

func runSetWebhook(cctx *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	switch {
	case cfg.Telegram.BotToken == "":
		return &conf.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	case cfg.Telegram.WebhookURL == "":
		return &conf.ConfigError{Field: "WEBHOOK_URL", Message: "required"}
	}

	tgClient, err := newTelegramClient(cfg, logger)
	if err != nil {
		return err
	}

	url, err := server.RegisterWebhook(cctx.Context, data.NewTelegramRepo(tgClient), cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	fmt.Printf("webhook set to %s\n", url)
	return nil
}

func runSend(cctx *cli.Context) error {
	if cctx.NArg() < 1 {
		return cli.Exit("usage: groupbot send [--chat <id>] <message>", 1)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Telegram.BotToken == "" {
		return &conf.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	}
	chatID := cctx.Int64("chat")
	if chatID == 0 {
		chatID = cfg.Telegram.GroupChatID
	}
	if chatID == 0 {
		return &conf.ConfigError{Field: "GROUP_CHAT_ID", Message: "required without --chat"}
	}

	tgClient, err := newTelegramClient(cfg, logger)
	if err != nil {
		return err
	}

	text := strings.Join(cctx.Args().Slice(), " ")
	msgID, err := data.NewTelegramRepo(tgClient).SendText(cctx.Context, chatID, 0, text, nil)
	if err != nil {
		return err
	}
	fmt.Printf("message %d sent to %d\n", msgID, chatID)
	return nil
}
