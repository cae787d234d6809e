package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

// ErrConfigurationMissing is wrapped by every ConfigError
var ErrConfigurationMissing = errors.New("configuration missing")

// AI providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// AI configuration
	AI AIConfig

	// Moderation configuration
	Moderation ModerationConfig

	// Storage configuration
	Storage StorageConfig

	// HTTP server configuration
	Server ServerConfig

	// Texts (loaded from YAML)
	Messages *MessagesConfig

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	BotToken        string
	WebhookURL      string
	WebhookSecret   string
	GroupChatID     int64
	AdminIDs        []int64
	TrustChatAdmins bool // also treat Telegram chat administrators as admins
}

// AIConfig contains completion provider configuration
type AIConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Fallback    string
	HistorySize int
	RateLimit   int // answers per chat per RateWindow, 0 is unlimited
	RateWindow  time.Duration
}

// ModerationConfig contains moderation configuration
type ModerationConfig struct {
	WarnLimit       int
	WarnWindow      time.Duration
	WelcomeTTL      time.Duration
	DefaultFilters  []string
	LeaderboardSize int
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	DBPath string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr     string
	APIToken string
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "groupbot.db"
	}
	return filepath.Join(homeDir, ".groupbot", "groupbot.db")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("AI_PROVIDER", ProviderGemini)
	v.SetDefault("AI_TIMEOUT", 30*time.Second)
	v.SetDefault("AI_FALLBACK", usecase.DefaultAIFallback)
	v.SetDefault("AI_HISTORY_SIZE", usecase.DefaultPromptConfig.MaxHistoryCount)
	v.SetDefault("AI_RATE_LIMIT", 20)
	v.SetDefault("AI_RATE_WINDOW", time.Minute)
	v.SetDefault("WARN_LIMIT", 3)
	v.SetDefault("WARN_WINDOW", 24*time.Hour)
	v.SetDefault("WELCOME_TTL", 5*time.Minute)
	v.SetDefault("LEADERBOARD_SIZE", 10)
	v.SetDefault("DB_PATH", defaultDBPath())
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("TRUST_CHAT_ADMINS", false)
	v.SetDefault("DEBUG", false)
	return v
}

// Load reads configuration from environment variables. It does not check
// required values; call Validate for that.
func Load(log *zap.SugaredLogger) (*Config, error) {
	v := newViper()

	adminIDs, err := parseIDs(v.GetString("ADMIN_IDS"))
	if err != nil {
		return nil, &ConfigError{Field: "ADMIN_IDS", Message: err.Error()}
	}

	var groupChatID int64
	if raw := strings.TrimSpace(v.GetString("GROUP_CHAT_ID")); raw != "" {
		groupChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &ConfigError{Field: "GROUP_CHAT_ID", Message: "not an integer"}
		}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("AI_PROVIDER")))
	model := v.GetString("AI_MODEL")
	if model == "" {
		model = defaultModel(provider)
	}

	messages, err := LoadMessagesConfig(v.GetString("MESSAGES_CONFIG_PATH"), log)
	if err != nil {
		return nil, err
	}
	// env overrides the history size from YAML
	if os.Getenv("AI_HISTORY_SIZE") != "" {
		messages.History.MaxCount = v.GetInt("AI_HISTORY_SIZE")
	}

	return &Config{
		Telegram: TelegramConfig{
			BotToken:        v.GetString("TELEGRAM_BOT_TOKEN"),
			WebhookURL:      v.GetString("WEBHOOK_URL"),
			WebhookSecret:   v.GetString("WEBHOOK_SECRET"),
			GroupChatID:     groupChatID,
			AdminIDs:        adminIDs,
			TrustChatAdmins: v.GetBool("TRUST_CHAT_ADMINS"),
		},
		AI: AIConfig{
			Provider:    provider,
			APIKey:      v.GetString("AI_API_KEY"),
			Model:       model,
			BaseURL:     v.GetString("AI_BASE_URL"),
			Timeout:     v.GetDuration("AI_TIMEOUT"),
			Fallback:    v.GetString("AI_FALLBACK"),
			HistorySize: messages.History.MaxCount,
			RateLimit:   v.GetInt("AI_RATE_LIMIT"),
			RateWindow:  v.GetDuration("AI_RATE_WINDOW"),
		},
		Moderation: ModerationConfig{
			WarnLimit:       v.GetInt("WARN_LIMIT"),
			WarnWindow:      v.GetDuration("WARN_WINDOW"),
			WelcomeTTL:      v.GetDuration("WELCOME_TTL"),
			DefaultFilters:  splitList(v.GetString("DEFAULT_FILTERS")),
			LeaderboardSize: v.GetInt("LEADERBOARD_SIZE"),
		},
		Storage: StorageConfig{
			DBPath: v.GetString("DB_PATH"),
		},
		Server: ServerConfig{
			Addr:     v.GetString("HTTP_ADDR"),
			APIToken: v.GetString("API_TOKEN"),
		},
		Messages: messages,
		Debug:    v.GetBool("DEBUG"),
	}, nil
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "gemini-1.5-flash"
}

// parseIDs parses a comma separated list of integer ids
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ToPromptConfig converts to prompt configuration
func (c *Config) ToPromptConfig() usecase.PromptConfig {
	if c.Messages == nil {
		cfg := usecase.DefaultPromptConfig
		cfg.MaxHistoryCount = c.AI.HistorySize
		return cfg
	}
	return c.Messages.ToPromptConfig()
}

// ToReplies converts to moderation replies
func (c *Config) ToReplies() usecase.Replies {
	if c.Messages == nil {
		return usecase.DefaultReplies
	}
	return c.Messages.ToReplies()
}

// ToEscalationConfig converts to escalation configuration
func (c *Config) ToEscalationConfig() usecase.EscalationConfig {
	return usecase.EscalationConfig{
		Limit:  c.Moderation.WarnLimit,
		Window: c.Moderation.WarnWindow,
	}
}

// ToGroupDefaults converts to the defaults applied to newly seen chats
func (c *Config) ToGroupDefaults() usecase.GroupDefaults {
	return usecase.GroupDefaults{
		AdminIDs:        c.Telegram.AdminIDs,
		WelcomeTemplate: c.ToReplies().Welcome,
		DefaultFilters:  c.Moderation.DefaultFilters,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Telegram.BotToken == "":
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	case c.AI.APIKey == "":
		return &ConfigError{Field: "AI_API_KEY", Message: "required"}
	case c.Telegram.WebhookURL == "":
		return &ConfigError{Field: "WEBHOOK_URL", Message: "required"}
	case len(c.Telegram.AdminIDs) == 0:
		return &ConfigError{Field: "ADMIN_IDS", Message: "required"}
	case c.Telegram.GroupChatID == 0:
		return &ConfigError{Field: "GROUP_CHAT_ID", Message: "required"}
	}
	if c.AI.Provider != ProviderGemini && c.AI.Provider != ProviderOpenAI {
		return &ConfigError{Field: "AI_PROVIDER", Message: "must be gemini or openai"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigurationMissing
}

// NewLogger builds the process logger; debug selects the development encoder
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		raw *zap.Logger
		err error
	)
	if debug {
		raw, err = zap.NewDevelopment()
	} else {
		raw, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return raw.Sugar(), nil
}
