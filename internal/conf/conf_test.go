package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("AI_API_KEY", "key")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/webhook")
	t.Setenv("ADMIN_IDS", "1, 2")
	t.Setenv("GROUP_CHAT_ID", "-1001")
	t.Setenv("MESSAGES_CONFIG_PATH", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Chdir(t.TempDir())

	cfg, err := Load(zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AdminIDs)
	assert.Equal(t, int64(-1001), cfg.Telegram.GroupChatID)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, usecase.DefaultAIFallback, cfg.AI.Fallback)
	assert.Equal(t, 20, cfg.AI.RateLimit)
	assert.Equal(t, time.Minute, cfg.AI.RateWindow)
	assert.Equal(t, 3, cfg.Moderation.WarnLimit)
	assert.Equal(t, 24*time.Hour, cfg.Moderation.WarnWindow)
	assert.Equal(t, 5*time.Minute, cfg.Moderation.WelcomeTTL)
	assert.Equal(t, 10, cfg.Moderation.LeaderboardSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Debug)
	assert.Equal(t, usecase.DefaultPromptConfig, cfg.ToPromptConfig())
	assert.Equal(t, usecase.DefaultReplies, cfg.ToReplies())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Chdir(t.TempDir())
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("WARN_LIMIT", "0")
	t.Setenv("WELCOME_TTL", "1m")
	t.Setenv("DEFAULT_FILTERS", "spam, ,casino")
	t.Setenv("AI_HISTORY_SIZE", "4")
	t.Setenv("AI_RATE_LIMIT", "0")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 0, cfg.AI.RateLimit)
	assert.Equal(t, 0, cfg.Moderation.WarnLimit)
	assert.Equal(t, time.Minute, cfg.Moderation.WelcomeTTL)
	assert.Equal(t, []string{"spam", "casino"}, cfg.Moderation.DefaultFilters)
	assert.Equal(t, 4, cfg.AI.HistorySize)
	assert.Equal(t, 4, cfg.ToPromptConfig().MaxHistoryCount)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"spam", "casino"}, cfg.ToGroupDefaults().DefaultFilters)
}

func TestLoadInvalidIDs(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_IDS", "1,abc")

	_, err := Load(zap.NewNop().Sugar())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ADMIN_IDS", cfgErr.Field)

	t.Setenv("ADMIN_IDS", "1")
	t.Setenv("GROUP_CHAT_ID", "main")
	_, err = Load(zap.NewNop().Sugar())
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GROUP_CHAT_ID", cfgErr.Field)
}

func TestValidateMissing(t *testing.T) {
	for _, field := range []string{"TELEGRAM_BOT_TOKEN", "AI_API_KEY", "WEBHOOK_URL", "ADMIN_IDS", "GROUP_CHAT_ID"} {
		t.Run(field, func(t *testing.T) {
			setRequired(t)
			t.Chdir(t.TempDir())
			t.Setenv(field, "")

			cfg, err := Load(zap.NewNop().Sugar())
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigurationMissing))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}

func TestValidateProvider(t *testing.T) {
	setRequired(t)
	t.Chdir(t.TempDir())
	t.Setenv("AI_PROVIDER", "llama")

	cfg, err := Load(zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrConfigurationMissing)
}

func TestLoadMessagesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	yaml := `
ai:
  system_prompt: "You are the bot of {{chat_title}}."
history:
  max_count: 7
replies:
  welcome: "Hi {name}!"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadMessagesConfig(path, zap.NewNop().Sugar())
	require.NoError(t, err)

	prompt := cfg.ToPromptConfig()
	assert.Equal(t, "You are the bot of {{chat_title}}.", prompt.SystemPrompt)
	assert.Equal(t, 7, prompt.MaxHistoryCount)
	assert.Equal(t, usecase.DefaultPromptConfig.MaxHistoryMinutes, prompt.MaxHistoryMinutes)
	assert.Equal(t, usecase.DefaultPromptConfig.HistoryMarker, prompt.HistoryMarker)

	replies := cfg.ToReplies()
	assert.Equal(t, "Hi {name}!", replies.Welcome)
	assert.Equal(t, usecase.DefaultReplies.Banned, replies.Banned)
}

func TestLoadMessagesConfigErrors(t *testing.T) {
	_, err := LoadMessagesConfig(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop().Sugar())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unclosed"), 0o644))
	_, err = LoadMessagesConfig(path, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestLoadMessagesConfigSearch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "messages.yaml"),
		[]byte("replies:\n  banned: \"gone: {user}\"\n"), 0o644))

	cfg, err := LoadMessagesConfig("", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "gone: {user}", cfg.ToReplies().Banned)
}
