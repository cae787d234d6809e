package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

// MessagesConfig contains every configurable text, loaded from YAML
type MessagesConfig struct {
	AI      AIPrompts     `yaml:"ai"`
	History HistoryConfig `yaml:"history"`
	Replies RepliesConfig `yaml:"replies"`
}

// AIPrompts contains AI prompt texts
type AIPrompts struct {
	SystemPrompt        string `yaml:"system_prompt"`
	HistoryMarker       string `yaml:"history_marker"`
	CurrentMarker       string `yaml:"current_marker"`
	ChatContextTemplate string `yaml:"chat_context_template"`
}

// HistoryConfig contains history truncation settings
type HistoryConfig struct {
	MaxCount   int `yaml:"max_count"`
	MaxMinutes int `yaml:"max_minutes"`
}

// RepliesConfig contains the bot's replies; empty values keep the built-in text
type RepliesConfig struct {
	Welcome            string `yaml:"welcome"`
	StartPrivate       string `yaml:"start_private"`
	StartGroup         string `yaml:"start_group"`
	HelpHeader         string `yaml:"help_header"`
	Unauthorized       string `yaml:"unauthorized"`
	PrivateAdminsOnly  string `yaml:"private_admins_only"`
	FilterUsage        string `yaml:"filter_usage"`
	FilterAdded        string `yaml:"filter_added"`
	FilterDuplicate    string `yaml:"filter_duplicate"`
	FilterRemoved      string `yaml:"filter_removed"`
	FilterNotFound     string `yaml:"filter_not_found"`
	FilterListEmpty    string `yaml:"filter_list_empty"`
	FilterListHeader   string `yaml:"filter_list_header"`
	Warning            string `yaml:"warning"`
	AutoBanned         string `yaml:"auto_banned"`
	BanUsage           string `yaml:"ban_usage"`
	UserNotFound       string `yaml:"user_not_found"`
	CannotBanAdmin     string `yaml:"cannot_ban_admin"`
	Banned             string `yaml:"banned"`
	Unbanned           string `yaml:"unbanned"`
	Purged             string `yaml:"purged"`
	EmptyLeaderboard   string `yaml:"empty_leaderboard"`
	LeaderboardCaption string `yaml:"leaderboard_caption"`
	Stats              string `yaml:"stats"`
	NoStats            string `yaml:"no_stats"`
	SettingsHeader     string `yaml:"settings_header"`
	SettingUpdated     string `yaml:"setting_updated"`
	ReasonFilter       string `yaml:"reason_filter"`
	ReasonLink         string `yaml:"reason_link"`
	ReasonPromotion    string `yaml:"reason_promotion"`
}

// LoadMessagesConfig loads texts from a YAML file. An empty path searches the
// usual locations; when nothing is found the defaults are used.
func LoadMessagesConfig(configPath string, log *zap.SugaredLogger) (*MessagesConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/groupbot/messages.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("read messages config: %w", err)
		}
	}

	if data == nil {
		log.Info("no messages.yaml found, using defaults")
		return DefaultMessagesConfig(), nil
	}

	log.Infow("loading messages", "path", loadedPath)

	var config MessagesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty prompt fields
func (c *MessagesConfig) fillDefaults() {
	defaults := DefaultMessagesConfig()

	if c.AI.SystemPrompt == "" {
		c.AI.SystemPrompt = defaults.AI.SystemPrompt
	}
	if c.AI.HistoryMarker == "" {
		c.AI.HistoryMarker = defaults.AI.HistoryMarker
	}
	if c.AI.CurrentMarker == "" {
		c.AI.CurrentMarker = defaults.AI.CurrentMarker
	}
	if c.AI.ChatContextTemplate == "" {
		c.AI.ChatContextTemplate = defaults.AI.ChatContextTemplate
	}
	if c.History.MaxCount == 0 {
		c.History.MaxCount = defaults.History.MaxCount
	}
	if c.History.MaxMinutes == 0 {
		c.History.MaxMinutes = defaults.History.MaxMinutes
	}
}

// DefaultMessagesConfig returns the built-in texts
func DefaultMessagesConfig() *MessagesConfig {
	p := usecase.DefaultPromptConfig
	return &MessagesConfig{
		AI: AIPrompts{
			SystemPrompt:        p.SystemPrompt,
			HistoryMarker:       p.HistoryMarker,
			CurrentMarker:       p.CurrentMarker,
			ChatContextTemplate: p.ChatContextTemplate,
		},
		History: HistoryConfig{
			MaxCount:   p.MaxHistoryCount,
			MaxMinutes: p.MaxHistoryMinutes,
		},
	}
}

// ToPromptConfig converts to prompt configuration
func (c *MessagesConfig) ToPromptConfig() usecase.PromptConfig {
	return usecase.PromptConfig{
		SystemPrompt:        c.AI.SystemPrompt,
		HistoryMarker:       c.AI.HistoryMarker,
		CurrentMarker:       c.AI.CurrentMarker,
		ChatContextTemplate: c.AI.ChatContextTemplate,
		MaxHistoryCount:     c.History.MaxCount,
		MaxHistoryMinutes:   c.History.MaxMinutes,
	}
}

// ToReplies converts to the moderation replies, defaults filled in
func (c *MessagesConfig) ToReplies() usecase.Replies {
	r := c.Replies
	return usecase.Replies{
		Welcome:            r.Welcome,
		StartPrivate:       r.StartPrivate,
		StartGroup:         r.StartGroup,
		HelpHeader:         r.HelpHeader,
		Unauthorized:       r.Unauthorized,
		PrivateAdminsOnly:  r.PrivateAdminsOnly,
		FilterUsage:        r.FilterUsage,
		FilterAdded:        r.FilterAdded,
		FilterDuplicate:    r.FilterDuplicate,
		FilterRemoved:      r.FilterRemoved,
		FilterNotFound:     r.FilterNotFound,
		FilterListEmpty:    r.FilterListEmpty,
		FilterListHeader:   r.FilterListHeader,
		Warning:            r.Warning,
		AutoBanned:         r.AutoBanned,
		BanUsage:           r.BanUsage,
		UserNotFound:       r.UserNotFound,
		CannotBanAdmin:     r.CannotBanAdmin,
		Banned:             r.Banned,
		Unbanned:           r.Unbanned,
		Purged:             r.Purged,
		EmptyLeaderboard:   r.EmptyLeaderboard,
		LeaderboardCaption: r.LeaderboardCaption,
		Stats:              r.Stats,
		NoStats:            r.NoStats,
		SettingsHeader:     r.SettingsHeader,
		SettingUpdated:     r.SettingUpdated,
		ReasonFilter:       r.ReasonFilter,
		ReasonLink:         r.ReasonLink,
		ReasonPromotion:    r.ReasonPromotion,
	}.WithDefaults()
}
