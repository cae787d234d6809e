package domain

import (
	"slices"
	"time"
)

// Setting names a toggle in GroupConfig that admins can flip from /settings
type Setting string

const (
	SettingWelcome    Setting = "welcome"
	SettingAI         Setting = "ai"
	SettingLinks      Setting = "links"
	SettingPromotions Setting = "promotions"
)

// Settings lists every toggle in the order shown on the settings keyboard
var Settings = []Setting{SettingWelcome, SettingAI, SettingLinks, SettingPromotions}

// GroupConfig holds per-chat moderation configuration
type GroupConfig struct {
	ChatID           int64
	Title            string
	AdminIDs         []int64
	WelcomeTemplate  string
	WelcomeEnabled   bool
	AIEnabled        bool
	DeleteLinks      bool
	DeletePromotions bool
	UpdatedAt        time.Time
}

// DefaultGroupConfig returns the configuration a chat gets when first seen
func DefaultGroupConfig(chatID int64) *GroupConfig {
	return &GroupConfig{
		ChatID:           chatID,
		WelcomeEnabled:   true,
		AIEnabled:        true,
		DeleteLinks:      true,
		DeletePromotions: true,
	}
}

// IsAdmin reports whether userID is in the admin set
func (g *GroupConfig) IsAdmin(userID int64) bool {
	return slices.Contains(g.AdminIDs, userID)
}

// AddAdmin adds userID to the admin set if absent
func (g *GroupConfig) AddAdmin(userID int64) bool {
	if g.IsAdmin(userID) {
		return false
	}
	g.AdminIDs = append(g.AdminIDs, userID)
	return true
}

// Enabled reports the current value of a toggle
func (g *GroupConfig) Enabled(s Setting) bool {
	switch s {
	case SettingWelcome:
		return g.WelcomeEnabled
	case SettingAI:
		return g.AIEnabled
	case SettingLinks:
		return g.DeleteLinks
	case SettingPromotions:
		return g.DeletePromotions
	}
	return false
}

// Toggle flips a setting and returns its new value
func (g *GroupConfig) Toggle(s Setting) (bool, error) {
	switch s {
	case SettingWelcome:
		g.WelcomeEnabled = !g.WelcomeEnabled
	case SettingAI:
		g.AIEnabled = !g.AIEnabled
	case SettingLinks:
		g.DeleteLinks = !g.DeleteLinks
	case SettingPromotions:
		g.DeletePromotions = !g.DeletePromotions
	default:
		return false, ErrNotFound
	}
	return g.Enabled(s), nil
}

// Clone returns a deep copy safe to mutate
func (g *GroupConfig) Clone() *GroupConfig {
	c := *g
	c.AdminIDs = slices.Clone(g.AdminIDs)
	return &c
}
