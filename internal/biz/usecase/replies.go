package usecase

import "strings"

// Replies holds every user-facing text the bot sends. Placeholders are written
// as {name} and filled by Format.
type Replies struct {
	Welcome            string // {names} {title}
	StartPrivate       string // {title}
	StartGroup         string
	HelpHeader         string
	Unauthorized       string
	PrivateAdminsOnly  string
	FilterUsage        string
	FilterAdded        string // {pattern}
	FilterDuplicate    string // {pattern}
	FilterRemoved      string // {pattern}
	FilterNotFound     string // {pattern}
	FilterListEmpty    string
	FilterListHeader   string
	Warning            string // {user} {reason} {count} {limit}
	AutoBanned         string // {user}
	BanUsage           string
	UserNotFound       string // {user}
	CannotBanAdmin     string
	Banned             string // {user}
	Unbanned           string // {user}
	Purged             string // {user}
	EmptyLeaderboard   string
	LeaderboardCaption string
	Stats              string // {user} {messages} {ai} {warnings} {since}
	NoStats            string
	SettingsHeader     string
	SettingUpdated     string // {setting} {state}
	ReasonFilter       string
	ReasonLink         string
	ReasonPromotion    string
}

// DefaultReplies contains the default texts
var DefaultReplies = Replies{
	Welcome:            "👋 Welcome to {title}, {names}! Please read the pinned rules and enjoy your stay.",
	StartPrivate:       "🤖 Hi! I manage {title}: I welcome new members, remove spam, keep activity stats and answer questions when mentioned. Admins can use /help.",
	StartGroup:         "🤖 Group assistant is active. Mention me to ask a question.",
	HelpHeader:         "🛠 Admin commands:",
	Unauthorized:       "⛔ This command is for admins only.",
	PrivateAdminsOnly:  "🔒 Only group admins can message me privately.",
	FilterUsage:        "Usage: /filter add <word> | /filter remove <word> | /filter list",
	FilterAdded:        "✅ Added filter: {pattern}",
	FilterDuplicate:    "⚠️ Filter already exists: {pattern}",
	FilterRemoved:      "🗑 Removed filter: {pattern}",
	FilterNotFound:     "❓ No such filter: {pattern}",
	FilterListEmpty:    "No filtered words yet.",
	FilterListHeader:   "🚫 Filtered words:",
	Warning:            "⚠️ {user}, your message was removed ({reason}). Warning {count}/{limit}.",
	AutoBanned:         "🚫 {user} has been banned after repeated warnings.",
	BanUsage:           "Usage: /ban @username, or reply to a message with /ban",
	UserNotFound:       "❓ I don't know {user} yet.",
	CannotBanAdmin:     "⛔ Admins cannot be banned.",
	Banned:             "🔨 {user} has been banned.",
	Unbanned:           "✅ {user} has been unbanned.",
	Purged:             "🧹 Forgot all activity of {user}.",
	EmptyLeaderboard:   "📊 No activity recorded yet.",
	LeaderboardCaption: "📊 Most active members",
	Stats:              "📈 {user}\nMessages: {messages}\nAI questions: {ai}\nWarnings: {warnings}\nMember since: {since}",
	NoStats:            "📈 No activity recorded for you yet.",
	SettingsHeader:     "⚙️ Group settings (tap to toggle):",
	SettingUpdated:     "{setting}: {state}",
	ReasonFilter:       "banned word",
	ReasonLink:         "links are not allowed",
	ReasonPromotion:    "promotion",
}

// WithDefaults fills empty fields from DefaultReplies
func (r Replies) WithDefaults() Replies {
	d := DefaultReplies
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&r.Welcome, d.Welcome)
	fill(&r.StartPrivate, d.StartPrivate)
	fill(&r.StartGroup, d.StartGroup)
	fill(&r.HelpHeader, d.HelpHeader)
	fill(&r.Unauthorized, d.Unauthorized)
	fill(&r.PrivateAdminsOnly, d.PrivateAdminsOnly)
	fill(&r.FilterUsage, d.FilterUsage)
	fill(&r.FilterAdded, d.FilterAdded)
	fill(&r.FilterDuplicate, d.FilterDuplicate)
	fill(&r.FilterRemoved, d.FilterRemoved)
	fill(&r.FilterNotFound, d.FilterNotFound)
	fill(&r.FilterListEmpty, d.FilterListEmpty)
	fill(&r.FilterListHeader, d.FilterListHeader)
	fill(&r.Warning, d.Warning)
	fill(&r.AutoBanned, d.AutoBanned)
	fill(&r.BanUsage, d.BanUsage)
	fill(&r.UserNotFound, d.UserNotFound)
	fill(&r.CannotBanAdmin, d.CannotBanAdmin)
	fill(&r.Banned, d.Banned)
	fill(&r.Unbanned, d.Unbanned)
	fill(&r.Purged, d.Purged)
	fill(&r.EmptyLeaderboard, d.EmptyLeaderboard)
	fill(&r.LeaderboardCaption, d.LeaderboardCaption)
	fill(&r.Stats, d.Stats)
	fill(&r.NoStats, d.NoStats)
	fill(&r.SettingsHeader, d.SettingsHeader)
	fill(&r.SettingUpdated, d.SettingUpdated)
	fill(&r.ReasonFilter, d.ReasonFilter)
	fill(&r.ReasonLink, d.ReasonLink)
	fill(&r.ReasonPromotion, d.ReasonPromotion)
	return r
}

// Format replaces {key} placeholders with values given as key, value pairs
func Format(template string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
