package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|t\.me/\S+)`)

// Classifier turns updates into events. It holds no mutable state.
type Classifier struct {
	botID       int64
	botUsername string
	groupChatID int64
}

// NewClassifier creates a classifier for the given bot and managed group
func NewClassifier(botID int64, botUsername string, groupChatID int64) *Classifier {
	return &Classifier{
		botID:       botID,
		botUsername: strings.TrimPrefix(botUsername, "@"),
		groupChatID: groupChatID,
	}
}

// Classify assigns exactly one kind to an update. It returns (nil, nil) for
// updates the bot ignores. For a non-admin invoking an admin-only command it
// returns the event together with domain.ErrUnauthorized.
func (c *Classifier) Classify(u *domain.Update, isAdmin func(userID int64) bool) (*domain.Event, error) {
	if u == nil {
		return nil, nil
	}
	if u.ChatType == domain.ChatTypeChannel {
		return nil, nil
	}
	if u.ChatType.IsGroup() && u.ChatID != c.groupChatID {
		return nil, nil
	}

	ev := &domain.Event{
		UpdateID:  u.UpdateID,
		ChatID:    u.ChatID,
		ChatType:  u.ChatType,
		ChatTitle: u.ChatTitle,
		MessageID: u.MessageID,
		From:      u.From,
		Text:      u.Text,
		ReplyTo:   u.ReplyTo,
		IsForward: u.IsForward,
	}
	if isAdmin != nil {
		ev.FromAdmin = isAdmin(u.From.ID)
	}

	switch {
	case u.Callback != nil:
		ev.Kind = domain.EventCallback
		ev.Callback = u.Callback
		return ev, nil
	case len(u.NewMembers) > 0:
		ev.Kind = domain.EventJoin
		ev.Members = u.NewMembers
		return ev, nil
	case u.LeftMember != nil:
		ev.Kind = domain.EventLeave
		ev.Members = []domain.Sender{*u.LeftMember}
		return ev, nil
	case strings.TrimSpace(u.Text) == "":
		return nil, nil
	}

	if name, args, ok := c.parseCommand(u.Text); ok {
		entry, known := Commands[name]
		if known {
			ev.Command = entry.Name
			ev.Args = args
			ev.ArgText = afterFirstField(u.Text)
			if !entry.AdminOnly {
				ev.Kind = domain.EventCommand
				return ev, nil
			}
			ev.Kind = domain.EventAdminAction
			if !ev.FromAdmin {
				return ev, domain.ErrUnauthorized
			}
			return ev, nil
		}
	}

	ev.Kind = domain.EventText
	ev.HasLink = u.HasLink || linkPattern.MatchString(u.Text)
	ev.RepliesToBot = u.ReplyTo != nil && u.ReplyTo.ID == c.botID
	if c.botUsername != "" {
		ev.MentionsBot = strings.Contains(strings.ToLower(u.Text), "@"+strings.ToLower(c.botUsername))
	}
	return ev, nil
}

// afterFirstField drops the first whitespace-separated token and the spaces after it
func afterFirstField(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// parseCommand splits "/name@bot arg1 arg2". Commands addressed to another bot are not ours.
func (c *Classifier) parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		name = name[:at]
		if !strings.EqualFold(target, c.botUsername) {
			return "", nil, false
		}
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}
