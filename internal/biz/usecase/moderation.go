package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// DefaultPromoKeywords mark a link-carrying message as a promotion
var DefaultPromoKeywords = []string{"join", "channel", "group", "subscribe", "follow", "t.me"}

// settingsCallbackPrefix prefixes inline keyboard data for settings toggles
const settingsCallbackPrefix = "settings:"

var settingLabels = map[domain.Setting]string{
	domain.SettingWelcome:    "Welcome messages",
	domain.SettingAI:         "AI answers",
	domain.SettingLinks:      "Delete links",
	domain.SettingPromotions: "Delete promotions",
}

// ModerationConfig contains moderation policy configuration
type ModerationConfig struct {
	GroupChatID   int64
	BotID         int64
	BotUsername   string
	WelcomeTTL    time.Duration // 0 keeps welcome messages
	PromoKeywords []string
	AIRateLimit   int // AI answers per chat per AIRateWindow, 0 is unlimited
	AIRateWindow  time.Duration
}

type commandHandler func(ctx context.Context, ev *domain.Event, scope int64, cfg *domain.GroupConfig, d *domain.Decision) error

// ModerationUsecase maps classified events to decisions. Store mutations are
// committed here; everything that talks to the platform is returned as an action.
type ModerationUsecase struct {
	groupUC      *GroupUsecase
	filterUC     *FilterUsecase
	userUC       *UserUsecase
	escalationUC *EscalationUsecase
	statsUC      *StatsUsecase
	contextUC    *ContextBuilderUsecase
	replies      Replies
	cfg          ModerationConfig
	mention      *regexp.Regexp
	aiQuota      *AIQuota

	handlers map[string]commandHandler
}

// NewModerationUsecase creates a new moderation usecase
func NewModerationUsecase(
	groupUC *GroupUsecase,
	filterUC *FilterUsecase,
	userUC *UserUsecase,
	escalationUC *EscalationUsecase,
	statsUC *StatsUsecase,
	contextUC *ContextBuilderUsecase,
	replies Replies,
	cfg ModerationConfig,
) *ModerationUsecase {
	if cfg.PromoKeywords == nil {
		cfg.PromoKeywords = DefaultPromoKeywords
	}
	uc := &ModerationUsecase{
		groupUC:      groupUC,
		filterUC:     filterUC,
		userUC:       userUC,
		escalationUC: escalationUC,
		statsUC:      statsUC,
		contextUC:    contextUC,
		replies:      replies.WithDefaults(),
		cfg:          cfg,
		aiQuota:      NewAIQuota(cfg.AIRateLimit, cfg.AIRateWindow),
	}
	if name := strings.TrimPrefix(cfg.BotUsername, "@"); name != "" {
		uc.mention = regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(name) + `\b`)
	}
	uc.handlers = map[string]commandHandler{
		"start":       uc.cmdStart,
		"stats":       uc.cmdStats,
		"help":        uc.cmdHelp,
		"topusers":    uc.cmdTopUsers,
		"filter":      uc.cmdFilter,
		"unfilter":    uc.cmdUnfilter,
		"listfilters": uc.cmdListFilters,
		"ban":         uc.cmdBan,
		"unban":       uc.cmdUnban,
		"purge":       uc.cmdPurge,
		"settings":    uc.cmdSettings,
	}
	return uc
}

// GroupChatID returns the managed group's chat id
func (uc *ModerationUsecase) GroupChatID() int64 {
	return uc.cfg.GroupChatID
}

// Decide produces the ordered actions for an event. A non-nil decision may be
// returned together with an error; its actions are still valid to dispatch.
func (uc *ModerationUsecase) Decide(ctx context.Context, ev *domain.Event) (*domain.Decision, error) {
	d := &domain.Decision{Reason: string(ev.Kind)}

	cfg, err := uc.groupUC.Get(ctx, uc.cfg.GroupChatID)
	if err != nil {
		return d, err
	}

	switch ev.Kind {
	case domain.EventJoin:
		err = uc.decideJoin(ctx, ev, cfg, d)
	case domain.EventLeave:
		d.Add(domain.DeleteMessage(ev.ChatID, ev.MessageID))
	case domain.EventText:
		err = uc.decideText(ctx, ev, cfg, d)
	case domain.EventCommand, domain.EventAdminAction:
		err = uc.decideCommand(ctx, ev, cfg, d)
	case domain.EventCallback:
		err = uc.decideCallback(ctx, ev, d)
	}
	return d, err
}

// Deny answers an unauthorized command without touching any state
func (uc *ModerationUsecase) Deny(ev *domain.Event) *domain.Decision {
	d := &domain.Decision{Reason: "unauthorized"}
	d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.Unauthorized))
	return d
}

func (uc *ModerationUsecase) decideJoin(ctx context.Context, ev *domain.Event, cfg *domain.GroupConfig, d *domain.Decision) error {
	d.Add(domain.DeleteMessage(ev.ChatID, ev.MessageID))

	var names []string
	var errs []error
	for _, m := range ev.Members {
		if m.ID == uc.cfg.BotID {
			errs = append(errs, uc.adoptGroup(ctx, ev))
			continue
		}
		if m.IsBot {
			continue
		}
		errs = append(errs, uc.userUC.Touch(ctx, ev.ChatID, m))
		names = append(names, m.Mention())
	}

	if cfg.WelcomeEnabled && len(names) > 0 {
		template := cfg.WelcomeTemplate
		if template == "" {
			template = uc.replies.Welcome
		}
		welcome := domain.Reply(ev.ChatID, 0, Format(template,
			"names", strings.Join(names, ", "),
			"title", uc.groupTitle(ev, cfg),
		))
		welcome.DeleteAfter = uc.cfg.WelcomeTTL
		d.Add(welcome)
	}
	return errors.Join(errs...)
}

// adoptGroup records who added the bot as an admin of the group
func (uc *ModerationUsecase) adoptGroup(ctx context.Context, ev *domain.Event) error {
	if ev.From.ID == 0 || ev.From.IsBot {
		return nil
	}
	_, err := uc.groupUC.Update(ctx, uc.cfg.GroupChatID, func(cfg *domain.GroupConfig) error {
		cfg.AddAdmin(ev.From.ID)
		if ev.ChatTitle != "" {
			cfg.Title = ev.ChatTitle
		}
		return nil
	})
	return err
}

func (uc *ModerationUsecase) decideText(ctx context.Context, ev *domain.Event, cfg *domain.GroupConfig, d *domain.Decision) error {
	if ev.IsPrivate() {
		if !ev.FromAdmin {
			d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.PrivateAdminsOnly))
			return nil
		}
		uc.recordLine(ev)
		uc.askAI(ev, cfg, d)
		return nil
	}

	reason, err := uc.violation(ctx, ev, cfg)
	if err != nil {
		return err
	}
	if reason != "" {
		d.Reason = reason
		return uc.punish(ctx, ev, reason, d)
	}

	if _, err := uc.userUC.RecordActivity(ctx, ev.ChatID, ev.From); err != nil {
		return err
	}
	uc.recordLine(ev)

	if ev.MentionsBot || ev.RepliesToBot {
		uc.askAI(ev, cfg, d)
	}
	return nil
}

// askAI attaches an AI request when the chat has AI on and quota left
func (uc *ModerationUsecase) askAI(ev *domain.Event, cfg *domain.GroupConfig, d *domain.Decision) {
	if !cfg.AIEnabled || !uc.aiQuota.Allow(ev.ChatID) {
		return
	}
	d.AI = uc.aiRequest(ev, cfg)
}

// violation returns why a message must be removed, or "" when it may stay
func (uc *ModerationUsecase) violation(ctx context.Context, ev *domain.Event, cfg *domain.GroupConfig) (string, error) {
	rule, err := uc.filterUC.Match(ctx, ev.ChatID, ev.Text)
	if err != nil {
		return "", err
	}
	if rule != nil {
		return uc.replies.ReasonFilter, nil
	}
	if ev.FromAdmin {
		return "", nil
	}
	if cfg.DeleteLinks && ev.HasLink {
		return uc.replies.ReasonLink, nil
	}
	if cfg.DeletePromotions && uc.isPromotion(ev) {
		return uc.replies.ReasonPromotion, nil
	}
	return "", nil
}

func (uc *ModerationUsecase) isPromotion(ev *domain.Event) bool {
	if ev.IsForward {
		return true
	}
	if !ev.HasLink {
		return false
	}
	lower := strings.ToLower(ev.Text)
	for _, kw := range uc.cfg.PromoKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// punish deletes the message, warns the sender and bans on escalation
func (uc *ModerationUsecase) punish(ctx context.Context, ev *domain.Event, reason string, d *domain.Decision) error {
	d.Add(domain.DeleteMessage(ev.ChatID, ev.MessageID))

	count, err := uc.userUC.RecordWarning(ctx, ev.ChatID, ev.From)
	if err != nil {
		return err
	}

	limit := "∞"
	if uc.escalationUC.Limit() > 0 {
		limit = strconv.Itoa(uc.escalationUC.Limit())
	}
	d.Add(domain.Warn(ev.ChatID, ev.From.ID, Format(uc.replies.Warning,
		"user", ev.From.Mention(),
		"reason", reason,
		"count", strconv.FormatInt(count, 10),
		"limit", limit,
	)))

	if ev.FromAdmin || !uc.escalationUC.Warn(ev.ChatID, ev.From.ID) {
		return nil
	}

	if err := uc.userUC.SetBanned(ctx, ev.ChatID, ev.From.ID, true); err != nil {
		return err
	}
	uc.escalationUC.Reset(ev.ChatID, ev.From.ID)
	d.Reason = "auto-ban"
	d.Add(
		domain.Ban(ev.ChatID, ev.From.ID),
		domain.Reply(ev.ChatID, 0, Format(uc.replies.AutoBanned, "user", ev.From.Mention())),
	)
	return nil
}

func (uc *ModerationUsecase) recordLine(ev *domain.Event) {
	uc.contextUC.Record(domain.Message{
		ChatID:     ev.ChatID,
		SenderID:   ev.From.ID,
		SenderName: ev.From.DisplayName(),
		Content:    ev.Text,
	})
}

func (uc *ModerationUsecase) aiRequest(ev *domain.Event, cfg *domain.GroupConfig) *domain.AIRequest {
	question := ev.Text
	if uc.mention != nil {
		question = strings.TrimSpace(uc.mention.ReplaceAllString(question, ""))
	}
	if question == "" {
		question = ev.Text
	}
	return &domain.AIRequest{
		ChatID:    ev.ChatID,
		ChatTitle: uc.groupTitle(ev, cfg),
		ReplyTo:   ev.MessageID,
		UserID:    ev.From.ID,
		Asker:     ev.From.DisplayName(),
		Question:  question,
	}
}

func (uc *ModerationUsecase) groupTitle(ev *domain.Event, cfg *domain.GroupConfig) string {
	if ev.ChatType.IsGroup() && ev.ChatTitle != "" {
		return ev.ChatTitle
	}
	if cfg.Title != "" {
		return cfg.Title
	}
	return "the group"
}

func (uc *ModerationUsecase) decideCommand(ctx context.Context, ev *domain.Event, cfg *domain.GroupConfig, d *domain.Decision) error {
	handler, ok := uc.handlers[ev.Command]
	if !ok {
		return fmt.Errorf("no handler for command %q", ev.Command)
	}
	d.Reason = "/" + ev.Command

	// commands sent privately act on the managed group
	scope := ev.ChatID
	if ev.IsPrivate() {
		scope = uc.cfg.GroupChatID
	}
	return handler(ctx, ev, scope, cfg, d)
}

func (uc *ModerationUsecase) cmdStart(_ context.Context, ev *domain.Event, _ int64, cfg *domain.GroupConfig, d *domain.Decision) error {
	text := uc.replies.StartGroup
	if ev.IsPrivate() {
		text = Format(uc.replies.StartPrivate, "title", uc.groupTitle(ev, cfg))
	}
	d.Add(domain.Reply(ev.ChatID, ev.MessageID, text))
	return nil
}

func (uc *ModerationUsecase) cmdStats(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	u, err := uc.userUC.Get(ctx, scope, ev.From.ID)
	if errors.Is(err, domain.ErrNotFound) {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.NoStats))
		return nil
	}
	if err != nil {
		return err
	}
	d.Add(domain.Reply(ev.ChatID, ev.MessageID, Format(uc.replies.Stats,
		"user", ev.From.Mention(),
		"messages", strconv.FormatInt(u.MessageCount, 10),
		"ai", strconv.FormatInt(u.AIInteractions, 10),
		"warnings", strconv.FormatInt(u.Warnings, 10),
		"since", u.FirstSeen.Format("2006-01-02"),
	)))
	return nil
}

func (uc *ModerationUsecase) cmdHelp(_ context.Context, ev *domain.Event, _ int64, _ *domain.GroupConfig, d *domain.Decision) error {
	var sb strings.Builder
	sb.WriteString(uc.replies.HelpHeader)
	for _, c := range SortedCommands() {
		sb.WriteString(fmt.Sprintf("\n%s - %s", c.Usage, c.Description))
	}
	d.Add(domain.Reply(ev.ChatID, ev.MessageID, sb.String()))
	return nil
}

func (uc *ModerationUsecase) cmdTopUsers(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	png, err := uc.statsUC.Leaderboard(ctx, scope)
	if errors.Is(err, domain.ErrEmptyLeaderboard) {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.EmptyLeaderboard))
		return nil
	}
	if err != nil {
		return err
	}
	d.Add(domain.Action{
		Kind:      domain.ActionSendPhoto,
		ChatID:    ev.ChatID,
		MessageID: ev.MessageID,
		Text:      uc.replies.LeaderboardCaption,
		Photo:     png,
	})
	return nil
}

func (uc *ModerationUsecase) cmdFilter(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	if len(ev.Args) == 0 {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.FilterUsage))
		return nil
	}
	// the pattern keeps its inner spacing, "free   money" stays as typed
	pattern := domain.NormalizePattern(afterFirstField(ev.ArgText))
	return uc.filterAction(ctx, ev, scope, strings.ToLower(ev.Args[0]), pattern, d)
}

func (uc *ModerationUsecase) cmdUnfilter(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	return uc.filterAction(ctx, ev, scope, "remove", domain.NormalizePattern(ev.ArgText), d)
}

func (uc *ModerationUsecase) cmdListFilters(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	return uc.filterAction(ctx, ev, scope, "list", "", d)
}

func (uc *ModerationUsecase) filterAction(ctx context.Context, ev *domain.Event, scope int64, sub, pattern string, d *domain.Decision) error {
	reply := func(text string) {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, text))
	}

	switch sub {
	case "list":
		rules, err := uc.filterUC.List(ctx, scope)
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			reply(uc.replies.FilterListEmpty)
			return nil
		}
		var sb strings.Builder
		sb.WriteString(uc.replies.FilterListHeader)
		for _, r := range rules {
			sb.WriteString("\n• " + r.Pattern)
		}
		reply(sb.String())
	case "add":
		if pattern == "" {
			reply(uc.replies.FilterUsage)
			return nil
		}
		_, err := uc.filterUC.Add(ctx, scope, pattern)
		switch {
		case errors.Is(err, domain.ErrDuplicateRule):
			reply(Format(uc.replies.FilterDuplicate, "pattern", pattern))
		case err != nil:
			return err
		default:
			reply(Format(uc.replies.FilterAdded, "pattern", pattern))
		}
	case "remove", "rm", "del":
		if pattern == "" {
			reply(uc.replies.FilterUsage)
			return nil
		}
		err := uc.filterUC.Remove(ctx, scope, pattern)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			reply(Format(uc.replies.FilterNotFound, "pattern", pattern))
		case err != nil:
			return err
		default:
			reply(Format(uc.replies.FilterRemoved, "pattern", pattern))
		}
	default:
		reply(uc.replies.FilterUsage)
	}
	return nil
}

// resolveTarget finds the member a moderation command is aimed at: the author
// of the replied-to message, else the @username argument. On failure it adds
// a reply explaining why and returns nil.
func (uc *ModerationUsecase) resolveTarget(ctx context.Context, ev *domain.Event, scope int64, d *domain.Decision) (*domain.User, error) {
	if ev.ReplyTo != nil && !ev.ReplyTo.IsBot {
		if err := uc.userUC.Touch(ctx, scope, *ev.ReplyTo); err != nil {
			return nil, err
		}
		return uc.userUC.Get(ctx, scope, ev.ReplyTo.ID)
	}
	if len(ev.Args) == 0 {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.BanUsage))
		return nil, nil
	}
	u, err := uc.userUC.FindByUsername(ctx, scope, ev.Args[0])
	if errors.Is(err, domain.ErrNotFound) {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, Format(uc.replies.UserNotFound, "user", ev.Args[0])))
		return nil, nil
	}
	return u, err
}

func (uc *ModerationUsecase) cmdBan(ctx context.Context, ev *domain.Event, scope int64, cfg *domain.GroupConfig, d *domain.Decision) error {
	target, err := uc.resolveTarget(ctx, ev, scope, d)
	if err != nil || target == nil {
		return err
	}
	if uc.groupUC.IsAdmin(cfg, target.UserID) {
		d.Add(domain.Reply(ev.ChatID, ev.MessageID, uc.replies.CannotBanAdmin))
		return nil
	}
	if err := uc.userUC.SetBanned(ctx, scope, target.UserID, true); err != nil {
		return err
	}
	uc.escalationUC.Reset(scope, target.UserID)
	d.Add(
		domain.Ban(scope, target.UserID),
		domain.Reply(ev.ChatID, ev.MessageID, Format(uc.replies.Banned, "user", target.Mention())),
	)
	return nil
}

func (uc *ModerationUsecase) cmdUnban(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	target, err := uc.resolveTarget(ctx, ev, scope, d)
	if err != nil || target == nil {
		return err
	}
	if err := uc.userUC.SetBanned(ctx, scope, target.UserID, false); err != nil {
		return err
	}
	d.Add(
		domain.Unban(scope, target.UserID),
		domain.Reply(ev.ChatID, ev.MessageID, Format(uc.replies.Unbanned, "user", target.Mention())),
	)
	return nil
}

func (uc *ModerationUsecase) cmdPurge(ctx context.Context, ev *domain.Event, scope int64, _ *domain.GroupConfig, d *domain.Decision) error {
	target, err := uc.resolveTarget(ctx, ev, scope, d)
	if err != nil || target == nil {
		return err
	}
	if err := uc.userUC.Purge(ctx, scope, target.UserID); err != nil {
		return err
	}
	uc.escalationUC.Reset(scope, target.UserID)
	d.Add(domain.Reply(ev.ChatID, ev.MessageID, Format(uc.replies.Purged, "user", target.Mention())))
	return nil
}

func (uc *ModerationUsecase) cmdSettings(_ context.Context, ev *domain.Event, _ int64, cfg *domain.GroupConfig, d *domain.Decision) error {
	reply := domain.Reply(ev.ChatID, ev.MessageID, uc.replies.SettingsHeader)
	reply.Keyboard = SettingsKeyboard(cfg)
	d.Add(reply)
	return nil
}

func (uc *ModerationUsecase) decideCallback(ctx context.Context, ev *domain.Event, d *domain.Decision) error {
	cb := ev.Callback
	if !strings.HasPrefix(cb.Data, settingsCallbackPrefix) {
		d.Add(domain.Action{Kind: domain.ActionAnswerCallback, CallbackID: cb.ID})
		return nil
	}
	if !ev.FromAdmin {
		d.Reason = "unauthorized"
		d.Add(domain.Action{Kind: domain.ActionAnswerCallback, CallbackID: cb.ID, Text: uc.replies.Unauthorized})
		return nil
	}

	setting := domain.Setting(strings.TrimPrefix(cb.Data, settingsCallbackPrefix))
	next, err := uc.groupUC.Toggle(ctx, uc.cfg.GroupChatID, setting)
	if errors.Is(err, domain.ErrNotFound) {
		d.Add(domain.Action{Kind: domain.ActionAnswerCallback, CallbackID: cb.ID})
		return nil
	}
	if err != nil {
		return err
	}

	d.Reason = "settings:" + string(setting)
	d.Add(
		domain.Action{Kind: domain.ActionEditKeyboard, ChatID: ev.ChatID, MessageID: cb.MessageID, Keyboard: SettingsKeyboard(next)},
		domain.Action{Kind: domain.ActionAnswerCallback, CallbackID: cb.ID, Text: Format(uc.replies.SettingUpdated,
			"setting", settingLabels[setting],
			"state", onOff(next.Enabled(setting)),
		)},
	)
	return nil
}

// SettingsKeyboard renders one toggle button per setting
func SettingsKeyboard(cfg *domain.GroupConfig) domain.Keyboard {
	kb := make(domain.Keyboard, 0, len(domain.Settings))
	for _, s := range domain.Settings {
		mark := "❌"
		if cfg.Enabled(s) {
			mark = "✅"
		}
		kb = append(kb, []domain.Button{{
			Text: mark + " " + settingLabels[s],
			Data: settingsCallbackPrefix + string(s),
		}})
	}
	return kb
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
