package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

// UpdateOptions controls how admins are recognised
type UpdateOptions struct {
	TrustChatAdmins bool          // ask Telegram whether unknown users administer the group
	AdminCacheTTL   time.Duration // how long a getChatMember answer is reused
}

// UpdateService runs one update through classification, policy, dispatch and AI
type UpdateService struct {
	classifier   *usecase.Classifier
	groupUC      *usecase.GroupUsecase
	userUC       *usecase.UserUsecase
	moderationUC *usecase.ModerationUsecase
	responderUC  *usecase.ResponderUsecase
	messenger    repo.MessengerRepo
	janitor      *Janitor

	opts       UpdateOptions
	adminCache *expirable.LRU[int64, bool]
	log        *zap.SugaredLogger
}

// NewUpdateService creates a new update service
func NewUpdateService(
	classifier *usecase.Classifier,
	groupUC *usecase.GroupUsecase,
	userUC *usecase.UserUsecase,
	moderationUC *usecase.ModerationUsecase,
	responderUC *usecase.ResponderUsecase,
	messenger repo.MessengerRepo,
	janitor *Janitor,
	opts UpdateOptions,
	log *zap.SugaredLogger,
) *UpdateService {
	if opts.AdminCacheTTL <= 0 {
		opts.AdminCacheTTL = 5 * time.Minute
	}
	return &UpdateService{
		classifier:   classifier,
		groupUC:      groupUC,
		userUC:       userUC,
		moderationUC: moderationUC,
		responderUC:  responderUC,
		messenger:    messenger,
		janitor:      janitor,
		opts:         opts,
		adminCache:   expirable.NewLRU[int64, bool](1024, nil, opts.AdminCacheTTL),
		log:          log,
	}
}

// Handle processes one update. Store mutations are committed before any
// platform call; platform failures are logged and never abort the update.
// The returned error is informational, the update has been handled either way.
func (s *UpdateService) Handle(ctx context.Context, u *domain.Update) (err error) {
	// similar to an HTTP server, we want to recover any panics from policy code
	defer func() {
		if r := recover(); r != nil {
			updatePanics.Inc()
			s.log.Errorw("update handling panicked", "panic", r)
			err = fmt.Errorf("update handling panicked: %v", r)
		}
	}()

	ev, classifyErr := s.classifier.Classify(u, s.adminPredicate(ctx))
	if ev == nil {
		updatesIgnored.Inc()
		return classifyErr
	}
	updatesReceived.WithLabelValues(string(ev.Kind)).Inc()

	log := s.log.With("update", ev.UpdateID, "chat", ev.ChatID, "user", ev.From.ID, "kind", ev.Kind)

	var d *domain.Decision
	var decideErr error
	switch {
	case errors.Is(classifyErr, domain.ErrUnauthorized):
		log.Infow("unauthorized command", "command", ev.Command)
		d = s.moderationUC.Deny(ev)
	case classifyErr != nil:
		return fmt.Errorf("classify: %w", classifyErr)
	default:
		d, decideErr = s.moderationUC.Decide(ctx, ev)
		if decideErr != nil {
			decisionErrors.Inc()
		}
	}

	if d != nil {
		log.Debugw("decision", "reason", d.Reason, "actions", len(d.Actions), "ai", d.AI != nil)
		s.dispatch(ctx, d.Actions, log)
		if d.AI != nil {
			s.answer(ctx, d.AI, log)
		}
	}

	if decideErr != nil {
		return fmt.Errorf("decide %s: %w", ev.Kind, decideErr)
	}
	return nil
}

// adminPredicate resolves admin identity against the managed group
func (s *UpdateService) adminPredicate(ctx context.Context) func(userID int64) bool {
	groupID := s.moderationUC.GroupChatID()
	cfg, err := s.groupUC.Get(ctx, groupID)
	if err != nil {
		s.log.Warnw("load group config for admin check", "chat", groupID, "err", err)
		cfg = nil
	}

	return func(userID int64) bool {
		if s.groupUC.IsAdmin(cfg, userID) {
			return true
		}
		if !s.opts.TrustChatAdmins || userID == 0 {
			return false
		}
		return s.isChatAdmin(ctx, groupID, userID)
	}
}

func (s *UpdateService) isChatAdmin(ctx context.Context, chatID, userID int64) bool {
	if ok, found := s.adminCache.Get(userID); found {
		return ok
	}
	ok, err := s.messenger.IsChatAdmin(ctx, chatID, userID)
	if err != nil {
		actionsFailed.WithLabelValues("get_chat_member", errorClass(err)).Inc()
		s.log.Warnw("chat admin lookup failed", "chat", chatID, "user", userID, "err", err)
		return false
	}
	s.adminCache.Add(userID, ok)
	return ok
}

// dispatch performs actions in order; a failed action does not stop the rest
func (s *UpdateService) dispatch(ctx context.Context, actions []domain.Action, log *zap.SugaredLogger) {
	for _, a := range actions {
		if err := s.perform(ctx, a); err != nil {
			class := errorClass(err)
			actionsFailed.WithLabelValues(string(a.Kind), class).Inc()
			if class == "timeout" {
				err = fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
			}
			log.Warnw("action failed", "action", a.Kind, "target_chat", a.ChatID, "message", a.MessageID, "err", err)
			continue
		}
		actionsDispatched.WithLabelValues(string(a.Kind)).Inc()
	}
}

func (s *UpdateService) perform(ctx context.Context, a domain.Action) error {
	switch a.Kind {
	case domain.ActionDelete:
		return s.messenger.DeleteMessage(ctx, a.ChatID, a.MessageID)
	case domain.ActionSendText, domain.ActionWarn:
		id, err := s.messenger.SendText(ctx, a.ChatID, a.MessageID, a.Text, a.Keyboard)
		if err != nil {
			return err
		}
		if a.DeleteAfter > 0 && s.janitor != nil {
			s.janitor.Schedule(a.ChatID, id, a.DeleteAfter)
		}
		return nil
	case domain.ActionSendPhoto:
		_, err := s.messenger.SendPhoto(ctx, a.ChatID, a.MessageID, a.Text, a.Photo)
		return err
	case domain.ActionBan:
		return s.messenger.BanMember(ctx, a.ChatID, a.UserID)
	case domain.ActionUnban:
		return s.messenger.UnbanMember(ctx, a.ChatID, a.UserID)
	case domain.ActionEditKeyboard:
		return s.messenger.EditKeyboard(ctx, a.ChatID, a.MessageID, a.Keyboard)
	case domain.ActionAnswerCallback:
		return s.messenger.AnswerCallback(ctx, a.CallbackID, a.Text)
	}
	return fmt.Errorf("unknown action %q", a.Kind)
}

// answer sends the AI reply, or the fallback when the backend failed
func (s *UpdateService) answer(ctx context.Context, req *domain.AIRequest, log *zap.SugaredLogger) {
	start := time.Now()
	text, respondErr := s.responderUC.Respond(ctx, req)
	aiDuration.Observe(time.Since(start).Seconds())

	switch {
	case respondErr == nil:
		aiResponses.WithLabelValues("ok").Inc()
	case errors.Is(respondErr, domain.ErrUpstreamTimeout):
		aiResponses.WithLabelValues("timeout").Inc()
		log.Warnw("ai timed out, sending fallback", "err", respondErr)
	default:
		aiResponses.WithLabelValues("fallback").Inc()
		log.Warnw("ai failed, sending fallback", "err", respondErr)
	}

	if _, err := s.messenger.SendText(ctx, req.ChatID, req.ReplyTo, text, nil); err != nil {
		actionsFailed.WithLabelValues("ai_reply", errorClass(err)).Inc()
		log.Warnw("ai reply failed", "err", err)
		return
	}
	actionsDispatched.WithLabelValues("ai_reply").Inc()

	if respondErr != nil {
		return
	}
	if err := s.userUC.RecordAIInteraction(ctx, req.ChatID, req.UserID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warnw("record ai interaction", "err", err)
	}
}

// errorClass buckets an error for metrics
func errorClass(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
