package data

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// TelegramClient is the subset of the Bot API client used by the repository
type TelegramClient interface {
	Self() tgbotapi.User
	Send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(ctx context.Context, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	ChatMember(ctx context.Context, chatID, userID int64) (tgbotapi.ChatMember, error)
	SetWebhook(ctx context.Context, url, secret string) error
}

// telegramRepo implements the messenger repository
type telegramRepo struct {
	client TelegramClient
}

// NewTelegramRepo creates a new Telegram repository
func NewTelegramRepo(client TelegramClient) repo.MessengerRepo {
	return &telegramRepo{client: client}
}

// Self returns the bot's identity
func (r *telegramRepo) Self() repo.BotIdentity {
	self := r.client.Self()
	return repo.BotIdentity{ID: self.ID, Username: self.UserName}
}

// SendText sends a text message, optionally as a reply and with an inline keyboard
func (r *telegramRepo) SendText(ctx context.Context, chatID int64, replyTo int, text string, keyboard domain.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	if len(keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(keyboard)
	}
	sent, err := r.client.Send(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// SendPhoto uploads a PNG with a caption
func (r *telegramRepo) SendPhoto(ctx context.Context, chatID int64, replyTo int, caption string, png []byte) (int, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "leaderboard.png", Bytes: png})
	photo.Caption = caption
	photo.ReplyToMessageID = replyTo
	photo.AllowSendingWithoutReply = true
	sent, err := r.client.Send(ctx, photo)
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	return sent.MessageID, nil
}

// DeleteMessage deletes a message
func (r *telegramRepo) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := r.client.Request(ctx, tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// EditKeyboard replaces a message's inline keyboard
func (r *telegramRepo) EditKeyboard(ctx context.Context, chatID int64, messageID int, keyboard domain.Keyboard) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, inlineKeyboard(keyboard))
	if _, err := r.client.Request(ctx, edit); err != nil {
		return fmt.Errorf("edit keyboard: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press
func (r *telegramRepo) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := r.client.Request(ctx, tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// BanMember bans a user from the chat
func (r *telegramRepo) BanMember(ctx context.Context, chatID, userID int64) error {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := r.client.Request(ctx, ban); err != nil {
		return fmt.Errorf("ban member: %w", err)
	}
	return nil
}

// UnbanMember lifts a ban without removing current members
func (r *telegramRepo) UnbanMember(ctx context.Context, chatID, userID int64) error {
	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     true,
	}
	if _, err := r.client.Request(ctx, unban); err != nil {
		return fmt.Errorf("unban member: %w", err)
	}
	return nil
}

// IsChatAdmin reports whether the user is a creator or administrator of the chat
func (r *telegramRepo) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := r.client.ChatMember(ctx, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	return member.IsCreator() || member.IsAdministrator(), nil
}

// SetWebhook registers the webhook URL
func (r *telegramRepo) SetWebhook(ctx context.Context, url, secret string) error {
	return r.client.SetWebhook(ctx, url, secret)
}

func inlineKeyboard(keyboard domain.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// UpdateFromTelegram converts a Bot API update. Updates the bot does not
// handle (edits, polls, member status changes) yield nil.
func UpdateFromTelegram(u tgbotapi.Update) *domain.Update {
	if cq := u.CallbackQuery; cq != nil {
		out := &domain.Update{
			UpdateID: u.UpdateID,
			Callback: &domain.Callback{ID: cq.ID, Data: cq.Data},
		}
		if cq.From != nil {
			out.From = senderFromUser(cq.From)
		}
		if cq.Message != nil {
			out.Callback.MessageID = cq.Message.MessageID
			out.MessageID = cq.Message.MessageID
			setChat(out, cq.Message.Chat)
		}
		return out
	}

	msg := u.Message
	if msg == nil {
		msg = u.ChannelPost
	}
	if msg == nil {
		return nil
	}

	out := &domain.Update{
		UpdateID:  u.UpdateID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
		IsForward: msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardDate != 0,
	}
	setChat(out, msg.Chat)
	if msg.From != nil {
		out.From = senderFromUser(msg.From)
	}

	entities := msg.Entities
	if out.Text == "" {
		out.Text = msg.Caption
		entities = msg.CaptionEntities
	}
	for _, e := range entities {
		if e.Type == "url" || e.Type == "text_link" {
			out.HasLink = true
			break
		}
	}

	for i := range msg.NewChatMembers {
		out.NewMembers = append(out.NewMembers, senderFromUser(&msg.NewChatMembers[i]))
	}
	if msg.LeftChatMember != nil {
		left := senderFromUser(msg.LeftChatMember)
		out.LeftMember = &left
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		replyTo := senderFromUser(msg.ReplyToMessage.From)
		out.ReplyTo = &replyTo
	}
	return out
}

func setChat(out *domain.Update, chat *tgbotapi.Chat) {
	if chat == nil {
		return
	}
	out.ChatID = chat.ID
	out.ChatType = domain.ChatType(chat.Type)
	out.ChatTitle = chat.Title
}

func senderFromUser(u *tgbotapi.User) domain.Sender {
	return domain.Sender{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}
