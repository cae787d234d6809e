package repo

import (
	"context"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// BotIdentity is the bot's own account
type BotIdentity struct {
	ID       int64
	Username string
}

// MessengerRepo is the outbound side of the messaging platform
type MessengerRepo interface {
	// Self returns the bot's identity
	Self() BotIdentity

	// SendText sends a message and returns its id
	SendText(ctx context.Context, chatID int64, replyTo int, text string, keyboard domain.Keyboard) (int, error)

	// SendPhoto sends a PNG with a caption
	SendPhoto(ctx context.Context, chatID int64, replyTo int, caption string, png []byte) (int, error)

	// DeleteMessage deletes a message
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// EditKeyboard replaces the inline keyboard of a message
	EditKeyboard(ctx context.Context, chatID int64, messageID int, keyboard domain.Keyboard) error

	// AnswerCallback acknowledges an inline keyboard press
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// BanMember removes a user from the chat and prevents rejoining
	BanMember(ctx context.Context, chatID, userID int64) error

	// UnbanMember lifts a ban
	UnbanMember(ctx context.Context, chatID, userID int64) error

	// IsChatAdmin asks the platform whether the user administers the chat
	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)

	// SetWebhook registers the webhook URL
	SetWebhook(ctx context.Context, url, secret string) error
}
