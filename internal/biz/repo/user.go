package repo

import (
	"context"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// UserRepo is the per-chat user activity store
type UserRepo interface {
	// RecordActivity creates the user if absent and atomically increments the message count
	RecordActivity(ctx context.Context, chatID int64, sender domain.Sender, at time.Time) (*domain.User, error)

	// Touch creates the user if absent and refreshes names without counting a message
	Touch(ctx context.Context, chatID int64, sender domain.Sender, at time.Time) error

	// RecordAIInteraction increments the AI interaction count
	RecordAIInteraction(ctx context.Context, chatID, userID int64) error

	// RecordWarning increments the warning count and returns the new total
	RecordWarning(ctx context.Context, chatID, userID int64) (int64, error)

	// SetBanned sets the banned flag, returns domain.ErrNotFound for unknown users
	SetBanned(ctx context.Context, chatID, userID int64, banned bool) error

	// Get returns one user, or domain.ErrNotFound
	Get(ctx context.Context, chatID, userID int64) (*domain.User, error)

	// FindByUsername looks up a user by @username, ignoring case
	FindByUsername(ctx context.Context, chatID int64, username string) (*domain.User, error)

	// TopN returns up to n users with the highest message counts,
	// ties broken by earliest last-seen time
	TopN(ctx context.Context, chatID int64, n int) ([]domain.User, error)

	// Purge deletes a user's record
	Purge(ctx context.Context, chatID, userID int64) error
}
