package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

const userColumns = `chat_id, user_id, username, display_name, message_count, ai_interactions, warnings, banned, first_seen, last_seen`

// userRepo implements the user repository on SQLite
type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) repo.UserRepo {
	return &userRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var banned int
	var firstSeen, lastSeen int64
	err := row.Scan(&u.ChatID, &u.UserID, &u.Username, &u.DisplayName,
		&u.MessageCount, &u.AIInteractions, &u.Warnings, &banned, &firstSeen, &lastSeen)
	if err != nil {
		return nil, err
	}
	u.Banned = banned != 0
	u.FirstSeen = time.Unix(0, firstSeen)
	u.LastSeen = time.Unix(0, lastSeen)
	return &u, nil
}

// RecordActivity upserts the user and increments the message count in one statement
func (r *userRepo) RecordActivity(ctx context.Context, chatID int64, sender domain.Sender, at time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (chat_id, user_id, username, display_name, message_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			message_count = users.message_count + 1,
			last_seen = excluded.last_seen
		RETURNING `+userColumns,
		chatID, sender.ID, sender.Username, sender.DisplayName(), at.UnixNano(), at.UnixNano())

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}
	return u, nil
}

// Touch upserts the user without counting a message
func (r *userRepo) Touch(ctx context.Context, chatID int64, sender domain.Sender, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, user_id, username, display_name, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name
	`, chatID, sender.ID, sender.Username, sender.DisplayName(), at.UnixNano(), at.UnixNano())
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// RecordAIInteraction increments the AI interaction count
func (r *userRepo) RecordAIInteraction(ctx context.Context, chatID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET ai_interactions = ai_interactions + 1
		WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	if err != nil {
		return fmt.Errorf("record ai interaction: %w", err)
	}
	return affected(res)
}

// RecordWarning increments the warning count and returns the new total
func (r *userRepo) RecordWarning(ctx context.Context, chatID, userID int64) (int64, error) {
	var warnings int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET warnings = warnings + 1
		WHERE chat_id = ? AND user_id = ?
		RETURNING warnings
	`, chatID, userID).Scan(&warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("record warning: %w", err)
	}
	return warnings, nil
}

// SetBanned sets the banned flag
func (r *userRepo) SetBanned(ctx context.Context, chatID, userID int64, banned bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET banned = ? WHERE chat_id = ? AND user_id = ?
	`, boolInt(banned), chatID, userID)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return affected(res)
}

// Get returns one user
func (r *userRepo) Get(ctx context.Context, chatID, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindByUsername looks up a user by username, ignoring case
func (r *userRepo) FindByUsername(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE chat_id = ? AND username = ? COLLATE NOCASE
		ORDER BY last_seen DESC
		LIMIT 1
	`, chatID, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// TopN returns the most active users; users without messages are not ranked
func (r *userRepo) TopN(ctx context.Context, chatID int64, n int) ([]domain.User, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE chat_id = ? AND message_count > 0
		ORDER BY message_count DESC, last_seen ASC, user_id ASC
		LIMIT ?
	`, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Purge deletes the user's record
func (r *userRepo) Purge(ctx context.Context, chatID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return fmt.Errorf("purge user: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
