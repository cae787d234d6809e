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

// groupRepo implements the group repository on SQLite
type groupRepo struct {
	db *sql.DB
}

// NewGroupRepo creates a new group repository
func NewGroupRepo(db *sql.DB) repo.GroupRepo {
	return &groupRepo{db: db}
}

// Get loads a group and its admin set
func (r *groupRepo) Get(ctx context.Context, chatID int64) (*domain.GroupConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, title, welcome_template, welcome_enabled, ai_enabled, delete_links, delete_promotions, updated_at
		FROM groups
		WHERE chat_id = ?
	`, chatID)

	var cfg domain.GroupConfig
	var welcome, ai, links, promotions int
	var updatedAt int64
	err := row.Scan(&cfg.ChatID, &cfg.Title, &cfg.WelcomeTemplate, &welcome, &ai, &links, &promotions, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	cfg.WelcomeEnabled = welcome != 0
	cfg.AIEnabled = ai != 0
	cfg.DeleteLinks = links != 0
	cfg.DeletePromotions = promotions != 0
	cfg.UpdatedAt = time.Unix(0, updatedAt)

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM group_admins WHERE chat_id = ? ORDER BY rowid
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("get group admins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		cfg.AdminIDs = append(cfg.AdminIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save replaces the group row and its admin set in one transaction
func (r *groupRepo) Save(ctx context.Context, cfg *domain.GroupConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (chat_id, title, welcome_template, welcome_enabled, ai_enabled, delete_links, delete_promotions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			title = excluded.title,
			welcome_template = excluded.welcome_template,
			welcome_enabled = excluded.welcome_enabled,
			ai_enabled = excluded.ai_enabled,
			delete_links = excluded.delete_links,
			delete_promotions = excluded.delete_promotions,
			updated_at = excluded.updated_at
	`, cfg.ChatID, cfg.Title, cfg.WelcomeTemplate,
		boolInt(cfg.WelcomeEnabled), boolInt(cfg.AIEnabled), boolInt(cfg.DeleteLinks), boolInt(cfg.DeletePromotions),
		cfg.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save group: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_admins WHERE chat_id = ?`, cfg.ChatID); err != nil {
		return fmt.Errorf("clear admins: %w", err)
	}
	for _, id := range cfg.AdminIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO group_admins (chat_id, user_id) VALUES (?, ?)
		`, cfg.ChatID, id); err != nil {
			return fmt.Errorf("save admin: %w", err)
		}
	}
	return tx.Commit()
}
