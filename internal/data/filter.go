package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

// filterRepo implements the filter repository on SQLite
type filterRepo struct {
	db *sql.DB
}

// NewFilterRepo creates a new filter repository
func NewFilterRepo(db *sql.DB) repo.FilterRepo {
	return &filterRepo{db: db}
}

// Add inserts a rule and sets its ID
func (r *filterRepo) Add(ctx context.Context, rule *domain.FilterRule) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO filters (chat_id, pattern, created_at) VALUES (?, ?, ?)
		ON CONFLICT (chat_id, pattern) DO NOTHING
	`, rule.ChatID, rule.Pattern, rule.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert filter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDuplicateRule
	}
	if rule.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return nil
}

// Remove deletes a rule
func (r *filterRepo) Remove(ctx context.Context, chatID int64, pattern string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filters WHERE chat_id = ? AND pattern = ?`, chatID, pattern)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	return affected(res)
}

// List returns rules in insertion order
func (r *filterRepo) List(ctx context.Context, chatID int64) ([]domain.FilterRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, pattern, created_at FROM filters
		WHERE chat_id = ?
		ORDER BY id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	var rules []domain.FilterRule
	for rows.Next() {
		var rule domain.FilterRule
		var createdAt int64
		if err := rows.Scan(&rule.ID, &rule.ChatID, &rule.Pattern, &createdAt); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		rule.CreatedAt = time.Unix(0, createdAt)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
