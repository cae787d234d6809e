package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/socialbounty/groupbot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		chat_id INTEGER PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		welcome_template TEXT NOT NULL DEFAULT '',
		welcome_enabled INTEGER NOT NULL DEFAULT 1,
		ai_enabled INTEGER NOT NULL DEFAULT 1,
		delete_links INTEGER NOT NULL DEFAULT 1,
		delete_promotions INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_admins (
		chat_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (chat_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS filters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		pattern TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (chat_id, pattern)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		chat_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		ai_interactions INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		banned INTEGER NOT NULL DEFAULT 0,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL,
		PRIMARY KEY (chat_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_rank ON users(chat_id, message_count DESC, last_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(chat_id, username COLLATE NOCASE)`,
}

// OpenDB opens the SQLite database and creates missing tables
func OpenDB(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; every counter update is a single statement on this connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	return db, nil
}

// Repositories contains all repositories
type Repositories struct {
	User       repo.UserRepo
	Filter     repo.FilterRepo
	Group      repo.GroupRepo
	Messenger  repo.MessengerRepo
	Completion repo.CompletionRepo
}

// NewRepositories creates all repositories
func NewRepositories(db *sql.DB, messenger repo.MessengerRepo, completion repo.CompletionRepo) *Repositories {
	return &Repositories{
		User:       NewUserRepo(db),
		Filter:     NewFilterRepo(db),
		Group:      NewGroupRepo(db),
		Messenger:  messenger,
		Completion: completion,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
