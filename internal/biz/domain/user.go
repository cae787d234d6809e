package domain

import "time"

// User is a member's activity record within one chat
type User struct {
	ChatID         int64
	UserID         int64
	Username       string
	DisplayName    string
	MessageCount   int64
	AIInteractions int64
	Warnings       int64
	Banned         bool
	FirstSeen      time.Time
	LastSeen       time.Time
}

// Mention formats the user for inclusion in a message
func (u *User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.DisplayName
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Rank  int
	Name  string
	Count int64
}

// Leaderboard is the input to the stats renderer
type Leaderboard struct {
	Title   string
	Entries []LeaderboardEntry
}

// NewLeaderboard ranks users in the order given, starting at 1
func NewLeaderboard(title string, users []User) Leaderboard {
	board := Leaderboard{Title: title, Entries: make([]LeaderboardEntry, 0, len(users))}
	for i, u := range users {
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:  i + 1,
			Name:  u.Mention(),
			Count: u.MessageCount,
		})
	}
	return board
}
