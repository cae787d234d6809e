package domain

import (
	"strings"
	"time"
)

// FilterRule is a banned word or phrase scoped to one chat
type FilterRule struct {
	ID        int64
	ChatID    int64
	Pattern   string // case-folded
	CreatedAt time.Time
}

// NormalizePattern case-folds and trims a pattern; no other normalization is applied
func NormalizePattern(pattern string) string {
	return strings.ToLower(strings.TrimSpace(pattern))
}

// Matches reports whether the rule's pattern occurs in text, ignoring case
func (r *FilterRule) Matches(text string) bool {
	if r.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), r.Pattern)
}
