package domain

import "errors"

var (
	// ErrUnauthorized is returned when a non-admin invokes an admin-only operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateRule is returned when a filter pattern already exists in the chat
	ErrDuplicateRule = errors.New("duplicate filter rule")

	// ErrNotFound is returned when a rule or user does not exist
	ErrNotFound = errors.New("not found")

	// ErrEmptyLeaderboard is returned when no user has any recorded activity
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")

	// ErrUpstreamTimeout is returned when an external call exceeds its deadline
	ErrUpstreamTimeout = errors.New("upstream timeout")
)
