package mcp

import (
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/socialbounty/groupbot/internal/api"
)

// NewServer creates an MCP server exposing the moderation tools.
// defaultChat is used when a tool call omits chat_id.
func NewServer(client *Client, defaultChat int64, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "groupbot-tools",
		Version: version,
	}, nil)

	h := NewHandler(client, defaultChat)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_filters",
		Description: "List the banned words and phrases of a group. Messages containing any of them are deleted.",
	}, h.ListFilters)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "add_filter",
		Description: "Ban a word or phrase in a group. Matching is case-insensitive substring matching.",
	}, h.AddFilter)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "remove_filter",
		Description: "Remove a banned word or phrase from a group.",
	}, h.RemoveFilter)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "top_users",
		Description: "Get the most active members of a group by message count.",
	}, h.TopUsers)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "user_stats",
		Description: "Get one member's activity: messages, AI interactions, warnings and ban state.",
	}, h.UserStats)

	return server
}

// ChatInput selects the group a tool acts on
type ChatInput struct {
	ChatID int64 `json:"chat_id,omitempty" jsonschema:"The group chat id. Defaults to the configured group."`
}

// PatternInput is the input for add_filter and remove_filter
type PatternInput struct {
	ChatID  int64  `json:"chat_id,omitempty" jsonschema:"The group chat id. Defaults to the configured group."`
	Pattern string `json:"pattern" jsonschema:"The word or phrase"`
}

// TopUsersInput is the input for top_users
type TopUsersInput struct {
	ChatID int64 `json:"chat_id,omitempty" jsonschema:"The group chat id. Defaults to the configured group."`
	Limit  int   `json:"limit,omitempty" jsonschema:"Maximum number of members to return (default 10)"`
}

// UserStatsInput is the input for user_stats
type UserStatsInput struct {
	ChatID int64  `json:"chat_id,omitempty" jsonschema:"The group chat id. Defaults to the configured group."`
	User   string `json:"user" jsonschema:"Numeric user id or @username"`
}

// FiltersOutput lists a group's filters
type FiltersOutput struct {
	ChatID  int64    `json:"chat_id"`
	Filters []Filter `json:"filters"`
}

// FilterOutput is the result of add_filter and remove_filter
type FilterOutput struct {
	Success bool   `json:"success"`
	Pattern string `json:"pattern"`
}

// UsersOutput lists members
type UsersOutput struct {
	ChatID int64  `json:"chat_id"`
	Users  []User `json:"users"`
}

// UserOutput holds one member
type UserOutput struct {
	ChatID int64 `json:"chat_id"`
	User   User  `json:"user"`
}

// Filter is a banned pattern as shown to the model
type Filter struct {
	ID        int64  `json:"id"`
	Pattern   string `json:"pattern"`
	CreatedAt string `json:"created_at"`
}

// User is a member's activity as shown to the model
type User struct {
	UserID         int64  `json:"user_id"`
	Username       string `json:"username,omitempty"`
	DisplayName    string `json:"display_name"`
	MessageCount   int64  `json:"message_count"`
	AIInteractions int64  `json:"ai_interactions"`
	Warnings       int64  `json:"warnings"`
	Banned         bool   `json:"banned"`
	LastSeen       string `json:"last_seen"`
}

func convertFilters(filters []api.Filter) []Filter {
	result := make([]Filter, len(filters))
	for i, f := range filters {
		result[i] = Filter{ID: f.ID, Pattern: f.Pattern, CreatedAt: f.CreatedAt.Format(time.RFC3339)}
	}
	return result
}

func convertUser(u api.User) User {
	return User{
		UserID:         u.UserID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		MessageCount:   u.MessageCount,
		AIInteractions: u.AIInteractions,
		Warnings:       u.Warnings,
		Banned:         u.Banned,
		LastSeen:       u.LastSeen.Format(time.RFC3339),
	}
}

func convertUsers(users []api.User) []User {
	result := make([]User, len(users))
	for i, u := range users {
		result[i] = convertUser(u)
	}
	return result
}
