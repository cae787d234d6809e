package mcp

import (
	"context"
	"errors"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultTopLimit = 10

var (
	errNoChat    = errors.New("chat_id is required: no default group configured")
	errNoPattern = errors.New("pattern is required")
	errNoUser    = errors.New("user is required")
)

// Handler implements the MCP tools on top of the operator API client
type Handler struct {
	client      *Client
	defaultChat int64
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client, defaultChat int64) *Handler {
	return &Handler{client: client, defaultChat: defaultChat}
}

func (h *Handler) chat(chatID int64) (int64, error) {
	if chatID != 0 {
		return chatID, nil
	}
	if h.defaultChat == 0 {
		return 0, errNoChat
	}
	return h.defaultChat, nil
}

// ============ Filter Tools ============

// ListFilters handles list_filters
func (h *Handler) ListFilters(ctx context.Context, _ *mcpsdk.CallToolRequest, in ChatInput) (*mcpsdk.CallToolResult, FiltersOutput, error) {
	chatID, err := h.chat(in.ChatID)
	if err != nil {
		return nil, FiltersOutput{}, err
	}

	filters, err := h.client.ListFilters(ctx, chatID)
	if err != nil {
		return nil, FiltersOutput{}, err
	}
	return nil, FiltersOutput{ChatID: chatID, Filters: convertFilters(filters)}, nil
}

// AddFilter handles add_filter
func (h *Handler) AddFilter(ctx context.Context, _ *mcpsdk.CallToolRequest, in PatternInput) (*mcpsdk.CallToolResult, FilterOutput, error) {
	chatID, err := h.chat(in.ChatID)
	if err != nil {
		return nil, FilterOutput{}, err
	}
	if strings.TrimSpace(in.Pattern) == "" {
		return nil, FilterOutput{}, errNoPattern
	}

	filter, err := h.client.AddFilter(ctx, chatID, in.Pattern)
	if err != nil {
		return nil, FilterOutput{}, err
	}
	return nil, FilterOutput{Success: true, Pattern: filter.Pattern}, nil
}

// RemoveFilter handles remove_filter
func (h *Handler) RemoveFilter(ctx context.Context, _ *mcpsdk.CallToolRequest, in PatternInput) (*mcpsdk.CallToolResult, FilterOutput, error) {
	chatID, err := h.chat(in.ChatID)
	if err != nil {
		return nil, FilterOutput{}, err
	}
	pattern := strings.ToLower(strings.TrimSpace(in.Pattern))
	if pattern == "" {
		return nil, FilterOutput{}, errNoPattern
	}

	if err := h.client.RemoveFilter(ctx, chatID, pattern); err != nil {
		return nil, FilterOutput{}, err
	}
	return nil, FilterOutput{Success: true, Pattern: pattern}, nil
}

// ============ Activity Tools ============

// TopUsers handles top_users
func (h *Handler) TopUsers(ctx context.Context, _ *mcpsdk.CallToolRequest, in TopUsersInput) (*mcpsdk.CallToolResult, UsersOutput, error) {
	chatID, err := h.chat(in.ChatID)
	if err != nil {
		return nil, UsersOutput{}, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}

	users, err := h.client.TopUsers(ctx, chatID, limit)
	if err != nil {
		return nil, UsersOutput{}, err
	}
	return nil, UsersOutput{ChatID: chatID, Users: convertUsers(users)}, nil
}

// UserStats handles user_stats
func (h *Handler) UserStats(ctx context.Context, _ *mcpsdk.CallToolRequest, in UserStatsInput) (*mcpsdk.CallToolResult, UserOutput, error) {
	chatID, err := h.chat(in.ChatID)
	if err != nil {
		return nil, UserOutput{}, err
	}
	ref := strings.TrimPrefix(strings.TrimSpace(in.User), "@")
	if ref == "" {
		return nil, UserOutput{}, errNoUser
	}

	user, err := h.client.UserStats(ctx, chatID, ref)
	if err != nil {
		return nil, UserOutput{}, err
	}
	return nil, UserOutput{ChatID: chatID, User: convertUser(*user)}, nil
}
