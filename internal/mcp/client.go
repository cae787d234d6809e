package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/socialbounty/groupbot/internal/api"
)

// Client is the HTTP client for the bot's operator API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new operator API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ============ Filter Operations ============

// ListFilters gets a chat's banned patterns
func (c *Client) ListFilters(ctx context.Context, chatID int64) ([]api.Filter, error) {
	var result struct {
		Filters []api.Filter `json:"filters"`
	}
	if err := c.do(ctx, http.MethodGet, chatPath(chatID, "filters"), nil, &result); err != nil {
		return nil, err
	}
	return result.Filters, nil
}

// AddFilter adds a banned pattern to a chat
func (c *Client) AddFilter(ctx context.Context, chatID int64, pattern string) (*api.Filter, error) {
	var result api.Filter
	body := api.AddFilterRequest{Pattern: pattern}
	if err := c.do(ctx, http.MethodPost, chatPath(chatID, "filters"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveFilter removes a banned pattern from a chat
func (c *Client) RemoveFilter(ctx context.Context, chatID int64, pattern string) error {
	return c.do(ctx, http.MethodDelete, chatPath(chatID, "filters/"+url.PathEscape(pattern)), nil, nil)
}

// ============ Activity Operations ============

// TopUsers gets the most active members of a chat
func (c *Client) TopUsers(ctx context.Context, chatID int64, limit int) ([]api.User, error) {
	var result struct {
		Users []api.User `json:"users"`
	}
	path := chatPath(chatID, "top") + "?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// UserStats gets one member's record by numeric id or username
func (c *Client) UserStats(ctx context.Context, chatID int64, user string) (*api.User, error) {
	var result api.User
	if err := c.do(ctx, http.MethodGet, chatPath(chatID, "users/"+url.PathEscape(user)), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ============ HTTP Helpers ============

func chatPath(chatID int64, rest string) string {
	return fmt.Sprintf("/api/chats/%d/%s", chatID, rest)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
