package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/socialbounty/groupbot/internal/conf"
	"github.com/socialbounty/groupbot/internal/mcp"
)

// This MCP server speaks stdio to the model host and relays tool calls to the
// bot's operator API over HTTP.

var version = "dev"

const defaultAPIURL = "http://127.0.0.1:8080"

func main() {
	// stdout carries the protocol; .env is optional
	_ = godotenv.Load()

	logger, err := conf.NewLogger(os.Getenv("DEBUG") == "true")
	if err != nil {
		fmt.Fprintf(os.Stderr, "groupbot-mcp: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	apiURL := os.Getenv("GROUPBOT_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	var defaultChat int64
	if raw := os.Getenv("GROUP_CHAT_ID"); raw != "" {
		defaultChat, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.Fatalw("invalid GROUP_CHAT_ID", "value", raw)
		}
	}

	token := os.Getenv("API_TOKEN")
	if token == "" {
		logger.Warn("API_TOKEN not set; the operator api will reject every call")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(mcp.NewClient(apiURL, token), defaultChat, version)
	logger.Infow("groupbot-mcp started", "api", apiURL, "default_chat", defaultChat)

	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Errorw("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
