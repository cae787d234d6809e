package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config contains Bot API client settings
type Config struct {
	BotToken    string
	APIEndpoint string        // defaults to tgbotapi.APIEndpoint
	RateLimit   rate.Limit    // outbound requests per second
	Burst       int
	Timeout     time.Duration // per request
}

// Client wraps tgbotapi with an outbound rate limit and retries on read-only calls
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// readOnlyMethods are safe to retry
var readOnlyMethods = map[string]bool{
	"getMe":         true,
	"getChat":       true,
	"getChatMember": true,
}

// routingClient sends read-only Bot API methods through a retrying client and
// everything else through a plain one, so sends are never duplicated
type routingClient struct {
	read  *http.Client
	write *http.Client
}

func (c *routingClient) Do(req *http.Request) (*http.Response, error) {
	method := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
	if readOnlyMethods[method] {
		return c.read.Do(req)
	}
	return c.write.Do(req)
}

// LeveledZap adapts a zap logger to retryablehttp
type LeveledZap struct {
	inner *zap.SugaredLogger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

// re-writes HTTP client DEBUG to INFO level (this is where retry is logged)
func (l LeveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func newHTTPClient(timeout time.Duration, log *zap.SugaredLogger) *routingClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledZap{log})
	read := retryClient.StandardClient()
	read.Timeout = timeout

	return &routingClient{
		read:  read,
		write: &http.Client{Timeout: timeout},
	}
}

// NewClient authorizes the bot token and returns a client
func NewClient(cfg Config, log *zap.SugaredLogger) (*Client, error) {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 25
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, cfg.APIEndpoint, newHTTPClient(cfg.Timeout, log))
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	log.Infow("telegram bot authorized", "username", bot.Self.UserName, "id", bot.Self.ID)

	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		log:     log,
	}, nil
}

// Self returns the bot's own user
func (c *Client) Self() tgbotapi.User {
	return c.bot.Self
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// Send sends a message-producing request and returns the sent message
func (c *Client) Send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return c.bot.Send(msg)
}

// Request performs a request whose result is not a message
func (c *Client) Request(ctx context.Context, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.bot.Request(req)
}

// ChatMember fetches a member's status in a chat
func (c *Client) ChatMember(ctx context.Context, chatID, userID int64) (tgbotapi.ChatMember, error) {
	if err := c.wait(ctx); err != nil {
		return tgbotapi.ChatMember{}, err
	}
	return c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
}

// SetWebhook registers url; a non-empty secret is echoed by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	resp, err := c.bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	return nil
}
