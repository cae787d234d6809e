package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
	"github.com/socialbounty/groupbot/internal/data"
)

const (
	secretHeader    = "X-Telegram-Bot-Api-Secret-Token"
	maxBodySize     = 1 << 20
	seenUpdatesSize = 4096
	shutdownTimeout = 10 * time.Second
)

// UpdateHandler processes one decoded Telegram update
type UpdateHandler interface {
	Handle(ctx context.Context, u *domain.Update) error
}

// Config holds the webhook server settings
type Config struct {
	Addr          string
	WebhookURL    string // public base URL; "/webhook" is appended on registration
	WebhookSecret string
}

// Server receives Telegram webhook deliveries and hosts the operator endpoints
type Server struct {
	cfg       Config
	updates   UpdateHandler
	messenger repo.MessengerRepo
	api       http.Handler
	log       *zap.SugaredLogger

	// Update deduplication cache; Telegram redelivers when a response is slow
	seen *lru.Cache[int, struct{}]

	started time.Time
}

// New creates a new webhook server. api may be nil.
func New(cfg Config, updates UpdateHandler, messenger repo.MessengerRepo, api http.Handler, log *zap.SugaredLogger) *Server {
	seen, _ := lru.New[int, struct{}](seenUpdatesSize)
	return &Server{
		cfg:       cfg,
		updates:   updates,
		messenger: messenger,
		api:       api,
		log:       log.Named("server"),
		seen:      seen,
		started:   time.Now(),
	}
}

// Handler builds the HTTP router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleStatus)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook", s.handleWebhook)
	r.Get("/setwebhook", s.handleSetWebhook)

	if s.api != nil {
		r.Mount("/api", s.api)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// RegisterWebhook points Telegram at this server's /webhook endpoint
func (s *Server) RegisterWebhook(ctx context.Context) (string, error) {
	return RegisterWebhook(ctx, s.messenger, s.cfg.WebhookURL, s.cfg.WebhookSecret)
}

// RegisterWebhook registers base+"/webhook" with the given secret
func RegisterWebhook(ctx context.Context, messenger repo.MessengerRepo, base, secret string) (string, error) {
	if base == "" {
		return "", errors.New("webhook url is not configured")
	}
	url := strings.TrimSuffix(base, "/") + "/webhook"
	if err := messenger.SetWebhook(ctx, url, secret); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.WebhookSecret)) != 1 {
			s.log.Warnw("webhook secret mismatch", "remote_addr", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var raw tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&raw); err != nil {
		s.log.Warnw("invalid update payload", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	// Once decoded Telegram always gets a 200 so it does not redeliver.
	s.process(r.Context(), raw)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) process(ctx context.Context, raw tgbotapi.Update) {
	if s.markSeen(raw.UpdateID) {
		s.log.Debugw("duplicate update ignored", "update_id", raw.UpdateID)
		return
	}

	u := data.UpdateFromTelegram(raw)
	if u == nil {
		s.log.Debugw("unsupported update ignored", "update_id", raw.UpdateID)
		return
	}

	// Processing runs to completion even if Telegram hangs up.
	if err := s.updates.Handle(context.WithoutCancel(ctx), u); err != nil {
		s.log.Errorw("handle update failed",
			"update_id", u.UpdateID,
			"chat_id", u.ChatID,
			"error", err,
		)
	}
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	url, err := s.RegisterWebhook(r.Context())
	if err != nil {
		s.log.Errorw("set webhook failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"ok": false, "error": err.Error()})
		return
	}
	s.log.Infow("webhook registered", "url", url)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "url": url})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	self := s.messenger.Self()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "running",
		"bot":      self.Username,
		"bot_id":   self.ID,
		"uptime_s": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// markSeen records an update id and reports whether it was already seen
func (s *Server) markSeen(updateID int) bool {
	seen, _ := s.seen.ContainsOrAdd(updateID, struct{}{})
	return seen
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
