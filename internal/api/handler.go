package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/usecase"
)

const defaultTopLimit = 10

// Server is the operator JSON API for filters, activity and settings
type Server struct {
	filterUC *usecase.FilterUsecase
	userUC   *usecase.UserUsecase
	groupUC  *usecase.GroupUsecase
	token    string
	log      *zap.SugaredLogger
}

// NewServer creates a new operator API server. An empty token disables it.
func NewServer(
	filterUC *usecase.FilterUsecase,
	userUC *usecase.UserUsecase,
	groupUC *usecase.GroupUsecase,
	token string,
	log *zap.SugaredLogger,
) *Server {
	return &Server{
		filterUC: filterUC,
		userUC:   userUC,
		groupUC:  groupUC,
		token:    token,
		log:      log.Named("api"),
	}
}

// Enabled reports whether an API token is configured
func (s *Server) Enabled() bool {
	return s.token != ""
}

// Routes returns the API router, meant to be mounted under /api
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)

	r.Route("/chats/{chat}", func(r chi.Router) {
		r.Get("/filters", s.handleListFilters)
		r.Post("/filters", s.handleAddFilter)
		r.Delete("/filters/{pattern}", s.handleRemoveFilter)
		r.Get("/top", s.handleTopUsers)
		r.Get("/users/{user}", s.handleUser)
		r.Get("/settings", s.handleSettings)
	})
	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			s.writeStatus(w, http.StatusNotFound, "operator api disabled")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			s.writeStatus(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============ Filter Handlers ============

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}

	rules, err := s.filterUC.List(r.Context(), chatID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"filters": ConvertFilters(rules)})
}

func (s *Server) handleAddFilter(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}

	var req AddFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if domain.NormalizePattern(req.Pattern) == "" {
		s.writeStatus(w, http.StatusBadRequest, "pattern is required")
		return
	}

	rule, err := s.filterUC.Add(r.Context(), chatID, req.Pattern)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Infow("filter added", "chat_id", chatID, "pattern", rule.Pattern)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ConvertFilter(*rule))
}

func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}
	pattern := chi.URLParam(r, "pattern")

	if err := s.filterUC.Remove(r.Context(), chatID, pattern); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Infow("filter removed", "chat_id", chatID, "pattern", pattern)
	s.writeJSON(w, map[string]interface{}{"success": true})
}

// ============ Activity Handlers ============

func (s *Server) handleTopUsers(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}

	limit := defaultTopLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	users, err := s.userUC.TopN(r.Context(), chatID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"users": ConvertUsers(users)})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}

	ref := chi.URLParam(r, "user")
	var (
		user *domain.User
		err  error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		user, err = s.userUC.Get(r.Context(), chatID, id)
	} else {
		user, err = s.userUC.FindByUsername(r.Context(), chatID, ref)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ConvertUser(*user))
}

// ============ Settings Handlers ============

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.chatParam(w, r)
	if !ok {
		return
	}

	cfg, err := s.groupUC.Get(r.Context(), chatID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ConvertSettings(cfg))
}

// ============ Helpers ============

func (s *Server) chatParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chat"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid chat id")
		return 0, false
	}
	return chatID, true
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateRule):
		s.writeStatus(w, http.StatusConflict, err.Error())
	default:
		s.log.Errorw("request failed", "error", err)
		s.writeStatus(w, http.StatusInternalServerError, err.Error())
	}
}

// ============ Wire Types ============

// AddFilterRequest is the body of POST /chats/{chat}/filters
type AddFilterRequest struct {
	Pattern string `json:"pattern"`
}

// Filter is a banned pattern as returned by the API
type Filter struct {
	ID        int64     `json:"id"`
	Pattern   string    `json:"pattern"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a member's activity record as returned by the API
type User struct {
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username,omitempty"`
	DisplayName    string    `json:"display_name"`
	MessageCount   int64     `json:"message_count"`
	AIInteractions int64     `json:"ai_interactions"`
	Warnings       int64     `json:"warnings"`
	Banned         bool      `json:"banned"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
}

// Settings is a chat's moderation configuration as returned by the API
type Settings struct {
	ChatID           int64   `json:"chat_id"`
	Title            string  `json:"title,omitempty"`
	AdminIDs         []int64 `json:"admin_ids"`
	WelcomeEnabled   bool    `json:"welcome_enabled"`
	WelcomeTemplate  string  `json:"welcome_template"`
	AIEnabled        bool    `json:"ai_enabled"`
	DeleteLinks      bool    `json:"delete_links"`
	DeletePromotions bool    `json:"delete_promotions"`
}

// ConvertFilter converts domain.FilterRule to api.Filter
func ConvertFilter(r domain.FilterRule) Filter {
	return Filter{ID: r.ID, Pattern: r.Pattern, CreatedAt: r.CreatedAt}
}

// ConvertFilters converts a slice of domain.FilterRule
func ConvertFilters(rules []domain.FilterRule) []Filter {
	result := make([]Filter, len(rules))
	for i, r := range rules {
		result[i] = ConvertFilter(r)
	}
	return result
}

// ConvertUser converts domain.User to api.User
func ConvertUser(u domain.User) User {
	return User{
		UserID:         u.UserID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		MessageCount:   u.MessageCount,
		AIInteractions: u.AIInteractions,
		Warnings:       u.Warnings,
		Banned:         u.Banned,
		FirstSeen:      u.FirstSeen,
		LastSeen:       u.LastSeen,
	}
}

// ConvertUsers converts a slice of domain.User
func ConvertUsers(users []domain.User) []User {
	result := make([]User, len(users))
	for i, u := range users {
		result[i] = ConvertUser(u)
	}
	return result
}

// ConvertSettings converts domain.GroupConfig to api.Settings
func ConvertSettings(cfg *domain.GroupConfig) Settings {
	admins := cfg.AdminIDs
	if admins == nil {
		admins = []int64{}
	}
	return Settings{
		ChatID:           cfg.ChatID,
		Title:            cfg.Title,
		AdminIDs:         admins,
		WelcomeEnabled:   cfg.WelcomeEnabled,
		WelcomeTemplate:  cfg.WelcomeTemplate,
		AIEnabled:        cfg.AIEnabled,
		DeleteLinks:      cfg.DeleteLinks,
		DeletePromotions: cfg.DeletePromotions,
	}
}
