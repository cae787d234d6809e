package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

// Mock implementations

type mockUserRepo struct {
	mu    sync.Mutex
	users map[[2]int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[[2]int64]*domain.User)}
}

func (m *mockUserRepo) upsert(chatID int64, s domain.Sender, at time.Time) *domain.User {
	key := [2]int64{chatID, s.ID}
	u, ok := m.users[key]
	if !ok {
		u = &domain.User{ChatID: chatID, UserID: s.ID, FirstSeen: at}
		m.users[key] = u
	}
	u.Username = s.Username
	u.DisplayName = s.DisplayName()
	u.LastSeen = at
	return u
}

func (m *mockUserRepo) RecordActivity(ctx context.Context, chatID int64, s domain.Sender, at time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.upsert(chatID, s, at)
	u.MessageCount++
	c := *u
	return &c, nil
}

func (m *mockUserRepo) Touch(ctx context.Context, chatID int64, s domain.Sender, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(chatID, s, at)
	return nil
}

func (m *mockUserRepo) RecordAIInteraction(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[[2]int64{chatID, userID}]
	if !ok {
		return domain.ErrNotFound
	}
	u.AIInteractions++
	return nil
}

func (m *mockUserRepo) RecordWarning(ctx context.Context, chatID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[[2]int64{chatID, userID}]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Warnings++
	return u.Warnings, nil
}

func (m *mockUserRepo) SetBanned(ctx context.Context, chatID, userID int64, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[[2]int64{chatID, userID}]
	if !ok {
		return domain.ErrNotFound
	}
	u.Banned = banned
	return nil
}

func (m *mockUserRepo) Get(ctx context.Context, chatID, userID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[[2]int64{chatID, userID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ChatID == chatID && strings.EqualFold(u.Username, username) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) TopN(ctx context.Context, chatID int64, n int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.User
	for _, u := range m.users {
		if u.ChatID == chatID && u.MessageCount > 0 {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].MessageCount != result[j].MessageCount {
			return result[i].MessageCount > result[j].MessageCount
		}
		if !result[i].LastSeen.Equal(result[j].LastSeen) {
			return result[i].LastSeen.Before(result[j].LastSeen)
		}
		return result[i].UserID < result[j].UserID
	})
	if len(result) > n {
		result = result[:n]
	}
	return result, nil
}

func (m *mockUserRepo) Purge(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, [2]int64{chatID, userID})
	return nil
}

type mockFilterRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  []domain.FilterRule
	lists  int // number of List calls
}

func (m *mockFilterRepo) Add(ctx context.Context, rule *domain.FilterRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.ChatID == rule.ChatID && r.Pattern == rule.Pattern {
			return domain.ErrDuplicateRule
		}
	}
	m.nextID++
	rule.ID = m.nextID
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockFilterRepo) Remove(ctx context.Context, chatID int64, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rules {
		if r.ChatID == chatID && r.Pattern == pattern {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockFilterRepo) List(ctx context.Context, chatID int64) ([]domain.FilterRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var result []domain.FilterRule
	for _, r := range m.rules {
		if r.ChatID == chatID {
			result = append(result, r)
		}
	}
	return result, nil
}

type mockGroupRepo struct {
	mu      sync.Mutex
	configs map[int64]*domain.GroupConfig
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{configs: make(map[int64]*domain.GroupConfig)}
}

func (m *mockGroupRepo) Get(ctx context.Context, chatID int64) (*domain.GroupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg.Clone(), nil
}

func (m *mockGroupRepo) Save(ctx context.Context, cfg *domain.GroupConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ChatID] = cfg.Clone()
	return nil
}

type mockCompletion struct {
	answer string
	err    error
	delay  time.Duration
	prompt string
}

func (m *mockCompletion) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	m.prompt = prompt
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.answer, m.err
}

func (m *mockCompletion) Name() string {
	return "mock"
}
