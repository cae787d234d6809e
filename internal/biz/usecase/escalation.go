package usecase

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EscalationConfig controls when repeated warnings turn into a ban
type EscalationConfig struct {
	Limit      int           // warnings within Window that trigger a ban, <= 0 disables
	Window     time.Duration // rolling window length
	MaxTracked int           // members tracked at once, least recently warned are forgotten
}

type memberKey struct {
	chatID int64
	userID int64
}

// EscalationUsecase counts warnings per member in a rolling window. Each
// member keeps the times of its recent warnings, so the count is exact.
type EscalationUsecase struct {
	cfg EscalationConfig
	now func() time.Time

	mu       sync.Mutex
	warnings *lru.Cache[memberKey, []time.Time]
}

// NewEscalationUsecase creates a new escalation usecase
func NewEscalationUsecase(cfg EscalationConfig) (*EscalationUsecase, error) {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = 10000
	}
	cache, err := lru.New[memberKey, []time.Time](cfg.MaxTracked)
	if err != nil {
		return nil, err
	}
	return &EscalationUsecase{cfg: cfg, now: time.Now, warnings: cache}, nil
}

// Limit returns the configured warning limit
func (uc *EscalationUsecase) Limit() int {
	return uc.cfg.Limit
}

// Warn records one warning and reports whether it reaches the limit
func (uc *EscalationUsecase) Warn(chatID, userID int64) bool {
	if uc.cfg.Limit <= 0 {
		return false
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	cutoff := now.Add(-uc.cfg.Window)
	key := memberKey{chatID: chatID, userID: userID}

	prev, _ := uc.warnings.Get(key)
	recent := make([]time.Time, 0, len(prev)+1)
	for _, at := range prev {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	recent = append(recent, now)

	// older entries can never count again once Limit newer ones exist
	if len(recent) > uc.cfg.Limit {
		recent = recent[len(recent)-uc.cfg.Limit:]
	}
	uc.warnings.Add(key, recent)
	return len(recent) >= uc.cfg.Limit
}

// Reset forgets a member's warnings
func (uc *EscalationUsecase) Reset(chatID, userID int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.warnings.Remove(memberKey{chatID: chatID, userID: userID})
}
