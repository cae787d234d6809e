package usecase

import (
	"sync"
	"time"

	"github.com/RussellLuo/slidingwindow"
	lru "github.com/hashicorp/golang-lru/v2"
)

const maxQuotaChats = 1024

type chatLimiter struct {
	limiter *slidingwindow.Limiter
	stop    slidingwindow.StopFunc
}

// AIQuota caps how many AI answers each chat gets per window. The count is
// approximate near window edges, which is fine for flood control.
type AIQuota struct {
	limit  int64
	window time.Duration

	mu       sync.Mutex
	limiters *lru.Cache[int64, *chatLimiter]
}

// NewAIQuota returns nil when limit <= 0; a nil quota allows everything
func NewAIQuota(limit int, window time.Duration) *AIQuota {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	cache, _ := lru.NewWithEvict(maxQuotaChats, func(_ int64, cl *chatLimiter) {
		cl.stop()
	})
	return &AIQuota{limit: int64(limit), window: window, limiters: cache}
}

func windowFunc() (slidingwindow.Window, slidingwindow.StopFunc) {
	return slidingwindow.NewLocalWindow()
}

// Allow consumes one answer from the chat's quota
func (q *AIQuota) Allow(chatID int64) bool {
	if q == nil {
		return true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	cl, ok := q.limiters.Get(chatID)
	if !ok {
		lim, stop := slidingwindow.NewLimiter(q.window, q.limit, windowFunc)
		cl = &chatLimiter{limiter: lim, stop: stop}
		q.limiters.Add(chatID, cl)
	}
	return cl.limiter.Allow()
}
