package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/socialbounty/groupbot/internal/biz/repo"
)

type pendingDeletion struct {
	chatID    int64
	messageID int
	due       time.Time
}

// Janitor deletes bot messages once their time to live has passed
type Janitor struct {
	messenger repo.MessengerRepo
	log       *zap.SugaredLogger
	now       func() time.Time

	interval time.Duration
	mu       sync.Mutex
	pending  []pendingDeletion // sorted by due
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewJanitor creates a new janitor that checks for due deletions every interval
func NewJanitor(messenger repo.MessengerRepo, interval time.Duration, log *zap.SugaredLogger) *Janitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Janitor{
		messenger: messenger,
		log:       log,
		now:       time.Now,
		interval:  interval,
	}
}

// Schedule deletes the message after ttl
func (j *Janitor) Schedule(chatID int64, messageID int, ttl time.Duration) {
	p := pendingDeletion{chatID: chatID, messageID: messageID, due: j.now().Add(ttl)}

	j.mu.Lock()
	i := sort.Search(len(j.pending), func(i int) bool { return j.pending[i].due.After(p.due) })
	j.pending = append(j.pending, pendingDeletion{})
	copy(j.pending[i+1:], j.pending[i:])
	j.pending[i] = p
	n := len(j.pending)
	j.mu.Unlock()

	pendingDeletions.Set(float64(n))
}

// Pending returns how many deletions are waiting
func (j *Janitor) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Start starts the janitor loop
func (j *Janitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.loop()

	j.log.Infow("janitor started", "interval", j.interval)
}

// Stop stops the loop. Deletions still pending are dropped.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
	j.log.Infow("janitor stopped", "dropped", j.Pending())
}

func (j *Janitor) loop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.sweep(j.ctx)
		}
	}
}

// sweep deletes every message that is due
func (j *Janitor) sweep(ctx context.Context) {
	now := j.now()

	j.mu.Lock()
	i := sort.Search(len(j.pending), func(i int) bool { return j.pending[i].due.After(now) })
	due := append([]pendingDeletion(nil), j.pending[:i]...)
	j.pending = j.pending[i:]
	n := len(j.pending)
	j.mu.Unlock()

	pendingDeletions.Set(float64(n))

	for _, p := range due {
		if err := j.messenger.DeleteMessage(ctx, p.chatID, p.messageID); err != nil {
			actionsFailed.WithLabelValues("scheduled_delete", errorClass(err)).Inc()
			j.log.Warnw("scheduled delete failed", "chat", p.chatID, "message", p.messageID, "err", err)
			continue
		}
		actionsDispatched.WithLabelValues("scheduled_delete").Inc()
	}
}
