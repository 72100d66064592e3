package signal

import (
	"sync"
	"time"

	"github.com/vokitoky/vokitoky/internal/domain"
)

const (
	defaultVoiceBurst  = 20
	defaultVoiceWindow = 10 * time.Second
)

// VoiceRateLimiter bounds transmissions per connection over a sliding window.
type VoiceRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewVoiceRateLimiter(limit int, interval time.Duration) *VoiceRateLimiter {
	return &VoiceRateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *VoiceRateLimiter) Allow(id domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[id] = fresh
	return true
}

// Forget drops a connection's history once it goes away.
func (rl *VoiceRateLimiter) Forget(id domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, id)
}
