package app

import (
	"time"

	"github.com/dkeye/Sketch/internal/core"
)

// AttemptLimiter is a sliding window counter per connection. Used for join
// attempts so a socket cannot brute force a room password.
type AttemptLimiter struct {
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewAttemptLimiter(limit int, interval time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow records an attempt and reports whether it fits the window.
// A limit <= 0 disables limiting.
func (rl *AttemptLimiter) Allow(sid core.SessionID) bool {
	if rl.limit <= 0 {
		return true
	}
	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}
	rl.history[sid] = append(fresh, now)
	return true
}

func (rl *AttemptLimiter) Forget(sid core.SessionID) {
	delete(rl.history, sid)
}
