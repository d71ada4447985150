package transport

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most limit calls in any sliding window. It is shared by
// every Client built from one Session and is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	admitted []time.Time
}

// NewLimiter returns a limiter; a non-positive limit or window disables it.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window}
}

// Wait blocks until the call can be admitted and reports how long it waited.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	if l == nil || l.limit <= 0 || l.window <= 0 {
		return 0, ctx.Err()
	}

	start := time.Now()
	for {
		l.mu.Lock()
		now := time.Now()
		l.evict(now)
		if len(l.admitted) < l.limit {
			l.admitted = append(l.admitted, now)
			l.mu.Unlock()
			return now.Sub(start), nil
		}
		wait := l.admitted[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Since(start), ctx.Err()
		case <-timer.C:
		}
	}
}

// evict drops admissions that have left the window. Callers hold mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
