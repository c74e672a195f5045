package progress

import (
	"time"

	"golang.org/x/time/rate"
)

// limiter allows one physical write per interval, with a burst of one. A nil
// limiter allows every write.
type limiter struct {
	lim *rate.Limiter
}

func newLimiter(interval time.Duration) *limiter {
	if interval <= 0 {
		return nil
	}
	return &limiter{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// ready returns true if a write at now would be allowed.
func (l *limiter) ready(now time.Time) bool {
	if l == nil {
		return true
	}
	return l.lim.TokensAt(now) >= 1
}

// take consumes a token at now if one is available.
func (l *limiter) take(now time.Time) bool {
	if l == nil {
		return true
	}
	return l.lim.AllowN(now, 1)
}

// wait returns how long after now the next write will be allowed, rounded up
// to a millisecond.
func (l *limiter) wait(now time.Time) time.Duration {
	if l == nil {
		return 0
	}
	tokens := l.lim.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	secs := (1 - tokens) / float64(l.lim.Limit())
	d := time.Duration(secs * float64(time.Second))
	return (d + time.Millisecond - 1).Truncate(time.Millisecond)
}
