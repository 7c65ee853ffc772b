package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	windowStart  time.Time
	blockedUntil time.Time
}

// Memory is a process-local limiter with a fixed failure window and lockout.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs a limiter; non-positive arguments take the package defaults.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxFails <= 0 {
		maxFails = DefaultMaxFails
	}
	if blockFor <= 0 {
		blockFor = DefaultBlockFor
	}
	return &Memory{
		entries:  map[string]*entry{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (l *Memory) WithClock(now func() time.Time) *Memory {
	l.now = now
	return l
}

func key(username string, ipHash []byte) string {
	return username + "\x00" + string(ipHash)
}

// Allow reports whether (username, ip) may attempt a login now.
func (l *Memory) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(username, ipHash)
	e, ok := l.entries[k]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	if l.stale(e, now) {
		delete(l.entries, k)
	}
	return true, 0, nil
}

// Success forgets all failures for (username, ip).
func (l *Memory) Success(ctx context.Context, username string, ipHash []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key(username, ipHash))
	return nil
}

// Failure records a failed attempt. Failures older than the window restart the count.
func (l *Memory) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := key(username, ipHash)
	e, ok := l.entries[k]
	if !ok {
		l.sweep(now)
	}
	if !ok || now.Sub(e.windowStart) > l.window {
		e = &entry{windowStart: now}
		l.entries[k] = e
	}
	e.fails++
	if e.fails >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		e.fails = 0
		e.windowStart = now
		return true, l.blockFor, nil
	}
	return false, 0, nil
}

// stale reports whether e is neither blocked nor inside its failure window.
func (l *Memory) stale(e *entry, now time.Time) bool {
	return !e.blockedUntil.After(now) && now.Sub(e.windowStart) > l.window
}

// sweep drops stale entries. Called with mu held when a new pair shows up.
func (l *Memory) sweep(now time.Time) {
	for k, e := range l.entries {
		if l.stale(e, now) {
			delete(l.entries, k)
		}
	}
}
