package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/questforge/pigateway/internal/dependencies/clock"
)

// Limiter bounds how often a subject may attempt an operation.
// Allow reports whether the subject is still within its ceiling for
// the current window, counting this attempt.
type Limiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}

// Config holds rate limiter settings
type Config struct {
	// Limit is the attempt ceiling per window
	Limit int
	// Window is the fixed window length
	Window time.Duration
}

// DefaultConfig returns the default verification rate limit
func DefaultConfig() Config {
	return Config{
		Limit:  30,
		Window: 60 * time.Second,
	}
}

// Subject derives a rate-limit subject key from a credential.
// Hashing keeps raw credentials out of counter keys and logs.
func Subject(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// MemoryLimiter is a fixed-window counter keyed by subject
type MemoryLimiter struct {
	cfg   Config
	clock clock.Clock

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-memory fixed-window limiter
func NewMemoryLimiter(cfg Config, clk clock.Clock) *MemoryLimiter {
	if cfg.Limit == 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &MemoryLimiter{
		cfg:     cfg,
		clock:   clk,
		windows: make(map[string]*window),
	}
}

// Allow counts an attempt for the subject and reports whether it is
// within the ceiling for the current window
func (l *MemoryLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[subject]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		w = &window{start: now}
		l.windows[subject] = w
	}

	if w.count >= l.cfg.Limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Prune removes elapsed windows (call periodically)
func (l *MemoryLimiter) Prune() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for subject, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window {
			delete(l.windows, subject)
		}
	}
}
