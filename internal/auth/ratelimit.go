package auth

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/metrics"
)

// RateLimiter throttles sign-in per client address and username. Failures are
// counted inside a fixed window that opens at the first failure; reaching
// MaxAttempts locks the pair out for LockoutDuration. A successful sign-in
// forgets the pair.
type RateLimiter struct {
	cfg   RateLimitConfig
	clock func() time.Time

	mu       sync.Mutex
	failures map[limiterKey]*failureWindow

	stop chan struct{}
	done chan struct{}
}

type limiterKey struct {
	ip       string
	username string
}

type failureWindow struct {
	opened      time.Time
	count       int
	lockedUntil time.Time
}

func (w *failureWindow) expired(now time.Time, window time.Duration) bool {
	return now.Sub(w.opened) > window
}

func (w *failureWindow) locked(now time.Time) bool {
	return now.Before(w.lockedUntil)
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // failures before lockout (default: 5)
	WindowDuration  time.Duration // failure counting window (default: 15m)
	LockoutDuration time.Duration // lockout length (default: 30m)
	CleanupInterval time.Duration // sweep of stale entries (default: 5m)

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiter starts a limiter and its sweeper goroutine. Call Stop to end it.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = defaults.WindowDuration
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaults.LockoutDuration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	rl := &RateLimiter{
		cfg:      cfg,
		clock:    clock,
		failures: make(map[limiterKey]*failureWindow),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweeper and waits for it to exit.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
	<-rl.done
}

// Allow reports whether a sign-in attempt may proceed. When it may not, the
// second result is the time left until the lockout ends.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := rl.clock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.failures[limiterKey{ip, username}]
	if !ok {
		return true, 0
	}
	if w.locked(now) {
		return false, w.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts a failed sign-in. It reports whether this failure
// started a lockout and for how long.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	key := limiterKey{ip, username}
	now := rl.clock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.failures[key]
	if !ok || (w.expired(now, rl.cfg.WindowDuration) && !w.locked(now)) {
		w = &failureWindow{opened: now}
		rl.failures[key] = w
	}

	w.count++
	if w.count < rl.cfg.MaxAttempts {
		return false, 0
	}

	w.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	metrics.RecordLockout()
	log.Printf("Sign-in for %q from %s locked out until %s", username, ip, w.lockedUntil.Format(time.RFC3339))
	return true, rl.cfg.LockoutDuration
}

// RecordSuccess forgets the failures of the pair.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, limiterKey{ip, username})
	rl.mu.Unlock()
}

func (rl *RateLimiter) sweepLoop() {
	defer close(rl.done)

	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep drops pairs whose window has closed and whose lockout has ended.
func (rl *RateLimiter) sweep() {
	now := rl.clock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.failures {
		if w.expired(now, rl.cfg.WindowDuration) && !w.locked(now) {
			delete(rl.failures, key)
		}
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.failures)
}

// Guard rejects a sign-in attempt for username from the request's client IP
// while it is locked out. It reports whether the handler may proceed.
func (rl *RateLimiter) Guard(c *gin.Context, username string) bool {
	allowed, retryAfter := rl.Allow(c.ClientIP(), username)
	if allowed {
		return true
	}

	seconds := int(math.Ceil(retryAfter.Seconds()))
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":   "too many sign-in attempts",
		"code":    "rate_limited",
		"details": gin.H{"retry_after_seconds": seconds},
	})
	return false
}
