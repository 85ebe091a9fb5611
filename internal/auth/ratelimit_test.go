package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRateLimiter_LocksOutAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
	})
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		locked, _ := rl.RecordFailure("10.0.0.1", "alice")
		assert.False(t, locked)
	}
	allowed, _ := rl.Allow("10.0.0.1", "alice")
	assert.True(t, allowed)

	locked, retryAfter := rl.RecordFailure("10.0.0.1", "alice")
	assert.True(t, locked)
	assert.Equal(t, time.Minute, retryAfter)

	allowed, _ = rl.Allow("10.0.0.1", "alice")
	assert.False(t, allowed)

	// Other usernames and addresses are tracked separately.
	allowed, _ = rl.Allow("10.0.0.1", "bob")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.2", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessClearsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 2})
	defer rl.Stop()

	rl.RecordFailure("10.0.0.1", "alice")
	rl.RecordSuccess("10.0.0.1", "alice")
	locked, _ := rl.RecordFailure("10.0.0.1", "alice")

	assert.False(t, locked)
}

func TestRateLimiter_Guard(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 1, LockoutDuration: 90 * time.Second})
	defer rl.Stop()

	router := gin.New()
	router.POST("/signin", func(c *gin.Context) {
		if !rl.Guard(c, "alice") {
			return
		}
		rl.RecordFailure(c.ClientIP(), "alice")
		c.Status(http.StatusUnauthorized)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/signin", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/signin", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateLimiter_LockoutExpires(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Minute,
		LockoutDuration: 10 * time.Minute,
		Clock:           clock.Now,
	})
	defer rl.Stop()

	rl.RecordFailure("10.0.0.1", "alice")
	locked, _ := rl.RecordFailure("10.0.0.1", "alice")
	require.True(t, locked)

	clock.advance(4 * time.Minute)
	allowed, retryAfter := rl.Allow("10.0.0.1", "alice")
	assert.False(t, allowed)
	assert.Equal(t, 6*time.Minute, retryAfter)

	clock.advance(6*time.Minute + time.Second)
	allowed, _ = rl.Allow("10.0.0.1", "alice")
	assert.True(t, allowed)

	// The next failure opens a fresh window instead of re-locking at once.
	locked, _ = rl.RecordFailure("10.0.0.1", "alice")
	assert.False(t, locked)
}

func TestRateLimiter_WindowResetsCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, Clock: clock.Now})
	defer rl.Stop()

	rl.RecordFailure("10.0.0.1", "alice")
	clock.advance(2 * time.Minute)
	locked, _ := rl.RecordFailure("10.0.0.1", "alice")

	assert.False(t, locked)
}

func TestRateLimiter_SweepDropsStaleEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     1,
		WindowDuration:  time.Minute,
		LockoutDuration: 5 * time.Minute,
		Clock:           clock.Now,
	})
	defer rl.Stop()

	rl.RecordFailure("10.0.0.1", "locked")
	clock.advance(30 * time.Second)
	rl.RecordSuccess("10.0.0.1", "nobody")
	rl.mu.Lock()
	rl.failures[limiterKey{"10.0.0.2", "stale"}] = &failureWindow{opened: clock.now.Add(-time.Hour), count: 1}
	rl.mu.Unlock()
	require.Equal(t, 2, rl.tracked())

	clock.advance(time.Minute)
	rl.sweep()
	assert.Equal(t, 1, rl.tracked(), "locked pair must survive the sweep")

	clock.advance(5 * time.Minute)
	rl.sweep()
	assert.Zero(t, rl.tracked())
}
