package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterWindow(t *testing.T) {
	clock := quartz.NewMock(t)
	l := NewLimiter(clock)

	for i := 0; i < 3; i++ {
		d := l.Allow("k", 3, time.Minute)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d := l.Allow("k", 3, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Positive(t, d.RetryAfter(clock.Now()))

	// Separate keys have separate windows.
	assert.True(t, l.Allow("other", 3, time.Minute).Allowed)

	// The window rolls over and the key breathes again.
	clock.Advance(61 * time.Second)
	d = l.Allow("k", 3, time.Minute)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestRetryAfterFloorsAtOne(t *testing.T) {
	clock := quartz.NewMock(t)
	d := Decision{ResetAt: clock.Now()}
	assert.Equal(t, 1, d.RetryAfter(clock.Now()))
	assert.Equal(t, 1, d.RetryAfter(clock.Now().Add(time.Hour)))
}

func TestRegisterRateLimitPerIP(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.Limits.RegisterPerMin = 2
	})

	for i := 0; i < 2; i++ {
		w, _ := ts.do(t, "POST", "/api/register", "", map[string]string{
			"name": fmt.Sprintf("Bot%d", i),
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w, body := ts.do(t, "POST", "/api/register", "", map[string]string{"name": "BotLate"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.NotNil(t, body["retryAfter"])

	// A minute later the window reopens.
	ts.advance(t, 61*time.Second)
	w, _ = ts.do(t, "POST", "/api/register", "", map[string]string{"name": "BotLate"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRateLimitPerAgent(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.Limits.AuthPerMin = 3
	})
	_, keyA := ts.register(t, "BotAlpha")
	_, keyB := ts.register(t, "BotBravo")

	for i := 0; i < 3; i++ {
		w, _ := ts.do(t, "GET", "/api/me", keyA, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, _ := ts.do(t, "GET", "/api/me", keyA, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// The limit is per agent, not global.
	w, _ = ts.do(t, "GET", "/api/me", keyB, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatRateLimitIsSeparate(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.Limits.ChatPerMin = 1
	})
	keyA, _ := seated(t, ts)

	w, _ := ts.do(t, "POST", "/api/table/chat", keyA, map[string]string{"text": "gl"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, "POST", "/api/table/chat", keyA, map[string]string{"text": "hf"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Auth-class traffic still flows for the same agent.
	w, _ = ts.do(t, "GET", "/api/table/state", keyA, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
