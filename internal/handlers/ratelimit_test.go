package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10)

	assert.True(t, rl.Allow("1.2.3.4"), "first request should be allowed")
	assert.True(t, rl.Allow("5.6.7.8"), "different IP should be allowed")
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(5) // burst = 10

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.Allow("10.0.0.1") {
			allowed++
		}
	}

	assert.GreaterOrEqual(t, allowed, 5)
	assert.Less(t, allowed, 20, "rate limiter should have blocked some requests")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(5)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.sweep(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, rl.size())

	rl.sweep(time.Now().Add(time.Second))
	assert.Equal(t, 0, rl.size())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
