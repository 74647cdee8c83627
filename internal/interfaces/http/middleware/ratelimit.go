package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/dto"
)

// clientWindow tracks request timestamps for one client IP
type clientWindow struct {
	timestamps []time.Time
}

// RateLimiter applies a per-IP sliding-window limit to inbound requests
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	limit    int
	window   time.Duration
	lastSwep time.Time
}

// NewRateLimiter creates an inbound rate limiter allowing limit requests
// per window per client IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
}

// Middleware returns the gin middleware enforcing the limit
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.ErrorResponse("RATE_LIMITED", "too many requests, slow down"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSwep) > rl.window {
		rl.sweep(cutoff)
		rl.lastSwep = now
	}

	client, ok := rl.clients[ip]
	if !ok {
		client = &clientWindow{}
		rl.clients[ip] = client
	}

	kept := client.timestamps[:0]
	for _, ts := range client.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	client.timestamps = kept

	if len(client.timestamps) >= rl.limit {
		return false
	}
	client.timestamps = append(client.timestamps, now)
	return true
}

// sweep drops clients with no recent requests
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for ip, client := range rl.clients {
		active := false
		for _, ts := range client.timestamps {
			if ts.After(cutoff) {
				active = true
				break
			}
		}
		if !active {
			delete(rl.clients, ip)
		}
	}
}
