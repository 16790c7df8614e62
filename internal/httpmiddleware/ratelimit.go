package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"attendview/internal/auth"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by client address.
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

// SubjectOrIP keys authenticated requests by token subject and the rest by
// client IP.
func SubjectOrIP(c *gin.Context) string {
	if claims, ok := auth.ClaimsFrom(c); ok && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	return ClientIP(c)
}

// TokenBucket is an in-memory per-key rate limiter.
type TokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates limiter with capacity tokens and rate per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if perMinute <= 0 {
		perMinute = 60
	}
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

// Middleware returns gin handler enforcing limits per key.
func (l *TokenBucket) Middleware(key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.allow(key(c))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// allow takes a token for key, or reports how long until one is available.
func (l *TokenBucket) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, 0
	}
	perToken := time.Minute / time.Duration(l.rate)
	if refill := int(now.Sub(b.last) / perToken); refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = b.last.Add(time.Duration(refill) * perToken)
	}
	if b.tokens <= 0 {
		return false, perToken - now.Sub(b.last)
	}
	b.tokens--
	return true, 0
}
