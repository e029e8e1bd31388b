package stub

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// rateLimiter keeps one token bucket per client address.
type rateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{clients: make(map[string]*ratelimit.Bucket)}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) bucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			// 3 tokens per second, max 1000
			bucket = ratelimit.NewBucketWithRate(3, 1000)
			rl.clients[clientIP] = bucket
		}
		rl.mu.Unlock()
	}
	return bucket
}

// cleanupLoop drops clients whose buckets have fully refilled.
func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for ip, bucket := range rl.clients {
			if bucket.Available() == bucket.Capacity() {
				delete(rl.clients, ip)
			}
		}
		rateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		rl.mu.Unlock()
	}
}

// tokenCost weights endpoints by how expensive the real backend's
// counterpart would be.
func tokenCost(r *http.Request) int64 {
	path := r.URL.Path

	switch path {
	case "/health", "/metrics":
		return 5
	}

	switch {
	case strings.HasPrefix(path, "/auth/"):
		return 50
	case strings.HasPrefix(path, "/ai/"), strings.HasSuffix(path, "/analyze"):
		return 100
	default:
		return 20
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.bucket(r.RemoteAddr)
		cost := tokenCost(r)

		w.Header().Set("X-RateLimit-Limit", "1000")
		w.Header().Set("X-RateLimit-Rate", "3")

		if bucket.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
