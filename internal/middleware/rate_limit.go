package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"infinite-experiment/roster/internal/auth"
)

const (
	maxTrackedClients = 4096
	limiterIdleTTL    = 10 * time.Minute
)

var whitelistedIPs = map[string]bool{
	"127.0.0.1": true, // local bot
	"::1":       true,
}

// RateLimiter keeps one token bucket per guild, or per IP for requests
// without a guild. Idle buckets expire.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	limiters *expirable.LRU[string, *rate.Limiter]
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, limiterIdleTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters.Add(key, l)
	return l
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, _ := net.SplitHostPort(r.RemoteAddr)
		if whitelistedIPs[ip] {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + ip
		if claims := auth.GetUserClaims(r.Context()); claims != nil && claims.DiscordServerID() != "" {
			key = "guild:" + claims.DiscordServerID()
		}
		if !rl.limiter(key).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
