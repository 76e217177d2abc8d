package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// requestLimiter gates incoming requests. Implementations must be safe
// for concurrent use.
type requestLimiter interface {
	Allow() bool
}

// tokenBucket adapts rate.Limiter to the requestLimiter seam. A nil
// receiver or zero value allows every request.
type tokenBucket struct {
	bucket *rate.Limiter
}

// newTokenBucket builds a limiter admitting perSecond requests with the
// given burst. Non-positive arguments are clamped to 1.
func newTokenBucket(perSecond float64, burst int) *tokenBucket {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *tokenBucket) Allow() bool {
	if t == nil || t.bucket == nil {
		return true
	}
	return t.bucket.Allow()
}

// rateLimitMiddleware rejects requests with 429 once the limiter runs
// dry. A nil limiter disables the middleware.
func rateLimitMiddleware(limiter requestLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
