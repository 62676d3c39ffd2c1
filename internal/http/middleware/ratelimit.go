package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/apierr"
	"github.com/yungbote/boostcart-backend/internal/platform/ctxutil"
)

const limiterIdleTTL = 10 * time.Minute

// UserRateLimiter keeps one token bucket per authenticated user. Buckets idle
// for longer than limiterIdleTTL are dropped on the next sweep.
type UserRateLimiter struct {
	limit   rate.Limit
	burst   int
	metrics *observability.Metrics
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[uuid.UUID]*userBucket
	lastSweep time.Time
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewUserRateLimiter(perMinute float64, burst int, metrics *observability.Metrics) *UserRateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	return &UserRateLimiter{
		limit:   limit,
		burst:   burst,
		metrics: metrics,
		now:     time.Now,
		buckets: map[uuid.UUID]*userBucket{},
	}
}

func (l *UserRateLimiter) Allow(userID uuid.UUID) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		l.sweep(now)
	}
	b := l.buckets[userID]
	if b == nil {
		b = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *UserRateLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

// Middleware must run after RequireAuth.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ctxutil.UserID(c.Request.Context())
		if userID != uuid.Nil && !l.Allow(userID) {
			route := c.FullPath()
			if route == "" {
				route = "unknown"
			}
			l.metrics.IncRateLimited(route)
			c.Header("Retry-After", "60")
			response.RespondError(c, http.StatusTooManyRequests, apierr.CodeRateLimited, errRateLimited)
			return
		}
		c.Next()
	}
}
