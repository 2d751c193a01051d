package api

import (
	"os"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// tenantLimiter throttles solve submissions per tenant. SOLVE_RATE_PER_MIN
// configures the sustained rate; burst is fixed at 10.
type tenantLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func newTenantLimiter() *tenantLimiter {
	perMin := 60.0
	if v := os.Getenv("SOLVE_RATE_PER_MIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			perMin = f
		}
	}
	return &tenantLimiter{m: map[string]*rate.Limiter{}, limit: rate.Limit(perMin / 60.0), burst: 10}
}

func (l *tenantLimiter) allow(tenant string) bool {
	l.mu.Lock()
	lim, ok := l.m[tenant]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.m[tenant] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
