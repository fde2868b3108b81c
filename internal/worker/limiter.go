package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter implements per-domain rate limiting shared by every adapter of a run
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig creates a limiter from the rate_limiting section
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return NewLimiter(rps, cfg.Burst)
}

// Wait waits for rate limit clearance for the given URL's domain
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}

	if err := l.getLimiter(domain).Wait(ctx); err != nil {
		return eris.Wrapf(err, "limiter: wait for %s", domain)
	}
	return nil
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(rawURL string) bool {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return false
	}
	return l.getLimiter(domain).Allow()
}

func (l *Limiter) getLimiter(domain string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[domain]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[domain] = limiter
	return limiter
}

// SetDomainRate sets a custom rate limit for a specific domain
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[normalizeDomain(domain)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// ApplyCrawlDelay slows a domain to one request per delay when robots.txt asks
// for more spacing than the current rate allows. It never speeds a domain up.
func (l *Limiter) ApplyCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	domain, err := extractDomain(rawURL)
	if err != nil {
		return
	}

	want := rate.Every(delay)
	current := l.getLimiter(domain)
	if current.Limit() <= want {
		return
	}
	current.SetLimit(want)
	current.SetBurst(1)
}

// extractDomain returns the lower-cased host without a leading "www."
func extractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "limiter: parse url")
	}
	return normalizeDomain(parsed.Host), nil
}

func normalizeDomain(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// WaitWithDelay waits for rate limit and adds an additional delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}

	if additionalDelay > 0 {
		timer := time.NewTimer(additionalDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}
