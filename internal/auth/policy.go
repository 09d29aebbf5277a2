// Package auth decides who may use the desk and issues their sessions.
//
// Access is granted two ways: a magic link mailed to an address on the configured allow-list,
// or an operator-issued access token. The email gate only proves control of a mailbox; it is
// not a strong credential.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrNotAllowed   = errors.New("email is not allowed to sign in")
	ErrRateLimited  = errors.New("too many sign-in attempts, wait and retry")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Policy is the allow-list of principals that may request a magic link.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a Policy from emails. Blank entries are ignored.
func NewPolicy(emails []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			p.allowed[e] = struct{}{}
		}
	}
	return p
}

// Allows reports whether email is on the allow-list.
func (p *Policy) Allows(email string) bool {
	_, ok := p.allowed[NormalizeEmail(email)]
	return ok
}

// Len returns the number of allowed principals.
func (p *Policy) Len() int { return len(p.allowed) }

// Limiter throttles attempts per key, e.g. per email address.
type Limiter struct {
	mu    sync.Mutex
	every rate.Limit
	burst int
	keys  map[string]*rate.Limiter
	now   func() time.Time
}

// NewLimiter allows burst attempts per key, refilled evenly across window.
func NewLimiter(burst int, window time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		every: rate.Every(window / time.Duration(burst)),
		burst: burst,
		keys:  map[string]*rate.Limiter{},
		now:   time.Now,
	}
}

// Allow consumes one attempt for key and reports whether it was permitted.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.keys[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.keys[key] = lim
	}
	return lim.AllowN(l.now(), 1)
}
