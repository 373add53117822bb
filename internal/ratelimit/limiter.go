// SPDX-License-Identifier: MIT

// Package ratelimit implements token-bucket throttling of the query endpoints.
package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/metrics"
	"golang.org/x/time/rate"
)

// Scopes group endpoints by cost.
const (
	ScopeQuery   = "query"  // network and records
	ScopeLookup  = "lookup" // selector options and summary
	ScopeGlobal  = "global" // label used when the process-wide bucket rejects
	ScopePerPeer = "per_ip" // label used when a client bucket rejects
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-IP limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// Per-scope limits shared by all clients
	ScopeRates map[string]rate.Limit
	ScopeBurst map[string]int

	// Whitelist entries are IPs or CIDRs that bypass every bucket.
	Whitelist []string

	// Cleanup interval for per-IP limiters
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  50,
		GlobalBurst: 100,

		PerIPRate:  2, // 120 req/min
		PerIPBurst: 20,

		ScopeRates: map[string]rate.Limit{
			ScopeQuery:  10, // graph building is the expensive path
			ScopeLookup: 40,
		},
		ScopeBurst: map[string]int{
			ScopeQuery:  20,
			ScopeLookup: 80,
		},

		CleanupInterval: 5 * time.Minute,
	}
}

// FromAppConfig derives limiter settings from the rateLimit config block.
// The per-client bucket refills at RequestsPerMinute; process-wide buckets
// are sized as a multiple of it.
func FromAppConfig(rc config.RateLimitConfig) Config {
	cfg := DefaultConfig()
	if rc.RequestsPerMinute > 0 {
		perSec := rate.Limit(float64(rc.RequestsPerMinute) / 60)
		cfg.PerIPRate = perSec
		cfg.GlobalRate = perSec * 25
		cfg.ScopeRates[ScopeQuery] = perSec * 5
		cfg.ScopeRates[ScopeLookup] = perSec * 20
	}
	if rc.Burst > 0 {
		cfg.PerIPBurst = rc.Burst
		cfg.GlobalBurst = rc.Burst * 25
		cfg.ScopeBurst[ScopeQuery] = rc.Burst * 5
		cfg.ScopeBurst[ScopeLookup] = rc.Burst * 20
	}
	cfg.Whitelist = rc.Whitelist
	return cfg
}

// Limiter applies global, per-scope and per-client token buckets.
type Limiter struct {
	config Config

	global    *rate.Limiter
	perIP     map[string]*rate.Limiter
	perScope  map[string]*rate.Limiter
	whitelist Networks
	mu        sync.RWMutex

	lastCleanup time.Time
	now         func() time.Time
}

// New creates a new rate limiter with the given config.
// Whitelist entries that do not parse are ignored.
func New(config Config) *Limiter {
	l := &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perIP:       make(map[string]*rate.Limiter),
		perScope:    make(map[string]*rate.Limiter),
		whitelist:   ParseNetworks(config.Whitelist),
		lastCleanup: time.Now(),
		now:         time.Now,
	}

	for scope, scopeRate := range config.ScopeRates {
		l.perScope[scope] = rate.NewLimiter(scopeRate, config.ScopeBurst[scope])
	}

	return l
}

// Allow reports whether a request from clientIP in scope may proceed.
// Rejections are counted in the rate limit metric by the bucket that refused.
func (l *Limiter) Allow(clientIP, scope string) bool {
	if l.whitelist.Contains(clientIP) {
		return true
	}

	if !l.global.Allow() {
		metrics.IncRateLimitRejection(ScopeGlobal)
		return false
	}

	l.mu.RLock()
	scopeLimiter, exists := l.perScope[scope]
	l.mu.RUnlock()

	if exists && !scopeLimiter.Allow() {
		metrics.IncRateLimitRejection(scope)
		return false
	}

	l.maybeCleanup()

	if !l.getIPLimiter(clientIP).Allow() {
		metrics.IncRateLimitRejection(ScopePerPeer)
		return false
	}

	return true
}

// getIPLimiter returns the rate limiter for a specific IP
func (l *Limiter) getIPLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perIP[ip]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)
		l.perIP[ip] = limiter
	}

	return limiter
}

// maybeCleanup drops all client buckets once per cleanup interval.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) < l.config.CleanupInterval {
		return
	}
	l.perIP = make(map[string]*rate.Limiter)
	l.lastCleanup = now
}

// Networks is a parsed list of IPs and CIDRs.
type Networks []netip.Prefix

// ParseNetworks parses IPs and CIDRs, skipping malformed entries.
func ParseNetworks(entries []string) Networks {
	var out Networks
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

// Contains reports whether ip falls inside any of the networks.
func (n Networks) Contains(ip string) bool {
	if len(n) == 0 {
		return false
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range n {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// GetClientIP extracts the client IP from the request.
// Forwarding headers are honoured only when the direct peer is in trusted.
func GetClientIP(r *http.Request, trusted Networks) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !trusted.Contains(peer) {
		return peer
	}

	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return peer
}
