// Package rate implementa rate limiting fixed-window para los endpoints de
// emisión de OTPs.
package rate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Result es el veredicto de un intento.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter decide si un intento identificado por key puede pasar.
type Limiter interface {
	Allow(key string) (Result, error)
}

// MemoryLimiter: fixed window sencillo sobre go-cache. Las ventanas
// vencidas se purgan solas (TTL del cache), así el limiter no crece
// sin límite.
type MemoryLimiter struct {
	Prefix string
	Max    int64
	Window time.Duration

	mu sync.Mutex
	c  *gocache.Cache
}

// NewMemoryLimiter crea un limiter con máximo max por ventana window.
func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		c:      gocache.New(window, 2*window),
	}
}

func (l *MemoryLimiter) Allow(key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	cacheKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())
	winEnd := winStart.Add(l.Window)

	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.c.Get(cacheKey); ok {
		hits = v.(int64) + 1
	}
	l.c.Set(cacheKey, hits, time.Until(winEnd))
	l.mu.Unlock()

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = time.Until(winEnd)
		if res.RetryAfter < 0 {
			res.RetryAfter = l.Window
		}
	}
	return res, nil
}
