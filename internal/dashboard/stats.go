// SPDX-License-Identifier: MIT

package dashboard

import (
	"runtime"
	"sync"
	"time"
)

// ServiceStats is the runtime snapshot served by the stats endpoint.
type ServiceStats struct {
	StartTime      time.Time `json:"startTime"`
	UptimeSeconds  int64     `json:"uptimeSeconds"`
	MemoryUsageMB  float64   `json:"memoryUsageMB"`
	GoroutineCount int       `json:"goroutineCount"`
	CacheBackend   string    `json:"cacheBackend"`
	CacheHits      int64     `json:"cacheHits"`
	CacheMisses    int64     `json:"cacheMisses"`
	QueryCount     int64     `json:"queryCount"`
	ErrorCount     int64     `json:"errorCount"`
	AvgQueryMillis float64   `json:"avgQueryMillis"`
	LastQuery      time.Time `json:"lastQuery"`
}

type statsTracker struct {
	mu        sync.Mutex
	start     time.Time
	hits      int64
	misses    int64
	queries   int64
	errors    int64
	total     time.Duration
	lastQuery time.Time
	now       func() time.Time
}

func newStatsTracker() *statsTracker {
	return &statsTracker{start: time.Now(), now: time.Now}
}

func (t *statsTracker) recordCache(hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hit {
		t.hits++
	} else {
		t.misses++
	}
}

func (t *statsTracker) recordQuery(d time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries++
	t.total += d
	t.lastQuery = t.now()
	if err != nil {
		t.errors++
	}
}

func (t *statsTracker) snapshot() ServiceStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := ServiceStats{
		StartTime:      t.start,
		UptimeSeconds:  int64(t.now().Sub(t.start).Seconds()),
		MemoryUsageMB:  float64(mem.Alloc) / 1024 / 1024,
		GoroutineCount: runtime.NumGoroutine(),
		CacheHits:      t.hits,
		CacheMisses:    t.misses,
		QueryCount:     t.queries,
		ErrorCount:     t.errors,
		LastQuery:      t.lastQuery,
	}
	if t.queries > 0 {
		out.AvgQueryMillis = float64(t.total.Milliseconds()) / float64(t.queries)
	}
	return out
}

// Stats returns process and query statistics since start.
func (s *Service) Stats() ServiceStats {
	out := s.stats.snapshot()
	out.CacheBackend = s.backend
	return out
}
