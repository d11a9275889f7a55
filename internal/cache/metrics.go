package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// counters общие счётчики попаданий для реализаций CacheRepo
type counters struct {
	requests   int64
	hits       int64
	misses     int64
	maxLatency int64 // в наносекундах

	mu         sync.Mutex
	lastUpdate time.Time
}

func (c *counters) hit()  { atomic.AddInt64(&c.requests, 1); atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.requests, 1); atomic.AddInt64(&c.misses, 1) }

func (c *counters) recordLatency(start time.Time) {
	d := int64(time.Since(start))
	for {
		cur := atomic.LoadInt64(&c.maxLatency)
		if d <= cur || atomic.CompareAndSwapInt64(&c.maxLatency, cur, d) {
			break
		}
	}
	c.mu.Lock()
	c.lastUpdate = time.Now()
	c.mu.Unlock()
}

func (c *counters) snapshot(keys int64) CacheMetrics {
	m := CacheMetrics{
		TotalRequests: atomic.LoadInt64(&c.requests),
		CacheHits:     atomic.LoadInt64(&c.hits),
		CacheMisses:   atomic.LoadInt64(&c.misses),
		MaxLatencyMs:  float64(atomic.LoadInt64(&c.maxLatency)) / float64(time.Millisecond),
		TotalKeys:     keys,
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	}
	c.mu.Lock()
	m.LastUpdate = c.lastUpdate
	c.mu.Unlock()
	return m
}
