package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int
}

// memoryLimiter is the fixed-window counter used when Redis is not configured.
// Counts are per process.
type memoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	clients map[string]*clientInfo
	swept   time.Time
}

func newMemoryLimiter(window time.Duration) *memoryLimiter {
	return &memoryLimiter{window: window, clients: make(map[string]*clientInfo)}
}

// hit counts one request for key and returns the count in the current window.
func (l *memoryLimiter) hit(key string, now time.Time) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.window {
		for k, ci := range l.clients {
			if now.Sub(ci.start) > l.window {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}

	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > l.window {
		l.clients[key] = &clientInfo{start: now, count: 1}
		return 1
	}
	ci.count++
	return int64(ci.count)
}
