// Package metrics keeps in-process operational counters. There is no
// emission pipeline; the API exposes a snapshot on /metrics and cache
// code bumps counters instead of surfacing transient failures.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

var (
	mu       sync.Mutex
	counters = map[string]*atomic.Int64{}
)

// Counter returns the named counter, creating it on first use.
func Counter(name string) *atomic.Int64 {
	mu.Lock()
	defer mu.Unlock()
	c, ok := counters[name]
	if !ok {
		c = &atomic.Int64{}
		counters[name] = c
	}
	return c
}

// Inc bumps the named counter by one.
func Inc(name string) {
	Counter(name).Add(1)
}

// Snapshot returns all counters in name order.
func Snapshot() map[string]int64 {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]int64, len(names))
	for _, name := range names {
		out[name] = counters[name].Load()
	}
	return out
}

// Reset zeroes every counter. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range counters {
		c.Store(0)
	}
}
