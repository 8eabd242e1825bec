// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package standardizer

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TFMV/InstitutionMatchPro/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultCacheTTL      = time.Hour
	DefaultCacheCapacity = 1000
)

type cacheEntry struct {
	result Result
	seq    uint64
}

// Cache memoizes normalization results per raw input. Entries expire after the
// TTL; once the entry count exceeds the capacity the oldest entries are evicted
// in one batch. A nil *Cache disables caching.
type Cache struct {
	items    *gocache.Cache
	ttl      time.Duration
	capacity int
	seq      atomic.Uint64
	sweep    sync.Mutex
}

// NewCache creates a cache. Non-positive arguments fall back to the defaults.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		items:    gocache.New(ttl, ttl),
		ttl:      ttl,
		capacity: capacity,
	}
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	v, ok := c.items.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	entry, ok := v.(cacheEntry)
	if !ok {
		// Foreign value under our key: drop it and let the caller recompute.
		c.items.Delete(key)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry.result.clone(), true
}

// Set stores a result and evicts the oldest batch when over capacity.
func (c *Cache) Set(key string, r Result) {
	if c == nil {
		return
	}
	c.items.SetDefault(key, cacheEntry{result: r.clone(), seq: c.seq.Add(1)})
	if c.items.ItemCount() > c.capacity {
		c.evict()
	}
}

func (c *Cache) evict() {
	c.sweep.Lock()
	defer c.sweep.Unlock()

	items := c.items.Items()
	if len(items) <= c.capacity {
		return
	}
	type aged struct {
		key string
		seq uint64
	}
	entries := make([]aged, 0, len(items))
	for k, item := range items {
		var seq uint64
		if e, ok := item.Object.(cacheEntry); ok {
			seq = e.seq
		}
		entries = append(entries, aged{key: k, seq: seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	batch := c.capacity / 10
	if over := len(entries) - c.capacity; over > batch {
		batch = over
	}
	if batch < 1 {
		batch = 1
	}
	for _, e := range entries[:batch] {
		c.items.Delete(e.key)
	}
	metrics.CacheEvictions.Add(float64(batch))
}

// Len reports the number of unexpired entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.items.ItemCount()
}

// Flush drops every entry.
func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.items.Flush()
}
