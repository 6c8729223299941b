package store

import (
	"context"
	"sync"
	"time"
)

// maxLakeDetails bounds the detail lookups held at once, misses included.
const maxLakeDetails = 1024

// cache holds the memoized datasets. A nil slot is absent; an empty slice
// is a cached empty result. Every write is tagged with the generation it was
// started under so that work begun before a clear cannot repopulate it.
type cache struct {
	mu sync.RWMutex

	initialized bool
	lastUpdated time.Time
	generation  uint64
	detailLimit int

	overallStats  *OverallStats
	lakeStats     []LakeStat
	lakeDetails   map[string]*LakeDetail
	allLakes      []LakeSummary
	allGazetteers []GazetteerSummary
	allPoems      []PoemSummary
	locations     []LocationCount
}

func newCache() *cache {
	return &cache{
		lakeDetails: make(map[string]*LakeDetail),
		detailLimit: maxLakeDetails,
	}
}

func (c *cache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *cache) isInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// put applies set and stamps lastUpdated, unless the cache was cleared since
// gen was read.
func (c *cache) put(gen uint64, now time.Time, set func(*cache)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	set(c)
	c.lastUpdated = now
	return true
}

// putDetail records a detail lookup. Detail lookups do not move lastUpdated.
// When the detail map is full an arbitrary entry is evicted first.
func (c *cache) putDetail(gen uint64, name string, detail *LakeDetail) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	if _, ok := c.lakeDetails[name]; !ok && len(c.lakeDetails) >= c.detailLimit {
		for evict := range c.lakeDetails {
			delete(c.lakeDetails, evict)
			break
		}
	}
	c.lakeDetails[name] = detail
	return true
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.initialized = false
	c.lastUpdated = time.Time{}
	c.overallStats = nil
	c.lakeStats = nil
	c.lakeDetails = make(map[string]*LakeDetail)
	c.allLakes = nil
	c.allGazetteers = nil
	c.allPoems = nil
	c.locations = nil
}

func (c *cache) expired(now time.Time, maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastUpdated.IsZero() {
		return true
	}
	return now.Sub(c.lastUpdated) > maxAge
}

func (c *cache) info() CacheInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := CacheInfo{
		Initialized: c.initialized,
		DataTypes: CacheDataTypes{
			OverallStats:         c.overallStats != nil,
			LakeStats:            c.lakeStats != nil,
			AllLakes:             c.allLakes != nil,
			AllGazetteers:        c.allGazetteers != nil,
			AllPoems:             c.allPoems != nil,
			LocationDistribution: c.locations != nil,
			LakeDetailsCount:     len(c.lakeDetails),
		},
	}
	if !c.lastUpdated.IsZero() {
		updated := c.lastUpdated
		info.LastUpdated = &updated
	}
	return info
}

// ClearCache drops every cached dataset and resets initialization, so the
// next retrieval runs the full preload again. Work in flight when the cache
// is cleared does not repopulate it.
func (s *Store) ClearCache() {
	s.cache.clear()
	s.coord.Reset()
	s.logger.Info("cache cleared")
}

// RefreshData clears the cache and preloads every dataset again. Concurrent
// refreshes share one clear and one batch.
func (s *Store) RefreshData(ctx context.Context) (bool, error) {
	s.logger.InfoContext(ctx, "refreshing data")

	ch := s.flight.DoChan("refresh", func() (any, error) {
		s.ClearCache()
		return s.PreloadAllData(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok, res.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// IsCacheExpired reports whether the cache was never filled or was last
// updated more than maxAge ago. It is advisory; nothing expires on its own
// unless auto refresh is enabled.
func (s *Store) IsCacheExpired(maxAge time.Duration) bool {
	return s.cache.expired(s.now(), maxAge)
}

// GetCacheInfo returns what the cache currently holds.
func (s *Store) GetCacheInfo() CacheInfo {
	return s.cache.info()
}
