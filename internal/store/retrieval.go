package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Operation names a retrieval operation.
type Operation string

const (
	OpOverallStats         Operation = "overall_stats"
	OpLakeStats            Operation = "lake_stats"
	OpLakeDetails          Operation = "lake_details"
	OpAllLakes             Operation = "all_lakes"
	OpAllGazetteers        Operation = "all_gazetteers"
	OpAllPoems             Operation = "all_poems"
	OpLocationDistribution Operation = "location_distribution"
)

// FailurePolicy decides what a retrieval operation does when the graph
// cannot answer.
type FailurePolicy int

const (
	// PolicyPropagate returns the error to the caller.
	PolicyPropagate FailurePolicy = iota
	// PolicyDegrade logs the error and returns an empty result.
	PolicyDegrade
)

// String returns the string representation of FailurePolicy.
func (p FailurePolicy) String() string {
	switch p {
	case PolicyPropagate:
		return "propagate"
	case PolicyDegrade:
		return "degrade"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// OperationPolicies is the failure policy of each retrieval operation.
// Operations not listed propagate.
var OperationPolicies = map[Operation]FailurePolicy{
	OpOverallStats:         PolicyDegrade,
	OpLakeStats:            PolicyDegrade,
	OpLakeDetails:          PolicyPropagate,
	OpAllLakes:             PolicyPropagate,
	OpAllGazetteers:        PolicyPropagate,
	OpAllPoems:             PolicyPropagate,
	OpLocationDistribution: PolicyPropagate,
}

// dataset describes one cache slot and how to fill it.
type dataset[T any] struct {
	op       Operation
	load     func(*cache) (T, bool)
	store    func(*cache, T)
	fetch    func(*Store, context.Context) (T, error)
	clone    func(T) T
	fallback func() T
}

var (
	overallStatsData = dataset[OverallStats]{
		op: OpOverallStats,
		load: func(c *cache) (OverallStats, bool) {
			if c.overallStats == nil {
				return OverallStats{}, false
			}
			return *c.overallStats, true
		},
		store:    func(c *cache, v OverallStats) { c.overallStats = &v },
		fetch:    (*Store).fetchOverallStats,
		clone:    identity[OverallStats],
		fallback: func() OverallStats { return OverallStats{} },
	}

	lakeStatsData = dataset[[]LakeStat]{
		op:       OpLakeStats,
		load:     func(c *cache) ([]LakeStat, bool) { return c.lakeStats, c.lakeStats != nil },
		store:    func(c *cache, v []LakeStat) { c.lakeStats = v },
		fetch:    (*Store).fetchLakeStats,
		clone:    slices.Clone[[]LakeStat],
		fallback: func() []LakeStat { return []LakeStat{} },
	}

	allLakesData = dataset[[]LakeSummary]{
		op:    OpAllLakes,
		load:  func(c *cache) ([]LakeSummary, bool) { return c.allLakes, c.allLakes != nil },
		store: func(c *cache, v []LakeSummary) { c.allLakes = v },
		fetch: (*Store).fetchAllLakes,
		clone: slices.Clone[[]LakeSummary],
	}

	allGazetteersData = dataset[[]GazetteerSummary]{
		op:    OpAllGazetteers,
		load:  func(c *cache) ([]GazetteerSummary, bool) { return c.allGazetteers, c.allGazetteers != nil },
		store: func(c *cache, v []GazetteerSummary) { c.allGazetteers = v },
		fetch: (*Store).fetchAllGazetteers,
		clone: cloneGazetteers,
	}

	allPoemsData = dataset[[]PoemSummary]{
		op:    OpAllPoems,
		load:  func(c *cache) ([]PoemSummary, bool) { return c.allPoems, c.allPoems != nil },
		store: func(c *cache, v []PoemSummary) { c.allPoems = v },
		fetch: (*Store).fetchAllPoems,
		clone: clonePoems,
	}

	locationsData = dataset[[]LocationCount]{
		op:    OpLocationDistribution,
		load:  func(c *cache) ([]LocationCount, bool) { return c.locations, c.locations != nil },
		store: func(c *cache, v []LocationCount) { c.locations = v },
		fetch: (*Store).fetchLocationDistribution,
		clone: slices.Clone[[]LocationCount],
	}
)

// GetOverallStats returns the lake, gazetteer, poem and distinct location
// counts. On failure it logs and returns zero counts.
func (s *Store) GetOverallStats(ctx context.Context, useCache bool) (OverallStats, error) {
	return retrieve(ctx, s, overallStatsData, useCache)
}

// GetLakeStats returns every lake ranked by total mentions, then gazetteer
// mentions, then poem mentions. On failure it logs and returns an empty
// ranking.
func (s *Store) GetLakeStats(ctx context.Context, useCache bool) ([]LakeStat, error) {
	return retrieve(ctx, s, lakeStatsData, useCache)
}

// GetAllLakes returns every lake ordered by total mentions.
func (s *Store) GetAllLakes(ctx context.Context, useCache bool) ([]LakeSummary, error) {
	return retrieve(ctx, s, allLakesData, useCache)
}

// GetAllGazetteers returns every gazetteer with the lakes it mentions,
// ordered by lake count.
func (s *Store) GetAllGazetteers(ctx context.Context, useCache bool) ([]GazetteerSummary, error) {
	return retrieve(ctx, s, allGazetteersData, useCache)
}

// GetAllPoems returns every poem with the lakes it mentions, ordered by lake
// count.
func (s *Store) GetAllPoems(ctx context.Context, useCache bool) ([]PoemSummary, error) {
	return retrieve(ctx, s, allPoemsData, useCache)
}

// GetLocationDistribution returns the number of lakes per location.
func (s *Store) GetLocationDistribution(ctx context.Context, useCache bool) ([]LocationCount, error) {
	return retrieve(ctx, s, locationsData, useCache)
}

// GetLakeDetails returns the lake called name with its gazetteers and poems,
// or nil if no such lake exists. Misses are cached as well.
func (s *Store) GetLakeDetails(ctx context.Context, name string, useCache bool) (*LakeDetail, error) {
	if err := s.prepare(ctx); err != nil {
		return onFailure[*LakeDetail](ctx, s, OpLakeDetails, err, nil)
	}

	if useCache {
		s.cache.mu.RLock()
		detail, ok := s.cache.lakeDetails[name]
		s.cache.mu.RUnlock()
		if ok {
			s.inst.recordHit(ctx, OpLakeDetails)
			return cloneLakeDetail(detail), nil
		}
	}
	s.inst.recordMiss(ctx, OpLakeDetails)

	gen := s.cache.currentGeneration()
	records, err := s.exec.Run(ctx, queryLakeDetails, map[string]any{"lakeName": name})
	if err != nil {
		return onFailure[*LakeDetail](ctx, s, OpLakeDetails, err, nil)
	}
	detail, err := decodeLakeDetail(records)
	if err != nil {
		return onFailure[*LakeDetail](ctx, s, OpLakeDetails, err, nil)
	}

	s.cache.putDetail(gen, name, detail)
	return cloneLakeDetail(detail), nil
}

func retrieve[T any](ctx context.Context, s *Store, d dataset[T], useCache bool) (T, error) {
	if err := s.prepare(ctx); err != nil {
		return onFailure(ctx, s, d.op, err, d.fallback)
	}

	if useCache {
		s.cache.mu.RLock()
		v, ok := d.load(s.cache)
		s.cache.mu.RUnlock()
		if ok {
			s.inst.recordHit(ctx, d.op)
			return d.clone(v), nil
		}
	}
	s.inst.recordMiss(ctx, d.op)

	gen := s.cache.currentGeneration()
	v, err := d.fetch(s, ctx)
	if err != nil {
		return onFailure(ctx, s, d.op, err, d.fallback)
	}

	s.cache.put(gen, s.now(), func(c *cache) { d.store(c, v) })
	return d.clone(v), nil
}

// onFailure applies the operation's failure policy to err.
func onFailure[T any](ctx context.Context, s *Store, op Operation, err error, fallback func() T) (T, error) {
	if s.policyFor(op) == PolicyDegrade {
		s.logger.WarnContext(ctx, "retrieval failed, returning empty result",
			"operation", op,
			"error", err,
		)
		if fallback != nil {
			return fallback(), nil
		}
		var zero T
		return zero, nil
	}

	s.logger.ErrorContext(ctx, "retrieval failed", "operation", op, "error", err)
	var zero T
	return zero, err
}

func (s *Store) policyFor(op Operation) FailurePolicy {
	if s.strictErrors {
		return PolicyPropagate
	}
	return OperationPolicies[op]
}

// prepare waits for initialization and, when auto refresh is on, refreshes
// an expired cache before the caller reads it.
func (s *Store) prepare(ctx context.Context) error {
	if _, err := s.coord.EnsureInitialized(ctx); err != nil {
		return err
	}

	if s.autoRefreshAfter > 0 && s.cache.isInitialized() && s.IsCacheExpired(s.autoRefreshAfter) {
		s.logger.InfoContext(ctx, "cache expired, refreshing", "max_age", s.autoRefreshAfter)
		if _, err := s.RefreshData(ctx); err != nil {
			s.logger.WarnContext(ctx, "automatic refresh failed", "error", err)
		}
	}
	return nil
}

func (s *Store) fetchOverallStats(ctx context.Context) (OverallStats, error) {
	statements := [4]string{queryLakeCount, queryGazetteerCount, queryPoemCount, queryLocationCount}
	var counts [4]int

	g, gctx := errgroup.WithContext(ctx)
	for i, statement := range statements {
		g.Go(func() error {
			records, err := s.exec.Run(gctx, statement, nil)
			if err != nil {
				return err
			}
			counts[i] = countOf(records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return OverallStats{}, err
	}

	return OverallStats{
		LakeCount:      counts[0],
		GazetteerCount: counts[1],
		PoemCount:      counts[2],
		LocationCount:  counts[3],
	}, nil
}

func (s *Store) fetchLakeStats(ctx context.Context) ([]LakeStat, error) {
	return fetchList[LakeStat](ctx, s, queryLakeStats)
}

func (s *Store) fetchAllLakes(ctx context.Context) ([]LakeSummary, error) {
	return fetchList[LakeSummary](ctx, s, queryAllLakes)
}

func (s *Store) fetchAllGazetteers(ctx context.Context) ([]GazetteerSummary, error) {
	return fetchList[GazetteerSummary](ctx, s, queryAllGazetteers)
}

func (s *Store) fetchAllPoems(ctx context.Context) ([]PoemSummary, error) {
	return fetchList[PoemSummary](ctx, s, queryAllPoems)
}

func (s *Store) fetchLocationDistribution(ctx context.Context) ([]LocationCount, error) {
	return fetchList[LocationCount](ctx, s, queryLocationDistribution)
}

func fetchList[T any](ctx context.Context, s *Store, statement string) ([]T, error) {
	records, err := s.exec.Run(ctx, statement, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeRecords[T](records)
	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			storeErr.WithQuery(statement)
		}
		return nil, err
	}
	return out, nil
}
