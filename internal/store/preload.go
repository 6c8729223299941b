package store

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Preload outcomes recorded on MetricCachePreloads.
const (
	preloadSuccess   = "success"
	preloadFailure   = "failure"
	preloadDiscarded = "discarded"
)

type preloadBatch struct {
	overallStats  OverallStats
	lakeStats     []LakeStat
	allLakes      []LakeSummary
	allGazetteers []GazetteerSummary
	allPoems      []PoemSummary
	locations     []LocationCount
}

// PreloadAllData fills every dataset in one parallel batch. It is a no-op
// returning true when the cache is already initialized. The datasets are
// swapped in together, and only if every query succeeded; a failed batch
// leaves the cache as it was. Concurrent callers share one batch, but a
// caller arriving after ClearCache starts a new one.
func (s *Store) PreloadAllData(ctx context.Context) (bool, error) {
	if s.cache.isInitialized() {
		s.logger.DebugContext(ctx, "data already preloaded, skipping")
		return true, nil
	}

	key := fmt.Sprintf("preload-%d", s.cache.currentGeneration())
	ch := s.flight.DoChan(key, func() (any, error) {
		return s.runPreload(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok, res.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Store) runPreload(ctx context.Context) (ok bool, err error) {
	if s.cache.isInitialized() {
		return true, nil
	}

	ctx, span := s.tracer.Start(ctx, SpanCachePreload)
	defer func() {
		finishSpan(span, err)
		span.End()
	}()

	gen := s.cache.currentGeneration()
	start := time.Now()
	s.logger.InfoContext(ctx, "preloading all data")

	var batch preloadBatch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		batch.overallStats, err = s.fetchOverallStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		batch.lakeStats, err = s.fetchLakeStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		batch.allLakes, err = s.fetchAllLakes(gctx)
		return err
	})
	g.Go(func() (err error) {
		batch.allGazetteers, err = s.fetchAllGazetteers(gctx)
		return err
	})
	g.Go(func() (err error) {
		batch.allPoems, err = s.fetchAllPoems(gctx)
		return err
	})
	g.Go(func() (err error) {
		batch.locations, err = s.fetchLocationDistribution(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.inst.recordPreload(ctx, preloadFailure)
		s.logger.ErrorContext(ctx, "preload failed", "error", err)
		return false, err
	}

	swapped := s.cache.put(gen, s.now(), func(c *cache) {
		stats := batch.overallStats
		c.overallStats = &stats
		c.lakeStats = batch.lakeStats
		c.allLakes = batch.allLakes
		c.allGazetteers = batch.allGazetteers
		c.allPoems = batch.allPoems
		c.locations = batch.locations
		c.initialized = true
	})
	if !swapped {
		s.inst.recordPreload(ctx, preloadDiscarded)
		s.logger.WarnContext(ctx, "cache cleared during preload, discarding result")
		return false, &StoreError{
			Code:    ErrCodeCacheCleared,
			Message: "cache cleared during preload, result discarded",
		}
	}

	s.inst.recordPreload(ctx, preloadSuccess)
	span.SetAttributes(
		attribute.Int("lakelore.cache.lakes", len(batch.allLakes)),
		attribute.Int("lakelore.cache.gazetteers", len(batch.allGazetteers)),
		attribute.Int("lakelore.cache.poems", len(batch.allPoems)),
	)
	s.logger.InfoContext(ctx, "preload complete",
		"lake_stats", len(batch.lakeStats),
		"lakes", len(batch.allLakes),
		"gazetteers", len(batch.allGazetteers),
		"poems", len(batch.allPoems),
		"locations", len(batch.locations),
		"duration", time.Since(start),
	)
	return true, nil
}
