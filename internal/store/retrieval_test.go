package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOverallStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	stats, err := s.GetOverallStats(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, OverallStats{
		LakeCount:      4,
		GazetteerCount: 3,
		PoemCount:      3,
		LocationCount:  3,
	}, stats)
}

func TestGetLakeStats_Ordering(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	stats, err := s.GetLakeStats(ctx, true)
	require.NoError(t, err)
	require.Len(t, stats, 4)

	assert.Equal(t, LakeStat{LakeName: "West Lake", GazetteerCount: 2, PoemCount: 1, TotalMentions: 3}, stats[0])
	assert.Equal(t, "Tai Lake", stats[1].LakeName)
	assert.Equal(t, "Dongting Lake", stats[2].LakeName)
	for i := 1; i < len(stats); i++ {
		prev, cur := stats[i-1], stats[i]
		assert.True(t, prev.TotalMentions > cur.TotalMentions ||
			(prev.TotalMentions == cur.TotalMentions && prev.GazetteerCount >= cur.GazetteerCount),
			"rows %d and %d out of order", i-1, i)
	}
}

func TestGetAllLakes_CacheHit(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	first, err := s.GetAllLakes(ctx, true)
	require.NoError(t, err)
	queries := mock.QueryCount("")

	second, err := s.GetAllLakes(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, queries, mock.QueryCount(""), "served from cache")
	assert.Equal(t, first, second)
	assert.Equal(t, "", first[3].Location, "null location decodes to empty")
}

func TestGetAllLakes_BypassCacheOverwrites(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	_, err := s.GetAllLakes(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, mock.QueryCount(queryAllLakes))

	mock.OnQueryRecords(queryAllLakes,
		map[string]any{"name": "Chao Lake", "location": "Hefei", "gazetteer_count": int64(1), "poem_count": int64(0), "total_mentions": int64(1)},
	)

	fresh, err := s.GetAllLakes(ctx, false)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Chao Lake", fresh[0].Name)
	assert.Equal(t, 2, mock.QueryCount(queryAllLakes))

	cached, err := s.GetAllLakes(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, fresh, cached, "bypass result replaced the snapshot")
	assert.Equal(t, 2, mock.QueryCount(queryAllLakes))

	_, err = s.GetAllLakes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.QueryCount(queryAllLakes), "useCache=false always queries")
}

func TestRetrieval_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	gazetteers, err := s.GetAllGazetteers(ctx, true)
	require.NoError(t, err)
	gazetteers[0].Lakes[0] = "Mutated"
	gazetteers[1].Source = "Mutated"

	again, err := s.GetAllGazetteers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "West Lake", again[0].Lakes[0])
	assert.Equal(t, "Lin'an Gazetteer", again[1].Source)

	detail, err := s.GetLakeDetails(ctx, "West Lake", true)
	require.NoError(t, err)
	detail.Poems[0].Name = "Mutated"

	detail, err = s.GetLakeDetails(ctx, "West Lake", true)
	require.NoError(t, err)
	assert.Equal(t, "Drinking at the Lake", detail.Poems[0].Name)
}

func TestGetAllGazetteersAndPoems(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	gazetteers, err := s.GetAllGazetteers(ctx, true)
	require.NoError(t, err)
	require.Len(t, gazetteers, 3)
	assert.Equal(t, []string{"West Lake", "Tai Lake"}, gazetteers[0].Lakes)
	assert.Equal(t, 2, gazetteers[0].LakeCount)
	assert.Equal(t, []string{}, gazetteers[2].Lakes)

	poems, err := s.GetAllPoems(ctx, true)
	require.NoError(t, err)
	require.Len(t, poems, 2)
	assert.Equal(t, "Water shimmers on a sunny day.", poems[0].FullText)

	locations, err := s.GetLocationDistribution(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, LocationCount{Location: "Hangzhou", LakeCount: 1}, locations[0])
}

func TestGetLakeDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := newTestStore(t)

		detail, err := s.GetLakeDetails(ctx, "West Lake", true)
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Equal(t, "Hangzhou", detail.Location)
		assert.Len(t, detail.Gazetteers, 2)
		assert.Len(t, detail.Poems, 1)

		calls := mock.GetCallsByMethod("Query")
		last := calls[len(calls)-1]
		assert.Equal(t, map[string]any{"lakeName": "West Lake"}, last.Args[1])
	})

	t.Run("placeholders dropped", func(t *testing.T) {
		s, _ := newTestStore(t)

		detail, err := s.GetLakeDetails(ctx, "Slender West Lake", true)
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Empty(t, detail.Gazetteers)
		assert.NotNil(t, detail.Gazetteers)
		assert.Empty(t, detail.Poems)
	})

	t.Run("not found is cached", func(t *testing.T) {
		s, mock := newTestStore(t)

		detail, err := s.GetLakeDetails(ctx, "NonexistentLake", true)
		require.NoError(t, err)
		assert.Nil(t, detail)
		require.Equal(t, 1, mock.QueryCount(queryLakeDetails))

		detail, err = s.GetLakeDetails(ctx, "NonexistentLake", true)
		require.NoError(t, err)
		assert.Nil(t, detail)
		assert.Equal(t, 1, mock.QueryCount(queryLakeDetails), "negative result served from cache")
		assert.Equal(t, 1, s.GetCacheInfo().DataTypes.LakeDetailsCount)
	})

	t.Run("bypass cache", func(t *testing.T) {
		s, mock := newTestStore(t)

		_, err := s.GetLakeDetails(ctx, "West Lake", true)
		require.NoError(t, err)
		_, err = s.GetLakeDetails(ctx, "West Lake", false)
		require.NoError(t, err)
		assert.Equal(t, 2, mock.QueryCount(queryLakeDetails))
	})

	t.Run("error propagates", func(t *testing.T) {
		s, mock := newTestStore(t)
		mock.OnQueryError(queryLakeDetails, errors.New("syntax error"))

		detail, err := s.GetLakeDetails(ctx, "West Lake", true)
		assert.Nil(t, detail)
		require.Error(t, err)
		assert.True(t, IsQueryError(err))
		assert.Equal(t, 0, s.GetCacheInfo().DataTypes.LakeDetailsCount, "failures are not cached")
	})
}

func TestFailurePolicy_QueryErrors(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)
	mock.SetQueryError(errors.New("database unavailable"))

	stats, err := s.GetOverallStats(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, OverallStats{}, stats)

	lakeStats, err := s.GetLakeStats(ctx, true)
	require.NoError(t, err)
	assert.NotNil(t, lakeStats)
	assert.Empty(t, lakeStats)

	lakes, err := s.GetAllLakes(ctx, true)
	assert.Nil(t, lakes)
	require.Error(t, err)
	require.True(t, IsQueryError(err))

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, queryAllLakes, storeErr.Query)

	for name, call := range map[string]func() error{
		"gazetteers": func() error { _, err := s.GetAllGazetteers(ctx, true); return err },
		"poems":      func() error { _, err := s.GetAllPoems(ctx, true); return err },
		"locations":  func() error { _, err := s.GetLocationDistribution(ctx, true); return err },
	} {
		assert.Error(t, call(), name)
	}

	info := s.GetCacheInfo()
	assert.False(t, info.DataTypes.OverallStats, "degraded results are not cached")
	assert.False(t, info.DataTypes.LakeStats)
}

func TestFailurePolicy_ConnectionErrors(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)
	mock.SetConnectError(errors.New("connection refused"))

	stats, err := s.GetOverallStats(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, OverallStats{}, stats)

	_, err = s.GetAllLakes(ctx, true)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestFailurePolicy_Strict(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t, WithStrictErrors())
	mock.SetQueryError(errors.New("database unavailable"))

	_, err := s.GetOverallStats(ctx, true)
	assert.Error(t, err)

	stats, err := s.GetLakeStats(ctx, true)
	assert.Error(t, err)
	assert.Nil(t, stats)
}

func TestOperationPolicies(t *testing.T) {
	assert.Equal(t, PolicyDegrade, OperationPolicies[OpOverallStats])
	assert.Equal(t, PolicyDegrade, OperationPolicies[OpLakeStats])
	for _, op := range []Operation{OpLakeDetails, OpAllLakes, OpAllGazetteers, OpAllPoems, OpLocationDistribution} {
		assert.Equal(t, PolicyPropagate, OperationPolicies[op], string(op))
	}
	assert.Equal(t, "degrade", PolicyDegrade.String())
	assert.Equal(t, "propagate", PolicyPropagate.String())
}

func TestRetrieval_SessionsAlwaysClosed(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)
	mock.OnQueryError(queryAllPoems, errors.New("boom"))

	_, _ = s.GetOverallStats(ctx, false)
	_, _ = s.GetAllPoems(ctx, false)
	_, _ = s.GetLakeDetails(ctx, "West Lake", false)
	_, _ = s.GetLakeDetails(ctx, "NonexistentLake", false)

	opened, closed := mock.SessionCounts()
	assert.Greater(t, opened, 0)
	assert.Equal(t, opened, closed)
}
