package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
	"github.com/zero-day-ai/lakelore/internal/graph"
	"github.com/zero-day-ai/lakelore/internal/store"
	"gopkg.in/yaml.v3"
)

const testConfig = `
neo4j:
  uri: bolt://neo4j.test:7687
  username: neo4j
  password: test
logging:
  level: error
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lakelore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// seedGraph answers the store's queries with two lakes: West Lake in
// Hangzhou and Tai Lake with no location.
func seedGraph(m *graph.MockGraphClient) {
	m.OnQueryRecords("RETURN count(l) AS count", map[string]any{"count": int64(2)})
	m.OnQueryRecords("count(g) AS count", map[string]any{"count": int64(2)})
	m.OnQueryRecords("count(p) AS count", map[string]any{"count": int64(1)})
	m.OnQueryRecords("count(DISTINCT l.location)", map[string]any{"count": int64(1)})

	m.OnQueryRecords("ORDER BY total_mentions DESC, gazetteer_count",
		map[string]any{"lake_name": "West Lake", "gazetteer_count": int64(2), "poem_count": int64(1), "total_mentions": int64(3)},
		map[string]any{"lake_name": "Tai Lake", "gazetteer_count": int64(1), "poem_count": int64(0), "total_mentions": int64(1)},
	)
	m.OnQueryRecords("RETURN l.name AS name",
		map[string]any{"name": "West Lake", "location": "Hangzhou", "gazetteer_count": int64(2), "poem_count": int64(1), "total_mentions": int64(3)},
		map[string]any{"name": "Tai Lake", "location": nil, "gazetteer_count": int64(1), "poem_count": int64(0), "total_mentions": int64(1)},
	)
	m.OnQueryRecords("g.source AS source",
		map[string]any{"source": "Hangzhou Prefecture Gazetteer", "content": "West Lake lies west of the city.\nIts shore is long.", "lakes": []any{"West Lake", "Tai Lake"}, "lake_count": int64(2)},
		map[string]any{"source": "Lin'an Gazetteer", "content": "The lake is thirty li around.", "lakes": []any{"West Lake"}, "lake_count": int64(1)},
	)
	m.OnQueryRecords("p.full_text AS full_text",
		map[string]any{"name": "Drinking at the Lake", "full_text": "Water shimmers on a sunny day.", "lakes": []any{"West Lake"}, "lake_count": int64(1)},
	)
	m.OnQueryRecords("WITH l.location AS location",
		map[string]any{"location": "Hangzhou", "lake_count": int64(1)},
	)
	m.OnQueryFunc("{name: $lakeName}", func(_ string, params map[string]any) (graph.QueryResult, error) {
		if params["lakeName"] != "West Lake" {
			return graph.QueryResult{Records: []map[string]any{}}, nil
		}
		return graph.QueryResult{Records: []map[string]any{{
			"lake_name": "West Lake",
			"location":  "Hangzhou",
			"gazetteers": []any{
				map[string]any{"source": "Hangzhou Prefecture Gazetteer", "content": "West Lake lies west of the city."},
			},
			"poems": []any{
				map[string]any{"name": "Drinking at the Lake", "full_text": "Water shimmers on a sunny day."},
			},
		}}}, nil
	})

	m.OnQueryRecords("total_nodes", map[string]any{"total_nodes": int64(5)})
	m.OnQueryRecords("db.labels()", map[string]any{"label": "Lake"}, map[string]any{"label": "Poem"})
	m.OnQueryRecords("db.relationshipTypes()", map[string]any{"relationshipType": "MENTIONED_IN_POEM"})
	m.OnQueryRecords("MATCH (n:`Lake`)", map[string]any{"count": int64(2)})
	m.OnQueryRecords("MATCH (n:`Poem`)", map[string]any{"count": int64(1)})
	m.OnQueryRecords("LIMIT 5", map[string]any{"labels": []any{"Lake"}, "properties": []any{"name", "location"}})
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI against mock with the test config prepended.
func run(t *testing.T, mock *graph.MockGraphClient, args ...string) result {
	t.Helper()

	c := newCLI()
	c.newGraphClient = func(graph.GraphClientConfig) (graph.GraphClient, error) {
		return mock, nil
	}
	cmd := newRootCmd(c)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", writeConfig(t, testConfig)}, args...))

	err := cmd.ExecuteContext(t.Context())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newSeededMock() *graph.MockGraphClient {
	m := graph.NewMockGraphClient()
	seedGraph(m)
	return m
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var cliErr *internal.CLIError
	require.True(t, errors.As(err, &cliErr), "expected CLIError, got %T: %v", err, err)
	return cliErr.Code
}

func TestVersion(t *testing.T) {
	c := newCLI()
	cmd := newRootCmd(c)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Equal(t, "lakelore dev\n", out.String())
}

func TestConfigErrors(t *testing.T) {
	t.Run("invalid output format", func(t *testing.T) {
		r := run(t, newSeededMock(), "-o", "xml", "stats")
		require.Error(t, r.err)
		assert.Equal(t, internal.ExitConfigError, exitCode(t, r.err))
	})

	t.Run("missing config file", func(t *testing.T) {
		cmd := newRootCmd(newCLI())
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats"})

		err := cmd.ExecuteContext(t.Context())
		require.Error(t, err)
		assert.Equal(t, internal.ExitConfigError, exitCode(t, err))
	})

	t.Run("invalid config", func(t *testing.T) {
		cmd := newRootCmd(newCLI())
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config", writeConfig(t, "neo4j:\n  password: \"\"\n"), "stats"})

		err := cmd.ExecuteContext(t.Context())
		require.Error(t, err)
		assert.Equal(t, internal.ExitConfigError, exitCode(t, err))
		assert.Contains(t, err.Error(), "neo4j.password")
	})
}

func TestStatsCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		r := run(t, newSeededMock(), "stats")
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "ENTITY")
		assert.Regexp(t, `lakes\s+2`, r.stdout)
		assert.Regexp(t, `locations\s+1`, r.stdout)
	})

	t.Run("json", func(t *testing.T) {
		r := run(t, newSeededMock(), "-o", "json", "stats")
		require.NoError(t, r.err)

		var got store.OverallStats
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
		assert.Equal(t, store.OverallStats{LakeCount: 2, GazetteerCount: 2, PoemCount: 1, LocationCount: 1}, got)
	})
}

func TestRankingsCommand(t *testing.T) {
	r := run(t, newSeededMock(), "-o", "json", "rankings", "--limit", "1")
	require.NoError(t, r.err)

	var got []store.LakeStat
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "West Lake", got[0].LakeName)
	assert.Equal(t, 3, got[0].TotalMentions)

	r = run(t, newSeededMock(), "rankings", "--limit=-1")
	require.Error(t, r.err)
}

func TestLakesCommand(t *testing.T) {
	r := run(t, newSeededMock(), "lakes")
	require.NoError(t, r.err)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Hangzhou")
	assert.Regexp(t, `Tai Lake\s+-\s+1`, lines[3])
}

func TestLakeCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		r := run(t, newSeededMock(), "lake", "West Lake")
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Lake:     West Lake")
		assert.Contains(t, r.stdout, "Location: Hangzhou")
		assert.Contains(t, r.stdout, "Gazetteers (1)")
		assert.Contains(t, r.stdout, "Poems (1)")
		assert.Contains(t, r.stdout, "Drinking at the Lake")
	})

	t.Run("yaml", func(t *testing.T) {
		r := run(t, newSeededMock(), "-o", "yaml", "lake", "West Lake")
		require.NoError(t, r.err)

		var got store.LakeDetail
		require.NoError(t, yaml.Unmarshal([]byte(r.stdout), &got))
		assert.Equal(t, "West Lake", got.LakeName)
		require.Len(t, got.Gazetteers, 1)
		assert.Equal(t, "Hangzhou Prefecture Gazetteer", got.Gazetteers[0].Source)
	})

	t.Run("not found", func(t *testing.T) {
		r := run(t, newSeededMock(), "lake", "Nowhere Lake")
		require.Error(t, r.err)
		assert.Equal(t, internal.ExitNotFound, exitCode(t, r.err))
		assert.Contains(t, r.err.Error(), `"Nowhere Lake"`)
	})

	t.Run("requires a name", func(t *testing.T) {
		r := run(t, newSeededMock(), "lake")
		require.Error(t, r.err)
	})
}

func TestGazetteersCommand(t *testing.T) {
	r := run(t, newSeededMock(), "gazetteers")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "West Lake, Tai Lake")
	assert.Contains(t, r.stdout, "West Lake lies west of the city.")
	assert.NotContains(t, r.stdout, "Its shore is long.")
}

func TestPoemsCommand(t *testing.T) {
	r := run(t, newSeededMock(), "-o", "json", "poems")
	require.NoError(t, r.err)

	var got []store.PoemSummary
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"West Lake"}, got[0].Lakes)
}

func TestLocationsCommand(t *testing.T) {
	r := run(t, newSeededMock(), "locations")
	require.NoError(t, r.err)
	assert.Regexp(t, `Hangzhou\s+1`, r.stdout)
}

func TestNoCacheFlag(t *testing.T) {
	mock := newSeededMock()
	r := run(t, mock, "--no-cache", "lakes")
	require.NoError(t, r.err)

	// Initialization preloads once, then the bypass queries again.
	assert.Equal(t, 2, mock.QueryCount("RETURN l.name AS name"))
	assert.Equal(t, 1, mock.QueryCount("p.full_text AS full_text"))
}

func TestCacheCommands(t *testing.T) {
	t.Run("info", func(t *testing.T) {
		r := run(t, newSeededMock(), "-o", "json", "cache", "info", "--max-age", "1h")
		require.NoError(t, r.err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
		assert.Equal(t, true, got["initialized"])
		assert.Equal(t, false, got["expired"])
		dataTypes, ok := got["data_types"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, dataTypes["all_lakes"])
		assert.EqualValues(t, 0, dataTypes["lake_details_count"])
	})

	t.Run("refresh", func(t *testing.T) {
		r := run(t, newSeededMock(), "cache", "refresh")
		require.NoError(t, r.err)
		assert.Regexp(t, `refreshed\s+true`, r.stdout)
		assert.Regexp(t, `initialized\s+true`, r.stdout)
	})
}

func TestDiagnoseCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		r := run(t, newSeededMock(), "diagnose")
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Total nodes:        5")
		assert.Contains(t, r.stdout, "MENTIONED_IN_POEM")
		assert.Regexp(t, `Lake\s+2`, r.stdout)
		assert.Contains(t, r.stdout, "name, location")
	})

	t.Run("json", func(t *testing.T) {
		r := run(t, newSeededMock(), "-o", "json", "diagnose")
		require.NoError(t, r.err)

		var got store.Diagnostics
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
		assert.Equal(t, []string{"Lake", "Poem"}, got.Labels)
		assert.Equal(t, []store.LabelCount{{Label: "Lake", Count: 2}, {Label: "Poem", Count: 1}}, got.LabelCounts)
	})
}

func TestConnectionFailure(t *testing.T) {
	mock := newSeededMock()
	mock.SetConnectError(errors.New("dial tcp: connection refused"))

	r := run(t, mock, "lakes")
	require.Error(t, r.err)

	var storeErr *store.StoreError
	require.ErrorAs(t, r.err, &storeErr)
	assert.Equal(t, store.ErrCodeConnectionFailed, storeErr.Code)

	cmd := newRootCmd(newCLI())
	cmd.SetErr(&bytes.Buffer{})
	assert.Equal(t, internal.ExitConnectionError, internal.HandleError(cmd, r.err))
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"first line\nsecond line", 20, "first line"},
		{"  padded  ", 10, "padded"},
		{"西湖十景苏堤春晓", 5, "西湖十景…"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, excerpt(tt.in, tt.n))
		})
	}
}
