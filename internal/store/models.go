package store

import (
	"slices"
	"time"
)

// OverallStats holds the headline entity counts.
type OverallStats struct {
	LakeCount      int `json:"lake_count" yaml:"lake_count" mapstructure:"lake_count"`
	GazetteerCount int `json:"gazetteer_count" yaml:"gazetteer_count" mapstructure:"gazetteer_count"`
	PoemCount      int `json:"poem_count" yaml:"poem_count" mapstructure:"poem_count"`
	LocationCount  int `json:"location_count" yaml:"location_count" mapstructure:"location_count"`
}

// LakeStat is one row of the lake mention ranking.
type LakeStat struct {
	LakeName       string `json:"lake_name" yaml:"lake_name" mapstructure:"lake_name"`
	GazetteerCount int    `json:"gazetteer_count" yaml:"gazetteer_count" mapstructure:"gazetteer_count"`
	PoemCount      int    `json:"poem_count" yaml:"poem_count" mapstructure:"poem_count"`
	TotalMentions  int    `json:"total_mentions" yaml:"total_mentions" mapstructure:"total_mentions"`
}

// LakeSummary is a lake with its location and mention counts.
// Location is empty when the lake has none.
type LakeSummary struct {
	Name           string `json:"name" yaml:"name" mapstructure:"name"`
	Location       string `json:"location" yaml:"location" mapstructure:"location"`
	GazetteerCount int    `json:"gazetteer_count" yaml:"gazetteer_count" mapstructure:"gazetteer_count"`
	PoemCount      int    `json:"poem_count" yaml:"poem_count" mapstructure:"poem_count"`
	TotalMentions  int    `json:"total_mentions" yaml:"total_mentions" mapstructure:"total_mentions"`
}

// GazetteerEntry is a gazetteer record mentioning a lake.
type GazetteerEntry struct {
	Source  string `json:"source" yaml:"source" mapstructure:"source"`
	Content string `json:"content" yaml:"content" mapstructure:"content"`
}

// PoemEntry is a poem mentioning a lake.
type PoemEntry struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	FullText string `json:"full_text" yaml:"full_text" mapstructure:"full_text"`
}

// LakeDetail is everything known about a single lake.
type LakeDetail struct {
	LakeName   string           `json:"lake_name" yaml:"lake_name" mapstructure:"lake_name"`
	Location   string           `json:"location" yaml:"location" mapstructure:"location"`
	Gazetteers []GazetteerEntry `json:"gazetteers" yaml:"gazetteers" mapstructure:"gazetteers"`
	Poems      []PoemEntry      `json:"poems" yaml:"poems" mapstructure:"poems"`
}

// GazetteerSummary is a gazetteer with the distinct lakes it mentions.
type GazetteerSummary struct {
	Source    string   `json:"source" yaml:"source" mapstructure:"source"`
	Content   string   `json:"content" yaml:"content" mapstructure:"content"`
	Lakes     []string `json:"lakes" yaml:"lakes" mapstructure:"lakes"`
	LakeCount int      `json:"lake_count" yaml:"lake_count" mapstructure:"lake_count"`
}

// PoemSummary is a poem with the distinct lakes it mentions.
type PoemSummary struct {
	Name      string   `json:"name" yaml:"name" mapstructure:"name"`
	FullText  string   `json:"full_text" yaml:"full_text" mapstructure:"full_text"`
	Lakes     []string `json:"lakes" yaml:"lakes" mapstructure:"lakes"`
	LakeCount int      `json:"lake_count" yaml:"lake_count" mapstructure:"lake_count"`
}

// LocationCount is the number of lakes at one location.
type LocationCount struct {
	Location  string `json:"location" yaml:"location" mapstructure:"location"`
	LakeCount int    `json:"lake_count" yaml:"lake_count" mapstructure:"lake_count"`
}

// CacheInfo describes what the cache currently holds.
type CacheInfo struct {
	Initialized bool           `json:"initialized" yaml:"initialized"`
	LastUpdated *time.Time     `json:"last_updated" yaml:"last_updated"`
	DataTypes   CacheDataTypes `json:"data_types" yaml:"data_types"`
}

// CacheDataTypes flags which datasets are cached.
type CacheDataTypes struct {
	OverallStats         bool `json:"overall_stats" yaml:"overall_stats"`
	LakeStats            bool `json:"lake_stats" yaml:"lake_stats"`
	AllLakes             bool `json:"all_lakes" yaml:"all_lakes"`
	AllGazetteers        bool `json:"all_gazetteers" yaml:"all_gazetteers"`
	AllPoems             bool `json:"all_poems" yaml:"all_poems"`
	LocationDistribution bool `json:"location_distribution" yaml:"location_distribution"`
	LakeDetailsCount     int  `json:"lake_details_count" yaml:"lake_details_count"`
}

func identity[T any](v T) T { return v }

func cloneLakeDetail(d *LakeDetail) *LakeDetail {
	if d == nil {
		return nil
	}
	out := *d
	out.Gazetteers = slices.Clone(d.Gazetteers)
	out.Poems = slices.Clone(d.Poems)
	return &out
}

func cloneGazetteers(in []GazetteerSummary) []GazetteerSummary {
	out := slices.Clone(in)
	for i := range out {
		out[i].Lakes = slices.Clone(in[i].Lakes)
	}
	return out
}

func clonePoems(in []PoemSummary) []PoemSummary {
	out := slices.Clone(in)
	for i := range out {
		out[i].Lakes = slices.Clone(in[i].Lakes)
	}
	return out
}
