package store

import (
	"context"
	"fmt"
	"strings"
)

// Diagnostics is a snapshot of what the connected database contains.
type Diagnostics struct {
	ConnectionState   string       `json:"connection_state" yaml:"connection_state"`
	TotalNodes        int          `json:"total_nodes" yaml:"total_nodes"`
	Labels            []string     `json:"labels" yaml:"labels"`
	RelationshipTypes []string     `json:"relationship_types" yaml:"relationship_types"`
	LabelCounts       []LabelCount `json:"label_counts" yaml:"label_counts"`
	Samples           []NodeSample `json:"samples" yaml:"samples"`
}

// LabelCount is the number of nodes carrying a label.
type LabelCount struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// NodeSample lists the labels and property keys of one node.
type NodeSample struct {
	Labels     []string `json:"labels" yaml:"labels" mapstructure:"labels"`
	Properties []string `json:"properties" yaml:"properties" mapstructure:"properties"`
}

// Diagnose inspects the database schema and contents. It connects if needed
// but does not touch the cache, and is only run on request.
func (s *Store) Diagnose(ctx context.Context) (*Diagnostics, error) {
	if err := s.conn.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	diag := &Diagnostics{ConnectionState: s.conn.State().String()}

	records, err := s.exec.Run(ctx, queryTotalNodes, nil)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		diag.TotalNodes = intValue(records[0]["total_nodes"])
	}

	if diag.Labels, err = s.column(ctx, queryLabels, "label"); err != nil {
		return nil, err
	}
	if diag.RelationshipTypes, err = s.column(ctx, queryRelationshipTypes, "relationshipType"); err != nil {
		return nil, err
	}

	diag.LabelCounts = make([]LabelCount, 0, len(diag.Labels))
	for _, label := range diag.Labels {
		records, err := s.exec.Run(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", escapeLabel(label)), nil)
		if err != nil {
			return nil, err
		}
		diag.LabelCounts = append(diag.LabelCounts, LabelCount{Label: label, Count: countOf(records)})
	}

	records, err = s.exec.Run(ctx, querySampleNodes, nil)
	if err != nil {
		return nil, err
	}
	if diag.Samples, err = decodeRecords[NodeSample](records); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "diagnostics collected",
		"total_nodes", diag.TotalNodes,
		"labels", diag.Labels,
		"relationship_types", diag.RelationshipTypes,
	)
	return diag, nil
}

// column returns the string values of one column.
func (s *Store) column(ctx context.Context, statement, name string) ([]string, error) {
	records, err := s.exec.Run(ctx, statement, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, record := range records {
		if v, ok := record[name].(string); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// escapeLabel quotes a label for interpolation into Cypher. Labels cannot be
// bound as parameters.
func escapeLabel(label string) string {
	return "`" + strings.ReplaceAll(label, "`", "``") + "`"
}
