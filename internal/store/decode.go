package store

import (
	"maps"

	"github.com/mitchellh/mapstructure"
)

func decodeRecord(record map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(record)
}

// decodeRecords decodes each record into a T. The result is never nil.
func decodeRecords[T any](records []map[string]any) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, record := range records {
		var v T
		if err := decodeRecord(record, &v); err != nil {
			return nil, NewDecodeError("failed to decode record", err).WithContext("index", i)
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeLakeDetail decodes the single detail row. No row means the lake does
// not exist.
func decodeLakeDetail(records []map[string]any) (*LakeDetail, error) {
	if len(records) == 0 {
		return nil, nil
	}

	record := maps.Clone(records[0])
	record["gazetteers"] = dropNullEntries(record["gazetteers"])
	record["poems"] = dropNullEntries(record["poems"])

	var detail LakeDetail
	if err := decodeRecord(record, &detail); err != nil {
		return nil, NewDecodeError("failed to decode lake detail", err)
	}
	if detail.Gazetteers == nil {
		detail.Gazetteers = []GazetteerEntry{}
	}
	if detail.Poems == nil {
		detail.Poems = []PoemEntry{}
	}
	return &detail, nil
}

// dropNullEntries removes the all-null maps OPTIONAL MATCH leaves in a
// collected list when nothing matched.
func dropNullEntries(v any) []any {
	list, _ := v.([]any)
	out := make([]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok && allNil(m) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func allNil(m map[string]any) bool {
	for _, v := range m {
		if v != nil {
			return false
		}
	}
	return true
}

// countOf reads the "count" column of a single-row count query.
func countOf(records []map[string]any) int {
	if len(records) == 0 {
		return 0
	}
	return intValue(records[0]["count"])
}

func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
