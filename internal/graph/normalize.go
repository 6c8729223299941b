package graph

import (
	"encoding/json"
	"math"
	"math/big"
)

const twoTo32 = 1 << 32

// Normalize returns v with every database-native integer encoding replaced
// by a plain number. Big integers become int64 (float64 when they do not
// fit) and {low, high} split integers become high*2^32 + low. Lists are
// rewritten element-wise and maps value-wise with keys unchanged; every
// other value, nil included, is returned as is.
//
// Query results are trees, so no cycle detection is done.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if val == nil {
			return nil
		}
		return bigToNumber(val)
	case big.Int:
		return bigToNumber(&val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		if n, ok := splitInteger(val); ok {
			return n
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

// NormalizeRecord applies Normalize to every value of a result record.
func NormalizeRecord(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = Normalize(v)
	}
	return out
}

func bigToNumber(b *big.Int) any {
	if b.IsInt64() {
		return b.Int64()
	}
	f, _ := new(big.Float).SetInt(b).Float64()
	return f
}

// splitInteger reconstructs a {low, high} record. Maps that carry the two
// keys but non-integral values are not treated as split integers.
func splitInteger(m map[string]any) (any, bool) {
	lowRaw, hasLow := m["low"]
	highRaw, hasHigh := m["high"]
	if !hasLow || !hasHigh {
		return nil, false
	}

	low, ok := toInt64(lowRaw)
	if !ok {
		return nil, false
	}
	high, ok := toInt64(highRaw)
	if !ok {
		return nil, false
	}

	if high == 0 {
		return low, true
	}
	if high > math.MaxInt32 || high < math.MinInt32 {
		return float64(high)*twoTo32 + float64(low), true
	}
	return high*twoTo32 + low, true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case float32:
		f := float64(n)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
