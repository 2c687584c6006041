package seed

import (
	"sort"

	"seedling/pkg/models"
)

// Seeds maps a seed key (UserSeed) to its payload.
type Seeds map[string]Payload

// Keys returns the seed keys in lexical order.
func (s Seeds) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns dst with src laid on top. When dst holds a sequence, src is
// appended to it (a sequence item by item, anything else as one item). Two
// records are merged field by field; anything else is replaced by the src
// value. Neither argument is modified.
func Merge(dst, src Seeds) Seeds {
	out := make(Seeds, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		cur, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		out[k] = mergePayload(cur, v)
	}
	return out
}

func mergePayload(dst, src Payload) Payload {
	switch {
	case dst.kind == KindSequence:
		items := make([]Payload, 0, len(dst.items)+len(src.items)+1)
		items = append(items, dst.items...)
		if src.kind == KindSequence {
			return Sequence(append(items, src.items...)...)
		}
		return Sequence(append(items, src)...)
	case dst.kind == KindRecord && src.kind == KindRecord:
		return Record(mergeRecord(dst.record, src.record))
	default:
		return src
	}
}

func mergeRecord(dst, src models.Record) models.Record {
	out := dst.Clone()
	for k, v := range src {
		out[k] = mergeValue(out[k], v)
	}
	return out
}

func mergeValue(dst, src interface{}) interface{} {
	if d, ok := dst.([]interface{}); ok {
		merged := make([]interface{}, 0, len(d)+1)
		merged = append(merged, d...)
		if s, ok := src.([]interface{}); ok {
			return append(merged, s...)
		}
		return append(merged, src)
	}
	switch s := src.(type) {
	case map[string]interface{}:
		if d, ok := dst.(map[string]interface{}); ok {
			return map[string]interface{}(mergeRecord(d, s))
		}
	}
	return src
}
