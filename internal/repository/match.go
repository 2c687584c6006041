package repository

import (
	"encoding/json"
	"fmt"
	"reflect"

	"seedling/pkg/models"
)

// normalize round-trips a record through JSON so values compare the same way
// regardless of which decoder produced them (yaml ints, toml int64, json float64).
func normalize(r models.Record) (models.Record, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	out := models.Record{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

// contains reports whether record contains criteria with the semantics of
// PostgreSQL jsonb @>: objects match when every wanted key is present and
// contained, arrays when every wanted element is contained in some element,
// scalars (null included) when equal.
func contains(record, criteria models.Record) bool {
	return containsValue(map[string]interface{}(record), map[string]interface{}(criteria))
}

func containsValue(got, want interface{}) bool {
	switch w := want.(type) {
	case map[string]interface{}:
		g, ok := asObject(got)
		if !ok {
			return false
		}
		for k, wv := range w {
			gv, ok := g[k]
			if !ok || !containsValue(gv, wv) {
				return false
			}
		}
		return true
	case models.Record:
		return containsValue(got, map[string]interface{}(w))
	case []interface{}:
		g, ok := got.([]interface{})
		if !ok {
			return false
		}
		for _, wv := range w {
			found := false
			for _, gv := range g {
				if containsValue(gv, wv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(got, want)
	}
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case models.Record:
		return t, true
	default:
		return nil, false
	}
}

func encodeFields(r models.Record) ([]byte, error) {
	encoded, err := json.Marshal(r.Fields())
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return encoded, nil
}

func decodeRecord(id string, fields []byte) (models.Record, error) {
	record := models.Record{}
	if err := json.Unmarshal(fields, &record); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", id, err)
	}
	record[models.IDField] = id
	return record, nil
}
