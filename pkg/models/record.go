// Package models defines the record and schema types shared by the seeder and its stores.
package models

import "fmt"

// IDField is the key under which a store keeps the identifier of a record.
const IDField = "id"

// Record is a schema-agnostic field set as read from a seed file or returned by a store.
type Record map[string]interface{}

// ID returns the store-assigned identifier, or "" when the record was never persisted.
func (r Record) ID() string {
	switch v := r[IDField].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy so callers can delete fields without touching the source payload.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Fields returns a copy of the record without its identifier.
func (r Record) Fields() Record {
	out := r.Clone()
	delete(out, IDField)
	return out
}
