package seed

import (
	"context"
	"fmt"

	"seedling/pkg/models"
)

// Kind tags the shape of a Payload.
type Kind int

const (
	KindRecord Kind = iota + 1
	KindSequence
	KindDeferred
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindSequence:
		return "sequence"
	case KindDeferred:
		return "deferred"
	default:
		return "invalid"
	}
}

// Producer yields seed data on demand. It may return another deferred payload.
type Producer func(ctx context.Context) (Payload, error)

// Payload is the data of one seed: a record, a sequence of payloads or a
// deferred producer. The zero value is invalid.
type Payload struct {
	kind     Kind
	record   models.Record
	items    []Payload
	producer Producer
}

// Record wraps a single record.
func Record(r models.Record) Payload {
	return Payload{kind: KindRecord, record: r}
}

// Records wraps records as a sequence.
func Records(rs ...models.Record) Payload {
	items := make([]Payload, 0, len(rs))
	for _, r := range rs {
		items = append(items, Record(r))
	}
	return Sequence(items...)
}

// Sequence wraps an ordered list of payloads.
func Sequence(items ...Payload) Payload {
	return Payload{kind: KindSequence, items: items}
}

// Deferred wraps a producer that is evaluated when work is built.
func Deferred(p Producer) Payload {
	return Payload{kind: KindDeferred, producer: p}
}

// Kind returns the payload shape.
func (p Payload) Kind() Kind { return p.kind }

// Items returns the elements of a sequence.
func (p Payload) Items() []Payload { return p.items }

// Fields returns the record of a record payload.
func (p Payload) Fields() models.Record { return p.record }

// Len returns the number of records reachable without evaluating producers.
func (p Payload) Len() int {
	switch p.kind {
	case KindRecord:
		return 1
	case KindSequence:
		n := 0
		for _, item := range p.items {
			n += item.Len()
		}
		return n
	default:
		return 0
	}
}

// FromValue converts decoded file content into a Payload. Objects become
// records and arrays become sequences.
func FromValue(v interface{}) (Payload, error) {
	switch t := v.(type) {
	case Payload:
		return t, nil
	case models.Record:
		return Record(t), nil
	case map[string]interface{}:
		return Record(models.Record(t)), nil
	case []map[string]interface{}:
		items := make([]Payload, 0, len(t))
		for _, m := range t {
			items = append(items, Record(models.Record(m)))
		}
		return Sequence(items...), nil
	case []models.Record:
		return Records(t...), nil
	case []interface{}:
		items := make([]Payload, 0, len(t))
		for i, e := range t {
			item, err := FromValue(e)
			if err != nil {
				return Payload{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return Sequence(items...), nil
	default:
		return Payload{}, fmt.Errorf("unsupported seed value %T", v)
	}
}
