package seed

import (
	"context"
	"errors"
	"fmt"

	"seedling/pkg/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultKey is the field a scalar association item is stored under.
const DefaultKey = "name"

// ErrLink is returned when the final add-to-collection call fails.
var ErrLink = errors.New("link association")

// AssociationResult reports one resolved collection.
type AssociationResult struct {
	Model     string   `json:"model"`
	RecordID  string   `json:"record_id"`
	Alias     string   `json:"alias"`
	Target    string   `json:"target"`
	LinkedIDs []string `json:"linked_ids"`
}

// relatedPayload builds the find-or-create payload of one association item.
func relatedPayload(item interface{}, key string) models.Record {
	switch t := item.(type) {
	case models.Record:
		return t.Clone()
	case map[string]interface{}:
		return models.Record(t).Clone()
	default:
		if key == "" {
			key = DefaultKey
		}
		return models.Record{key: item}
	}
}

// ApplyAssociation find-or-creates every related item with a back-reference to
// parent and links the resulting ids to parent under the descriptor alias.
func (e *Executor) ApplyAssociation(ctx context.Context, identity string, model ModelHandle, parent models.Record, d Descriptor) (AssociationResult, error) {
	e.logger.Debug("associate", "model", identity, "id", parent.ID(), "alias", d.Alias, "items", summarize(d.Items))

	target, ok := e.lookup(d.Model)
	if !ok {
		e.logger.Error("model not found", "model", d.Model)
		return AssociationResult{}, fmt.Errorf("%w: %s", ErrModelNotFound, d.Model)
	}
	via := d.Via
	if via == "" {
		via = identity
	}

	tasks := make([]func(context.Context) (string, error), 0, len(d.Items))
	for _, item := range d.Items {
		payload := relatedPayload(item, d.Key)
		payload[via] = parent.ID()
		tasks = append(tasks, func(ctx context.Context) (string, error) {
			related, err := target.FindOrCreate(ctx, payload, payload)
			if err != nil {
				e.logger.Error("find or create related failed", "model", d.Model, "error", err)
				return "", fmt.Errorf("find or create %s: %w", d.Model, err)
			}
			return related.ID(), nil
		})
	}

	ids, err := runBatch(ctx, e.limit, tasks)
	if err != nil {
		return AssociationResult{}, err
	}

	e.logger.Debug("add associations", "model", identity, "target", d.Model, "id", parent.ID(), "ids", ids)
	if err := model.AddToCollection(ctx, parent.ID(), d.Alias, ids); err != nil {
		e.logger.Error("add to collection failed", "model", identity, "alias", d.Alias, "error", err)
		return AssociationResult{}, fmt.Errorf("%w %s.%s: %w", ErrLink, identity, d.Alias, err)
	}
	e.metrics.links.Add(ctx, int64(len(ids)), metric.WithAttributes(
		attribute.String("model", identity), attribute.String("alias", d.Alias)))

	return AssociationResult{
		Model:     identity,
		RecordID:  parent.ID(),
		Alias:     d.Alias,
		Target:    d.Model,
		LinkedIDs: ids,
	}, nil
}
