package seed

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "seedling/internal/seed"

var tracer = otel.Tracer(instrumentationName)

type instruments struct {
	records metric.Int64Counter
	links   metric.Int64Counter
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)
	records, err := meter.Int64Counter("seed.records",
		metric.WithDescription("Base records found or created by seeding"))
	if err != nil {
		records = noop.Int64Counter{}
	}
	links, err := meter.Int64Counter("seed.links",
		metric.WithDescription("Collection links added by seeding"))
	if err != nil {
		links = noop.Int64Counter{}
	}
	return instruments{records: records, links: links}
}
