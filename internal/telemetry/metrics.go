package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "gitlab.com/yelinaung/expense-splitter"

// Metrics counts ledger events. A nil *Metrics records nothing.
type Metrics struct {
	created  metric.Int64Counter
	paid     metric.Int64Counter
	settled  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewMetrics registers the ledger counters on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	created, err := meter.Int64Counter("expenditures.created",
		metric.WithDescription("Expenditures recorded"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	paid, err := meter.Int64Counter("splits.paid",
		metric.WithDescription("Splits marked paid by their participant"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	settled, err := meter.Int64Counter("expenditures.settled",
		metric.WithDescription("Expenditures whose last split was paid"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	rejected, err := meter.Int64Counter("writes.rejected",
		metric.WithDescription("Creates and updates rejected by validation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	return &Metrics{created: created, paid: paid, settled: settled, rejected: rejected}, nil
}

// ExpenditureCreated records a new expenditure.
func (m *Metrics) ExpenditureCreated(ctx context.Context, split bool) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.Bool("split", split)))
}

// SplitPaid records one split moving to paid.
func (m *Metrics) SplitPaid(ctx context.Context) {
	if m == nil {
		return
	}
	m.paid.Add(ctx, 1)
}

// ExpenditureSettled records an expenditure becoming settled.
func (m *Metrics) ExpenditureSettled(ctx context.Context) {
	if m == nil {
		return
	}
	m.settled.Add(ctx, 1)
}

// WriteRejected records a rejected write. op is "create" or "update".
func (m *Metrics) WriteRejected(ctx context.Context, op string, splitMismatch bool) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("split_mismatch", splitMismatch),
	))
}
