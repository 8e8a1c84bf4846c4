package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the instruments recorded around every page operation.
type Metrics struct {
	PagesRead    metric.Int64Counter
	PagesWritten metric.Int64Counter
	IOErrors     metric.Int64Counter
	IODuration   metric.Int64Histogram
}

var (
	opRead  = metric.WithAttributes(attribute.String("op", "read"))
	opWrite = metric.WithAttributes(attribute.String("op", "write"))
)

// NewMetrics creates the page I/O instruments on meter. A nil meter yields noop instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	pagesRead, err := meter.Int64Counter(
		"pagestore.pages.read",
		metric.WithDescription("Total number of pages read from table files."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	pagesWritten, err := meter.Int64Counter(
		"pagestore.pages.written",
		metric.WithDescription("Total number of pages written to table files."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	ioErrors, err := meter.Int64Counter(
		"pagestore.page.io.errors",
		metric.WithDescription("Total number of failed page operations."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	ioDuration, err := meter.Int64Histogram(
		"pagestore.page.io.duration",
		metric.WithDescription("Latency of a single page operation, lock wait included."),
		metric.WithUnit("us"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		PagesRead:    pagesRead,
		PagesWritten: pagesWritten,
		IOErrors:     ioErrors,
		IODuration:   ioDuration,
	}, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(nil)
	return m
}

func (m *Metrics) observe(write bool, start time.Time, err error) {
	ctx := context.Background()
	attrs := opRead
	if write {
		attrs = opWrite
	}

	m.IODuration.Record(ctx, time.Since(start).Microseconds(), attrs)
	if err != nil {
		m.IOErrors.Add(ctx, 1, attrs)
		return
	}
	if write {
		m.PagesWritten.Add(ctx, 1)
	} else {
		m.PagesRead.Add(ctx, 1)
	}
}
