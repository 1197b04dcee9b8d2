// Package observe holds the OpenTelemetry instruments of the interview
// engine. All helper methods are safe to call on a nil *Metrics, which lets
// components run without telemetry in tests.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/futig/interview-engine"

// Sample outcomes recorded by the face sampler.
const (
	SampleDetected = "detected"
	SampleMissed   = "missed"
	SampleFailed   = "failed"
	SampleStale    = "stale"
)

type Metrics struct {
	// StageTransitions counts stage changes. Attributes: from, to.
	StageTransitions metric.Int64Counter

	// FaceSamples counts folded sampler ticks. Attribute: outcome.
	FaceSamples metric.Int64Counter

	// SignalsDropped counts push-channel messages that could not be applied. Attribute: reason.
	SignalsDropped metric.Int64Counter

	// ActiveSessions tracks running session control loops.
	ActiveSessions metric.Int64UpDownCounter

	// FinalizeDuration tracks the report hand-off round trip. Attribute: status.
	FinalizeDuration metric.Float64Histogram
}

var finalizeBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageTransitions, err = m.Int64Counter("interview.stage.transitions",
		metric.WithDescription("Session stage transitions by source and target stage."),
	); err != nil {
		return nil, err
	}
	if met.FaceSamples, err = m.Int64Counter("interview.face.samples",
		metric.WithDescription("Face sampler ticks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SignalsDropped, err = m.Int64Counter("interview.signals.dropped",
		metric.WithDescription("Signal channel messages dropped by reason."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("interview.active_sessions",
		metric.WithDescription("Number of running interview sessions."),
	); err != nil {
		return nil, err
	}
	if met.FinalizeDuration, err = m.Float64Histogram("interview.finalize.duration",
		metric.WithDescription("Latency of session finalization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(finalizeBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.StageTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}

func (m *Metrics) RecordSample(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.FaceSamples.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordSignalDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.SignalsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) SessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}

func (m *Metrics) RecordFinalize(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FinalizeDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}
