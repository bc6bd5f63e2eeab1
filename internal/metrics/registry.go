package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the domain-level instruments for the verification pipeline.
// A nil *Registry is valid and records nothing, so callers can run without
// telemetry configured.
type Registry struct {
	verificationsTotal   metric.Int64Counter
	fraudBlocksTotal     metric.Int64Counter
	verificationDuration metric.Float64Histogram
}

// NewRegistry creates the pipeline instruments on the given meter
func NewRegistry(meter metric.Meter) (*Registry, error) {
	verificationsTotal, err := meter.Int64Counter(
		"coc.verifications.total",
		metric.WithDescription("Completed document verifications by outcome status"),
	)
	if err != nil {
		return nil, err
	}

	fraudBlocksTotal, err := meter.Int64Counter(
		"coc.fraud.blocks.total",
		metric.WithDescription("Documents blocked by the fraud analyzer"),
	)
	if err != nil {
		return nil, err
	}

	verificationDuration, err := meter.Float64Histogram(
		"coc.verification.duration",
		metric.WithDescription("End-to-end verification latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Registry{
		verificationsTotal:   verificationsTotal,
		fraudBlocksTotal:     fraudBlocksTotal,
		verificationDuration: verificationDuration,
	}, nil
}

// RecordVerification counts one completed verification and its latency
func (r *Registry) RecordVerification(ctx context.Context, status string, riskLevel string, duration time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("risk_level", riskLevel),
	)
	r.verificationsTotal.Add(ctx, 1, attrs)
	r.verificationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFraudBlock counts one blocked document
func (r *Registry) RecordFraudBlock(ctx context.Context, riskLevel string) {
	if r == nil {
		return
	}
	r.fraudBlocksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("risk_level", riskLevel),
	))
}
