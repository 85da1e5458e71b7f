package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	opsOnce            sync.Once
	repoOpCounter      metric.Int64Counter
	tokenCheckCounter  metric.Int64Counter
	rateLimitCounter   metric.Int64Counter
	rateRetryHistogram metric.Float64Histogram
)

func initOpsInstruments() {
	opsOnce.Do(func() {
		meter := otel.Meter("croche-da-t-server")
		if c, err := meter.Int64Counter("repository.operations"); err == nil {
			repoOpCounter = c
		}
		if c, err := meter.Int64Counter("auth.access_token.validations"); err == nil {
			tokenCheckCounter = c
		}
		if c, err := meter.Int64Counter("http.rate_limit.decisions"); err == nil {
			rateLimitCounter = c
		}
		if h, err := meter.Float64Histogram("http.rate_limit.retry_after_seconds"); err == nil {
			rateRetryHistogram = h
		}
	})
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	initOpsInstruments()
	if repoOpCounter == nil {
		return
	}
	repoOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	initOpsInstruments()
	if tokenCheckCounter == nil {
		return
	}
	tokenCheckCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision, mode, keyType string) {
	initOpsInstruments()
	if rateLimitCounter == nil {
		return
	}
	rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfterSeconds float64) {
	initOpsInstruments()
	if rateRetryHistogram == nil {
		return
	}
	rateRetryHistogram.Record(ctx, retryAfterSeconds, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("reason", reason),
	))
}
