package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// loadCounter is lazy: config loads can happen before the global meter
// provider is installed, and a nil counter just drops the data point.
var loadCounter = sync.OnceValue(func() metric.Int64Counter {
	counter, err := otel.Meter("croche-da-t-server").Int64Counter(
		"config.load.outcomes",
		metric.WithDescription("Configuration load attempts by outcome and error class"),
	)
	if err != nil {
		return nil
	}
	return counter
})

func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	counter := loadCounter()
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

func normalizeConfigProfile(profile string) string {
	if v := strings.TrimSpace(strings.ToLower(profile)); v != "" {
		return v
	}
	return "unknown"
}

// classifyConfigLoadError buckets load failures by the error prefixes
// Load and validate produce, so dashboards can split bad values from
// missing or inconsistent required settings.
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.HasPrefix(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}
