// Package observe provides the OpenTelemetry metrics and tracing of the
// voice service. Metrics are exported through a Prometheus bridge so they
// can be scraped from /metrics.
//
// Every Record method is safe to call on a nil *Metrics, which is how
// components run with instrumentation disabled (tests, REST-only use).
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/windoze95/reme-voice"

// Metrics holds the metric instruments of the service.
type Metrics struct {
	// Utterances counts dispatched utterances by intent.
	Utterances metric.Int64Counter

	// LLMDuration tracks chat completion latency by provider.
	LLMDuration metric.Float64Histogram

	// LLMErrors counts failed chat completions by provider.
	LLMErrors metric.Int64Counter

	// ToolCalls counts function executions by tool and status.
	ToolCalls metric.Int64Counter

	// VoiceErrors counts user-facing errors by kind.
	VoiceErrors metric.Int64Counter

	// StatusTransitions counts pipeline status changes by target status.
	StatusTransitions metric.Int64Counter

	// ActiveSessions tracks live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks REST latency by method and route.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Utterances, err = m.Int64Counter("reme.voice.utterances",
		metric.WithDescription("Dispatched utterances by intent."),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("reme.llm.duration",
		metric.WithDescription("Latency of chat completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMErrors, err = m.Int64Counter("reme.llm.errors",
		metric.WithDescription("Failed chat completions by provider."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("reme.tool.calls",
		metric.WithDescription("Function executions by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.VoiceErrors, err = m.Int64Counter("reme.voice.errors",
		metric.WithDescription("User-facing voice errors by kind."),
	); err != nil {
		return nil, err
	}
	if met.StatusTransitions, err = m.Int64Counter("reme.voice.status_transitions",
		metric.WithDescription("Pipeline status transitions by target status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("reme.voice.active_sessions",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("reme.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance backed by the global
// meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordUtterance(ctx context.Context, intent string) {
	if m == nil {
		return
	}
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordLLM records one chat completion. err marks it failed.
func (m *Metrics) RecordLLM(ctx context.Context, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.LLMDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.LLMErrors.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	if m == nil {
		return
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordVoiceError(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.VoiceErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordStatus(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// SessionStarted and SessionEnded move the active session gauge.
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
