// Package telemetry provides OpenTelemetry instrumentation for the
// fashion NLP service. It exports Prometheus metrics and provides
// tracing capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "fashion-nlp"

// Request outcomes recorded on the processed counter.
const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

// Pipeline stage labels.
const (
	StageFilter = "filter"
	StageNER    = "ner"
	StageQA     = "qa"
)

// Metrics holds all service Prometheus metrics
type Metrics struct {
	// Request metrics
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	RequestTextLength prometheus.Histogram
	InferenceFailures *prometheus.CounterVec

	// Domain filter metrics
	FilterMatchDuration prometheus.Histogram
	KeywordsMatched     prometheus.Counter
	FilterRejections    prometheus.Counter

	// Inference stage metrics
	StageDuration     *prometheus.HistogramVec
	EntitiesExtracted prometheus.Histogram
	AnswerScore       prometheus.Histogram

	// Model lifecycle metrics
	WarmupDuration *prometheus.HistogramVec
}

// Provider wraps telemetry providers
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initRequestMetrics(m)
	initFilterMetrics(m)
	initStageMetrics(m)
	initModelMetrics(m)
	return m
}

func initRequestMetrics(m *Metrics) {
	m.RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashion_nlp_requests_total",
		Help: "Total process requests by outcome (processed, rejected, invalid, failed)",
	}, []string{"outcome"})

	m.RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fashion_nlp_request_duration_seconds",
		Help:    "End-to-end time to run the filter and both models on one request",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	})

	m.RequestTextLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fashion_nlp_request_text_length_bytes",
		Help:    "Length of the submitted text",
		Buckets: []float64{16, 64, 256, 1024, 4096, 16384, 65536},
	})

	m.InferenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashion_nlp_inference_failures_total",
		Help: "Total model inference failures by stage",
	}, []string{"stage"})
}

func initFilterMetrics(m *Metrics) {
	m.FilterMatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fashion_nlp_filter_match_duration_seconds",
		Help:    "Time spent in keyword matching (Aho-Corasick)",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	m.KeywordsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fashion_nlp_keywords_matched_total",
		Help: "Total keyword hits across accepted and rejected requests",
	})

	m.FilterRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fashion_nlp_filter_rejections_total",
		Help: "Total requests rejected by the domain filter",
	})
}

func initStageMetrics(m *Metrics) {
	m.StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fashion_nlp_stage_duration_seconds",
		Help:    "Time per pipeline stage (filter, ner, qa)",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"stage"})

	m.EntitiesExtracted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fashion_nlp_entities_extracted",
		Help:    "Grouped entities returned per request",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})

	m.AnswerScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fashion_nlp_answer_score",
		Help:    "Confidence of the extracted answer span",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.99},
	})
}

func initModelMetrics(m *Metrics) {
	m.WarmupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fashion_nlp_model_warmup_duration_seconds",
		Help:    "Time to run the warmup inference per model",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"model"})
}

// RecordRequest records the outcome and duration of one process request
func (p *Provider) RecordRequest(ctx context.Context, outcome string, textLen int, duration time.Duration) {
	p.Metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	p.Metrics.RequestDuration.Observe(duration.Seconds())
	p.Metrics.RequestTextLength.Observe(float64(textLen))
}

// RecordFilterMatch records keyword matching metrics
func (p *Provider) RecordFilterMatch(ctx context.Context, duration time.Duration, matched int) {
	p.Metrics.FilterMatchDuration.Observe(duration.Seconds())
	p.Metrics.KeywordsMatched.Add(float64(matched))
	if matched == 0 {
		p.Metrics.FilterRejections.Inc()
	}
}

// RecordStage records the duration of one pipeline stage
func (p *Provider) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	p.Metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordEntities records the grouped entity count for one request
func (p *Provider) RecordEntities(ctx context.Context, count int) {
	p.Metrics.EntitiesExtracted.Observe(float64(count))
}

// RecordAnswerScore records the confidence of one extracted answer
func (p *Provider) RecordAnswerScore(ctx context.Context, score float64) {
	p.Metrics.AnswerScore.Observe(score)
}

// RecordInferenceFailure records a model failure for the given stage
func (p *Provider) RecordInferenceFailure(ctx context.Context, stage string) {
	p.Metrics.InferenceFailures.WithLabelValues(stage).Inc()
}

// RecordWarmup records the warmup inference duration for a model
func (p *Provider) RecordWarmup(ctx context.Context, model string, duration time.Duration) {
	p.Metrics.WarmupDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
