// Package pipeline runs the domain filter and the two extraction models
// over incoming text, in order, and assembles the combined result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stylora/fashion-nlp/internal/domainfilter"
	"github.com/stylora/fashion-nlp/internal/logging"
	"github.com/stylora/fashion-nlp/internal/nlp"
	"github.com/stylora/fashion-nlp/internal/telemetry"
)

// ErrDomainRejected reports text that matched no domain keyword. The
// models are never invoked for rejected text.
var ErrDomainRejected = errors.New("text is outside the supported domain")

// warmupText is a known in-domain sentence run through both models at
// startup so the first caller does not pay session initialization cost.
const warmupText = "I love my new Nike hoodie and running shoes"

// Result is the combined output of both models for one request.
type Result struct {
	Entities []nlp.Entity
	Answer   nlp.Answer
}

// Pipeline wires the keyword gate ahead of the NER and QA models.
type Pipeline struct {
	filter    *domainfilter.Filter
	ner       nlp.EntityExtractor
	qa        nlp.AnswerExtractor
	logger    logging.Logger
	telemetry *telemetry.Provider
}

// New creates a Pipeline. The telemetry provider may not be nil; pass
// a fresh one in tests.
func New(
	filter *domainfilter.Filter,
	ner nlp.EntityExtractor,
	qa nlp.AnswerExtractor,
	logger logging.Logger,
	provider *telemetry.Provider,
) *Pipeline {
	return &Pipeline{
		filter:    filter,
		ner:       ner,
		qa:        qa,
		logger:    logger,
		telemetry: provider,
	}
}

// Process gates text on the domain filter, then runs entity extraction
// and answer extraction over it. The QA model receives the text as both
// question and passage. Any stage failure fails the whole request; no
// partial results are returned.
func (p *Pipeline) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	ctx, span := p.telemetry.StartSpan(ctx, "pipeline.process",
		attribute.Int("text.length", len(text)))
	defer span.End()

	matched, err := p.runFilter(ctx, text)
	if err != nil {
		p.telemetry.RecordRequest(ctx, telemetry.OutcomeRejected, len(text), time.Since(start))
		return nil, err
	}

	entities, err := p.runNER(ctx, text)
	if err != nil {
		p.telemetry.RecordRequest(ctx, telemetry.OutcomeFailed, len(text), time.Since(start))
		return nil, err
	}

	answer, err := p.runQA(ctx, text)
	if err != nil {
		p.telemetry.RecordRequest(ctx, telemetry.OutcomeFailed, len(text), time.Since(start))
		return nil, err
	}

	elapsed := time.Since(start)
	p.telemetry.RecordRequest(ctx, telemetry.OutcomeProcessed, len(text), elapsed)

	p.logger.Info("request processed",
		logging.Int("matched_keywords", len(matched)),
		logging.Int("entities", len(entities)),
		logging.Float64("answer_score", answer.Score),
		logging.Duration("elapsed", elapsed),
	)

	return &Result{Entities: entities, Answer: answer}, nil
}

// runFilter returns the matched keywords, or ErrDomainRejected when
// there are none.
func (p *Pipeline) runFilter(ctx context.Context, text string) ([]string, error) {
	start := time.Now()
	matched := p.filter.Matches(text)
	elapsed := time.Since(start)

	p.telemetry.RecordFilterMatch(ctx, elapsed, len(matched))
	p.telemetry.RecordStage(ctx, telemetry.StageFilter, elapsed)

	if len(matched) == 0 {
		p.logger.Info("request rejected by domain filter",
			logging.Int("text_length", len(text)))
		return nil, ErrDomainRejected
	}
	return matched, nil
}

func (p *Pipeline) runNER(ctx context.Context, text string) ([]nlp.Entity, error) {
	start := time.Now()
	entities, err := p.ner.ExtractEntities(ctx, text)
	elapsed := time.Since(start)
	p.telemetry.RecordStage(ctx, telemetry.StageNER, elapsed)

	if err != nil {
		p.telemetry.RecordInferenceFailure(ctx, telemetry.StageNER)
		p.logger.Error("entity extraction failed",
			logging.String("error_type", inferenceErrorType(err)),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	p.telemetry.RecordEntities(ctx, len(entities))
	return entities, nil
}

func (p *Pipeline) runQA(ctx context.Context, text string) (nlp.Answer, error) {
	start := time.Now()
	// The upstream contract feeds the caller text as both question and
	// passage.
	answer, err := p.qa.ExtractAnswer(ctx, text, text)
	elapsed := time.Since(start)
	p.telemetry.RecordStage(ctx, telemetry.StageQA, elapsed)

	if err != nil {
		p.telemetry.RecordInferenceFailure(ctx, telemetry.StageQA)
		p.logger.Error("answer extraction failed",
			logging.String("error_type", inferenceErrorType(err)),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return nlp.Answer{}, fmt.Errorf("answer extraction: %w", err)
	}

	p.telemetry.RecordAnswerScore(ctx, answer.Score)
	return answer, nil
}

// Warmup runs one inference through each model so the first request is
// served at steady-state latency. Failures are returned, not fatal;
// the caller decides whether to continue.
func (p *Pipeline) Warmup(ctx context.Context) error {
	start := time.Now()
	if _, err := p.ner.ExtractEntities(ctx, warmupText); err != nil {
		return fmt.Errorf("ner warmup: %w", err)
	}
	p.telemetry.RecordWarmup(ctx, "ner", time.Since(start))

	start = time.Now()
	if _, err := p.qa.ExtractAnswer(ctx, warmupText, warmupText); err != nil {
		return fmt.Errorf("qa warmup: %w", err)
	}
	p.telemetry.RecordWarmup(ctx, "qa", time.Since(start))

	p.logger.Info("model warmup complete")
	return nil
}

// Keywords exposes the configured domain keyword list.
func (p *Pipeline) Keywords() []string {
	return p.filter.Keywords()
}

// ModelStatus describes one model's availability.
type ModelStatus struct {
	Name         string `json:"name"`
	Healthy      bool   `json:"healthy"`
	LatencyMs    int64  `json:"latency_ms,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Error        string `json:"error,omitempty"`
}

// healthChecker is implemented by the remote clients. Local ONNX models
// are considered healthy once loaded.
type healthChecker interface {
	Health(ctx context.Context) (latencyMs int64, modelVersion string, err error)
}

// ModelsHealth probes both models. Remote backends are checked over
// HTTP; local backends report healthy by virtue of being loaded.
func (p *Pipeline) ModelsHealth(ctx context.Context) []ModelStatus {
	return []ModelStatus{
		checkModel(ctx, "ner", p.ner),
		checkModel(ctx, "qa", p.qa),
	}
}

func checkModel(ctx context.Context, name string, model any) ModelStatus {
	hc, ok := model.(healthChecker)
	if !ok {
		return ModelStatus{Name: name, Healthy: true}
	}

	latency, version, err := hc.Health(ctx)
	if err != nil {
		return ModelStatus{Name: name, Healthy: false, LatencyMs: latency, Error: err.Error()}
	}
	return ModelStatus{Name: name, Healthy: true, LatencyMs: latency, ModelVersion: version}
}

// inferenceErrorType categorizes a model error for dashboard filtering.
func inferenceErrorType(err error) string {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return "timeout"
	case strings.Contains(lower, "returned 5"):
		return "5xx"
	case strings.Contains(lower, "returned 4"):
		return "4xx"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "no such host"):
		return "connection"
	case strings.Contains(lower, "decode") || strings.Contains(lower, "unmarshal"):
		return "decode"
	default:
		return "inference"
	}
}
