package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylora/fashion-nlp/internal/domainfilter"
	"github.com/stylora/fashion-nlp/internal/logging"
	"github.com/stylora/fashion-nlp/internal/nlp"
	"github.com/stylora/fashion-nlp/internal/pipeline"
	"github.com/stylora/fashion-nlp/internal/telemetry"
)

// Telemetry registers into promauto's global registry, so the tests
// share one provider.
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func testTelemetry() *telemetry.Provider {
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

type fakeNER struct {
	entities []nlp.Entity
	err      error
	calls    int
	lastText string
}

func (f *fakeNER) ExtractEntities(_ context.Context, text string) ([]nlp.Entity, error) {
	f.calls++
	f.lastText = text
	return f.entities, f.err
}

type fakeQA struct {
	answer       nlp.Answer
	err          error
	calls        int
	lastQuestion string
	lastPassage  string
}

func (f *fakeQA) ExtractAnswer(_ context.Context, question, passage string) (nlp.Answer, error) {
	f.calls++
	f.lastQuestion = question
	f.lastPassage = passage
	return f.answer, f.err
}

func newTestPipeline(t *testing.T, ner nlp.EntityExtractor, qa *fakeQA) *pipeline.Pipeline {
	t.Helper()
	filter := domainfilter.New(nil)
	return pipeline.New(filter, ner, qa, logging.NewNop(), testTelemetry())
}

func TestProcess_RunsBothModels(t *testing.T) {
	ner := &fakeNER{entities: []nlp.Entity{
		{Word: "Nike", EntityGroup: "ORG", Score: 0.98},
	}}
	qa := &fakeQA{answer: nlp.Answer{Question: "q", Answer: "hoodie", Score: 0.9}}
	p := newTestPipeline(t, ner, qa)

	text := "I love my new Nike hoodie"
	result, err := p.Process(context.Background(), text)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, ner.calls)
	assert.Equal(t, text, ner.lastText)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Nike", result.Entities[0].Word)

	// The caller text travels as both question and passage.
	assert.Equal(t, 1, qa.calls)
	assert.Equal(t, text, qa.lastQuestion)
	assert.Equal(t, text, qa.lastPassage)
	assert.Equal(t, "hoodie", result.Answer.Answer)
}

func TestProcess_OutOfDomainSkipsModels(t *testing.T) {
	ner := &fakeNER{}
	qa := &fakeQA{}
	p := newTestPipeline(t, ner, qa)

	result, err := p.Process(context.Background(), "The stock market fell today")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDomainRejected))
	assert.Nil(t, result)

	// Rejected text never reaches the models.
	assert.Zero(t, ner.calls)
	assert.Zero(t, qa.calls)
}

func TestProcess_NERFailureFailsRequest(t *testing.T) {
	ner := &fakeNER{err: nlp.ErrInference}
	qa := &fakeQA{}
	p := newTestPipeline(t, ner, qa)

	result, err := p.Process(context.Background(), "new denim jacket")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrInference))
	assert.Nil(t, result)

	// No partial results: QA is not attempted after a NER failure.
	assert.Zero(t, qa.calls)
}

func TestProcess_QAFailureFailsRequest(t *testing.T) {
	ner := &fakeNER{entities: []nlp.Entity{}}
	qa := &fakeQA{err: nlp.ErrUnavailable}
	p := newTestPipeline(t, ner, qa)

	result, err := p.Process(context.Background(), "new denim jacket")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrUnavailable))
	assert.Nil(t, result)
	assert.Equal(t, 1, ner.calls)
}

func TestProcess_EmptyEntitiesIsNotAnError(t *testing.T) {
	ner := &fakeNER{entities: []nlp.Entity{}}
	qa := &fakeQA{answer: nlp.Answer{Question: "q", Answer: "scarf", Score: 0.4}}
	p := newTestPipeline(t, ner, qa)

	result, err := p.Process(context.Background(), "where can I buy a scarf")
	require.NoError(t, err)
	assert.Empty(t, result.Entities)
	assert.Equal(t, "scarf", result.Answer.Answer)
}

func TestWarmup(t *testing.T) {
	ner := &fakeNER{}
	qa := &fakeQA{}
	p := newTestPipeline(t, ner, qa)

	require.NoError(t, p.Warmup(context.Background()))
	assert.Equal(t, 1, ner.calls)
	assert.Equal(t, 1, qa.calls)
}

func TestWarmup_PropagatesFailure(t *testing.T) {
	ner := &fakeNER{err: errors.New("session not loaded")}
	p := newTestPipeline(t, ner, &fakeQA{})

	err := p.Warmup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ner warmup")
}

func TestKeywords(t *testing.T) {
	p := newTestPipeline(t, &fakeNER{}, &fakeQA{})
	assert.Equal(t, len(domainfilter.DefaultKeywords), len(p.Keywords()))
}

type fakeHealthNER struct {
	fakeNER
	latency int64
	version string
	err     error
}

func (f *fakeHealthNER) Health(_ context.Context) (int64, string, error) {
	return f.latency, f.version, f.err
}

func TestModelsHealth(t *testing.T) {
	ner := &fakeHealthNER{latency: 12, version: "ner-v2"}
	p := newTestPipeline(t, ner, &fakeQA{})

	statuses := p.ModelsHealth(context.Background())
	require.Len(t, statuses, 2)

	assert.Equal(t, "ner", statuses[0].Name)
	assert.True(t, statuses[0].Healthy)
	assert.Equal(t, "ner-v2", statuses[0].ModelVersion)

	// The QA fake has no Health method, so it reports loaded-and-healthy.
	assert.Equal(t, "qa", statuses[1].Name)
	assert.True(t, statuses[1].Healthy)
}

func TestModelsHealth_Unreachable(t *testing.T) {
	ner := &fakeHealthNER{err: errors.New("connection refused")}
	p := newTestPipeline(t, ner, &fakeQA{})

	statuses := p.ModelsHealth(context.Background())
	assert.False(t, statuses[0].Healthy)
	assert.Contains(t, statuses[0].Error, "connection refused")
}
