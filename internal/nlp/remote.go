package nlp

import (
	"context"
	"fmt"
)

// RemoteNER delegates entity extraction to an HTTP inference sidecar.
type RemoteNER struct {
	baseURL string
}

// NewRemoteNER creates a client for the NER endpoint at baseURL.
func NewRemoteNER(baseURL string) *RemoteNER {
	return &RemoteNER{baseURL: baseURL}
}

// nerRequest is the request body for POST /ner.
type nerRequest struct {
	Text string `json:"text"`
}

// nerResponse is the response body from POST /ner.
type nerResponse struct {
	Entities     []Entity `json:"entities"`
	ModelVersion string   `json:"model_version"`
}

// ExtractEntities sends the text to the sidecar's /ner endpoint.
func (c *RemoteNER) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	var result nerResponse
	if err := doPost(ctx, c.baseURL, "/ner", &nerRequest{Text: text}, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return result.Entities, nil
}

// Health checks the sidecar's /health endpoint.
func (c *RemoteNER) Health(ctx context.Context) (latencyMs int64, modelVersion string, err error) {
	reachable, latencyMs, modelVersion, err := doHealth(ctx, c.baseURL)
	if err != nil {
		if !reachable {
			return latencyMs, "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return latencyMs, "", err
	}
	return latencyMs, modelVersion, nil
}

// RemoteQA delegates answer extraction to an HTTP inference sidecar.
type RemoteQA struct {
	baseURL string
}

// NewRemoteQA creates a client for the QA endpoint at baseURL.
func NewRemoteQA(baseURL string) *RemoteQA {
	return &RemoteQA{baseURL: baseURL}
}

// qaRequest is the request body for POST /qa.
type qaRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// qaResponse is the response body from POST /qa.
type qaResponse struct {
	Answer       string  `json:"answer"`
	Score        float64 `json:"score"`
	ModelVersion string  `json:"model_version"`
}

// ExtractAnswer sends the question/passage pair to the sidecar's /qa
// endpoint.
func (c *RemoteQA) ExtractAnswer(ctx context.Context, question, passage string) (Answer, error) {
	var result qaResponse
	req := &qaRequest{Question: question, Context: passage}
	if err := doPost(ctx, c.baseURL, "/qa", req, &result); err != nil {
		return Answer{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Answer{
		Question: question,
		Answer:   result.Answer,
		Score:    result.Score,
	}, nil
}

// Health checks the sidecar's /health endpoint.
func (c *RemoteQA) Health(ctx context.Context) (latencyMs int64, modelVersion string, err error) {
	reachable, latencyMs, modelVersion, err := doHealth(ctx, c.baseURL)
	if err != nil {
		if !reachable {
			return latencyMs, "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return latencyMs, "", err
	}
	return latencyMs, modelVersion, nil
}
