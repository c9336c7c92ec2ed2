package api

import (
	"github.com/stylora/fashion-nlp/internal/nlp"
	"github.com/stylora/fashion-nlp/internal/pipeline"
)

// welcomeMessage is returned by the root endpoint.
const welcomeMessage = "Welcome to the filtered NER and QA API!"

// Domain rejection wording returned to callers whose text matched no
// keyword.
const (
	domainRejectedError  = "The input text does not match the allowed domains."
	domainRejectedDetail = "Please provide a query related to clothing, fashion, or accessories."
)

// ProcessRequest is the body of POST /process/. Text is a pointer so a
// missing field is a validation failure while an empty string falls
// through to the domain filter.
type ProcessRequest struct {
	Text *string `json:"text" binding:"required"`
}

// NERResponse wraps the grouped entities.
type NERResponse struct {
	Entities []nlp.Entity `json:"entities"`
}

// ProcessResponse is the combined output of both models.
type ProcessResponse struct {
	NER NERResponse `json:"ner"`
	QA  nlp.Answer  `json:"qa"`
}

// ErrorResponse is the body of 4xx/5xx responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// KeywordsResponse lists the allowed domain keywords.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
	Total    int      `json:"total"`
}

// ModelsHealthResponse reports the inference backend status.
type ModelsHealthResponse struct {
	Backend string                 `json:"backend"`
	Models  []pipeline.ModelStatus `json:"models"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string                 `json:"status"`
	Models []pipeline.ModelStatus `json:"models"`
}

// toProcessResponse converts a pipeline result to the wire shape. The
// entities array is never null, even when nothing was found.
func toProcessResponse(result *pipeline.Result) ProcessResponse {
	entities := result.Entities
	if entities == nil {
		entities = []nlp.Entity{}
	}
	return ProcessResponse{
		NER: NERResponse{Entities: entities},
		QA:  result.Answer,
	}
}
