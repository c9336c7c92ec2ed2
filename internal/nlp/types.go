// Package nlp provides the two inference stages of the service: grouped
// named-entity recognition and extractive question answering. Both are
// available as in-process ONNX models or as clients for a remote
// inference sidecar.
package nlp

import (
	"context"
	"errors"
)

// ErrInference indicates a model invocation failed.
var ErrInference = errors.New("inference failed")

// ErrUnavailable indicates the remote inference service is unreachable.
var ErrUnavailable = errors.New("inference service unavailable")

// Entity is a labeled span produced by the entity extraction stage.
// Adjacent sub-word predictions sharing a label are merged into one
// Entity covering the concatenated span.
type Entity struct {
	Word        string  `json:"word"`
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
}

// Answer is the best extractive answer span for a question over a
// passage.
type Answer struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// EntityExtractor runs grouped named-entity recognition over text.
// Output order follows first appearance in the input, left to right.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// AnswerExtractor selects the best contiguous span of the passage as
// the answer to the question.
type AnswerExtractor interface {
	ExtractAnswer(ctx context.Context, question, passage string) (Answer, error)
}
