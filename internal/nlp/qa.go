package nlp

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// QAModel wraps an ONNX extractive question-answering model. Given a
// question and a passage it selects the best contiguous span of the
// passage as the answer.
type QAModel struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	seqLen    int
	maxAnswer int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	startLogits   *ort.Tensor[float32]
	endLogits     *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadQAModel initializes the ONNX session and tokenizer from a model
// bundle directory:
//
//	<bundleDir>/model.onnx
//	<bundleDir>/tokenizer/vocab.txt
//
// maxAnswerLen bounds the answer span length in tokens.
func LoadQAModel(bundleDir string, seqLen, maxAnswerLen int) (*QAModel, error) {
	if bundleDir == "" {
		return nil, fmt.Errorf("qa bundle dir is empty")
	}
	if seqLen <= 0 {
		seqLen = 384
	}
	if maxAnswerLen <= 0 {
		maxAnswerLen = 15
	}

	if err := initRuntime(bundleDir); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(bundleDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("qa model missing at %s: %w", modelPath, err)
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load qa tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	startLogits, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate start_logits tensor: %w", err)
	}
	endLogits, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate end_logits tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"start_logits", "end_logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{startLogits, endLogits},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create qa session: %w", err)
	}

	return &QAModel{
		session:       session,
		tokenizer:     tokenizer,
		seqLen:        seqLen,
		maxAnswer:     maxAnswerLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		startLogits:   startLogits,
		endLogits:     endLogits,
	}, nil
}

// ExtractAnswer encodes the question/passage pair, runs the span head,
// and returns the best answer span with its probability.
func (m *QAModel) ExtractAnswer(ctx context.Context, question, passage string) (Answer, error) {
	if m == nil || m.session == nil {
		return Answer{}, fmt.Errorf("%w: qa model not initialized", ErrInference)
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	ids, attn, offsets := m.tokenizer.EncodePair(question, passage, m.seqLen)

	m.mu.Lock()
	copy(m.inputIDs.GetData(), ids)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		m.mu.Unlock()
		return Answer{}, fmt.Errorf("%w: qa run: %v", ErrInference, err)
	}

	starts := make([]float32, m.seqLen)
	ends := make([]float32, m.seqLen)
	copy(starts, m.startLogits.GetData())
	copy(ends, m.endLogits.GetData())
	m.mu.Unlock()

	span, ok := selectSpan(starts, ends, offsets, m.maxAnswer)
	if !ok {
		return Answer{}, fmt.Errorf("%w: no answer span found in passage", ErrInference)
	}

	return Answer{
		Question: question,
		Answer:   passage[offsets[span.start].Start:offsets[span.end].End],
		Score:    span.score,
	}, nil
}

// Close releases the session and its tensors.
func (m *QAModel) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{m.inputIDs, m.attentionMask} {
		if t != nil {
			t.Destroy()
		}
	}
	for _, t := range []*ort.Tensor[float32]{m.startLogits, m.endLogits} {
		if t != nil {
			t.Destroy()
		}
	}
}

// answerSpan is a candidate (start, end) token pair with its joint
// probability.
type answerSpan struct {
	start int
	end   int
	score float64
}

// selectSpan picks the passage span maximizing P(start)·P(end), with
// start ≤ end and span length bounded by maxAnswer tokens. Only tokens
// with valid passage offsets are candidates.
func selectSpan(startLogits, endLogits []float32, offsets []tokenOffset, maxAnswer int) (answerSpan, bool) {
	candidates := make([]int, 0, len(offsets))
	for i, off := range offsets {
		if off.valid() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return answerSpan{}, false
	}

	// Probabilities are normalized over passage tokens only, matching
	// extractive QA convention.
	startProbs := maskedSoftmax(startLogits, candidates)
	endProbs := maskedSoftmax(endLogits, candidates)

	best := answerSpan{start: -1}
	for ci, s := range candidates {
		for _, e := range candidates[ci:] {
			if e-s+1 > maxAnswer {
				break
			}
			score := startProbs[s] * endProbs[e]
			if best.start < 0 || score > best.score {
				best = answerSpan{start: s, end: e, score: score}
			}
		}
	}
	if best.start < 0 {
		return answerSpan{}, false
	}
	return best, true
}

// maskedSoftmax computes softmax over the candidate indices only.
// Non-candidate positions get probability zero.
func maskedSoftmax(logits []float32, candidates []int) []float64 {
	probs := make([]float64, len(logits))
	if len(candidates) == 0 {
		return probs
	}

	maxLogit := logits[candidates[0]]
	for _, i := range candidates[1:] {
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}

	var sum float64
	for _, i := range candidates {
		probs[i] = math.Exp(float64(logits[i] - maxLogit))
		sum += probs[i]
	}
	for _, i := range candidates {
		probs[i] /= sum
	}
	return probs
}
