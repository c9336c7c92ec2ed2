package nlp

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// NERModel wraps an ONNX token-classification model and its tokenizer.
// The session and its tensors are allocated once at load time and
// reused; a mutex serializes inference so callers never lock anything
// themselves.
type NERModel struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	labels    []string
	seqLen    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	logits        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadNERModel initializes the ONNX session, tokenizer, and label map
// from a model bundle directory:
//
//	<bundleDir>/model.onnx
//	<bundleDir>/label_map.json
//	<bundleDir>/tokenizer/vocab.txt
func LoadNERModel(bundleDir string, seqLen int) (*NERModel, error) {
	if bundleDir == "" {
		return nil, fmt.Errorf("ner bundle dir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	if err := initRuntime(bundleDir); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(bundleDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("ner model missing at %s: %w", modelPath, err)
	}

	labels, err := loadLabels(filepath.Join(bundleDir, "label_map.json"))
	if err != nil {
		return nil, fmt.Errorf("load ner labels: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load ner tokenizer: %w", err)
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
	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(len(labels))))
	if err != nil {
		return nil, fmt.Errorf("allocate logits tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{logits},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create ner session: %w", err)
	}

	return &NERModel{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		logits:        logits,
	}, nil
}

// ExtractEntities runs token classification over text and groups
// adjacent sub-word predictions sharing a label into entities, ordered
// left to right by first appearance.
func (m *NERModel) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	if m == nil || m.session == nil {
		return nil, fmt.Errorf("%w: ner model not initialized", ErrInference)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, attn, offsets := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	copy(m.inputIDs.GetData(), ids)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: ner run: %v", ErrInference, err)
	}

	numLabels := len(m.labels)
	preds := make([]tokenPrediction, 0, m.seqLen)
	raw := m.logits.GetData()
	for i := 0; i < m.seqLen; i++ {
		if attn[i] == 0 || !offsets[i].valid() {
			continue
		}
		row := raw[i*numLabels : (i+1)*numLabels]
		probs := softmax(row)
		best := argmax(probs)
		preds = append(preds, tokenPrediction{
			label:  m.labels[best],
			score:  probs[best],
			offset: offsets[i],
		})
	}
	m.mu.Unlock()

	return groupEntities(preds, text), nil
}

// Close releases the session and its tensors.
func (m *NERModel) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{m.inputIDs, m.attentionMask} {
		if t != nil {
			t.Destroy()
		}
	}
	if m.logits != nil {
		m.logits.Destroy()
	}
}

// Labels returns the model's label set.
func (m *NERModel) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// tokenPrediction is one sub-word token's argmax label, confidence,
// and source span.
type tokenPrediction struct {
	label  string
	score  float64
	offset tokenOffset
}

// outsideLabel marks tokens carrying no entity.
const outsideLabel = "O"

// groupEntities merges adjacent token predictions into entities. A
// B- tag or a change of label category starts a new entity; the merged
// span's text is sliced from the source and its score is the mean of
// the member token scores.
func groupEntities(preds []tokenPrediction, text string) []Entity {
	entities := make([]Entity, 0, len(preds))

	var (
		group    string
		start    int
		end      int
		scoreSum float64
		count    int
	)

	flush := func() {
		if count == 0 {
			return
		}
		entities = append(entities, Entity{
			Word:        text[start:end],
			EntityGroup: group,
			Score:       scoreSum / float64(count),
		})
		count = 0
	}

	for _, p := range preds {
		tag, category := splitTag(p.label)
		if category == outsideLabel {
			flush()
			continue
		}

		startsNew := count == 0 || tag == "B" || category != group || p.offset.Start > end+1
		if startsNew {
			flush()
			group = category
			start = p.offset.Start
			end = p.offset.End
			scoreSum = p.score
			count = 1
			continue
		}

		end = p.offset.End
		scoreSum += p.score
		count++
	}
	flush()

	return entities
}

// splitTag separates a BIO tag ("B-ORG") into its prefix and category.
// Untagged labels ("O", "MISC") are their own category.
func splitTag(label string) (tag, category string) {
	if idx := strings.Index(label, "-"); idx > 0 {
		return label[:idx], label[idx+1:]
	}
	return "", label
}

// softmax converts one row of logits into probabilities.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l - maxLogit))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
