package nlp

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordPieceTokenizer is a minimal BERT-compatible tokenizer. It
// lowercases, folds accents, splits on whitespace and punctuation, and
// greedily matches the longest vocab piece.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// tokenOffset maps a token back to a byte range in the source text.
// Special and padding tokens carry {-1, -1}.
type tokenOffset struct {
	Start int
	End   int
}

func (o tokenOffset) valid() bool { return o.Start >= 0 && o.End > o.Start }

// LoadWordPieceTokenizer builds the tokenizer from a vocab.txt file
// (one token per line, line number = token ID).
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab at %s is empty", path)
	}

	return &WordPieceTokenizer{
		vocab:        vocab,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

// stripAccents removes combining marks after NFD decomposition.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeWord lowercases and folds accents for vocab lookup.
func normalizeWord(w string) string {
	w = strings.ToLower(w)
	if folded, _, err := transform.String(stripAccents, w); err == nil {
		return folded
	}
	return w
}

// wordSpan is a whitespace/punctuation-delimited unit with its byte
// range in the source text.
type wordSpan struct {
	Text  string
	Start int
	End   int
}

// splitWords segments text into word and punctuation spans. Punctuation
// runes become their own spans, matching BERT basic tokenization.
func splitWords(text string) []wordSpan {
	var spans []wordSpan
	start := -1

	flush := func(end int) {
		if start >= 0 {
			spans = append(spans, wordSpan{Text: text[start:end], Start: start, End: end})
			start = -1
		}
	}

	for idx, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(idx)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush(idx)
			end := idx + len(string(r))
			spans = append(spans, wordSpan{Text: text[idx:end], Start: idx, End: end})
		default:
			if start < 0 {
				start = idx
			}
		}
	}
	flush(len(text))
	return spans
}

// encodedToken pairs a vocab ID with its source offset.
type encodedToken struct {
	id     int64
	offset tokenOffset
}

// tokenize converts text into wordpiece tokens with source offsets.
func (t *WordPieceTokenizer) tokenize(text string) []encodedToken {
	var out []encodedToken
	for _, w := range splitWords(text) {
		normalized := normalizeWord(w.Text)
		pieces := t.wordPiece(normalized)

		// Piece offsets index into the normalized word. When folding
		// changed the byte length, the per-piece positions no longer
		// line up with the source, so each piece falls back to the
		// whole word span.
		exact := len(normalized) == len(w.Text)
		for _, p := range pieces {
			off := tokenOffset{Start: w.Start, End: w.End}
			if exact {
				off = tokenOffset{Start: w.Start + p.start, End: w.Start + p.end}
			}
			out = append(out, encodedToken{id: p.id, offset: off})
		}
	}
	return out
}

type piece struct {
	id    int64
	start int
	end   int
}

// wordPiece greedily splits one normalized word into vocab pieces.
// Unknown words collapse to a single [UNK] token.
func (t *WordPieceTokenizer) wordPiece(word string) []piece {
	if id, ok := t.vocab[word]; ok {
		return []piece{{id: id, start: 0, end: len(word)}}
	}

	var pieces []piece
	start := 0
	for start < len(word) {
		end := len(word)
		matched := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, piece{id: id, start: start, end: end})
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []piece{{id: t.unkID, start: 0, end: len(word)}}
		}
	}
	return pieces
}

// Encode converts text into [CLS] text [SEP] token IDs, an attention
// mask, and per-token source offsets, all of length seqLen.
func (t *WordPieceTokenizer) Encode(text string, seqLen int) (ids, attn []int64, offsets []tokenOffset) {
	if seqLen <= 0 {
		return nil, nil, nil
	}

	tokens := t.tokenize(text)
	// Room for [CLS] and [SEP].
	if len(tokens) > seqLen-2 {
		tokens = tokens[:seqLen-2]
	}

	ids = make([]int64, 0, seqLen)
	offsets = make([]tokenOffset, 0, seqLen)
	ids = append(ids, t.clsID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	for _, tok := range tokens {
		ids = append(ids, tok.id)
		offsets = append(offsets, tok.offset)
	}
	ids = append(ids, t.sepID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})

	return t.pad(ids, offsets, seqLen)
}

// EncodePair converts a question/passage pair into
// [CLS] question [SEP] passage [SEP] token IDs, an attention mask, and
// per-token offsets. Offsets are valid only for passage tokens and index
// into the passage string; the passage is truncated to fit seqLen.
func (t *WordPieceTokenizer) EncodePair(question, passage string, seqLen int) (ids, attn []int64, offsets []tokenOffset) {
	if seqLen <= 0 {
		return nil, nil, nil
	}

	qTokens := t.tokenize(question)
	pTokens := t.tokenize(passage)

	// Room for [CLS], two [SEP], and at least one passage token.
	maxQ := seqLen - 4
	if len(qTokens) > maxQ {
		qTokens = qTokens[:maxQ]
	}
	maxP := seqLen - 3 - len(qTokens)
	if len(pTokens) > maxP {
		pTokens = pTokens[:maxP]
	}

	ids = make([]int64, 0, seqLen)
	offsets = make([]tokenOffset, 0, seqLen)

	ids = append(ids, t.clsID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	for _, tok := range qTokens {
		ids = append(ids, tok.id)
		offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	}
	ids = append(ids, t.sepID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	for _, tok := range pTokens {
		ids = append(ids, tok.id)
		offsets = append(offsets, tok.offset)
	}
	ids = append(ids, t.sepID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})

	return t.pad(ids, offsets, seqLen)
}

func (t *WordPieceTokenizer) pad(ids []int64, offsets []tokenOffset, seqLen int) ([]int64, []int64, []tokenOffset) {
	attn := make([]int64, seqLen)
	for i := 0; i < len(ids) && i < seqLen; i++ {
		attn[i] = 1
	}
	for len(ids) < seqLen {
		ids = append(ids, t.padID)
		offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	}
	return ids, attn, offsets
}
