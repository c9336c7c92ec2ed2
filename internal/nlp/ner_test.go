package nlp

import (
	"math"
	"testing"
)

func TestGroupEntities_MergesBIORun(t *testing.T) {
	text := "New Balance sneakers"
	preds := []tokenPrediction{
		{label: "B-ORG", score: 0.8, offset: tokenOffset{Start: 0, End: 3}},
		{label: "I-ORG", score: 0.6, offset: tokenOffset{Start: 4, End: 11}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(entities))
	}
	got := entities[0]
	if got.Word != "New Balance" {
		t.Errorf("Word = %q, want %q", got.Word, "New Balance")
	}
	if got.EntityGroup != "ORG" {
		t.Errorf("EntityGroup = %q, want ORG", got.EntityGroup)
	}
	if math.Abs(got.Score-0.7) > 1e-9 {
		t.Errorf("Score = %v, want mean 0.7", got.Score)
	}
}

func TestGroupEntities_BTagStartsNewEntity(t *testing.T) {
	text := "Nike Adidas"
	preds := []tokenPrediction{
		{label: "B-ORG", score: 0.9, offset: tokenOffset{Start: 0, End: 4}},
		{label: "B-ORG", score: 0.9, offset: tokenOffset{Start: 5, End: 11}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].Word != "Nike" || entities[1].Word != "Adidas" {
		t.Errorf("words = %q, %q", entities[0].Word, entities[1].Word)
	}
}

func TestGroupEntities_OutsideTokenSplits(t *testing.T) {
	text := "Nike makes Jordans"
	preds := []tokenPrediction{
		{label: "B-ORG", score: 0.9, offset: tokenOffset{Start: 0, End: 4}},
		{label: "O", score: 0.99, offset: tokenOffset{Start: 5, End: 10}},
		{label: "I-MISC", score: 0.7, offset: tokenOffset{Start: 11, End: 18}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	// A dangling I- after a flush still opens an entity.
	if entities[1].Word != "Jordans" || entities[1].EntityGroup != "MISC" {
		t.Errorf("second entity = %+v", entities[1])
	}
}

func TestGroupEntities_CategoryChangeSplits(t *testing.T) {
	text := "Paris fashion"
	preds := []tokenPrediction{
		{label: "B-LOC", score: 0.9, offset: tokenOffset{Start: 0, End: 5}},
		{label: "I-MISC", score: 0.8, offset: tokenOffset{Start: 6, End: 13}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].EntityGroup != "LOC" || entities[1].EntityGroup != "MISC" {
		t.Errorf("groups = %q, %q", entities[0].EntityGroup, entities[1].EntityGroup)
	}
}

func TestGroupEntities_GapSplitsSameCategory(t *testing.T) {
	text := "Gucci bags and Gucci belts"
	preds := []tokenPrediction{
		{label: "B-ORG", score: 0.9, offset: tokenOffset{Start: 0, End: 5}},
		// Same category but far from the previous span.
		{label: "I-ORG", score: 0.9, offset: tokenOffset{Start: 15, End: 20}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].Word != "Gucci" || entities[1].Word != "Gucci" {
		t.Errorf("words = %q, %q", entities[0].Word, entities[1].Word)
	}
}

func TestGroupEntities_SubwordContinuation(t *testing.T) {
	text := "Lululemon"
	preds := []tokenPrediction{
		{label: "B-ORG", score: 0.9, offset: tokenOffset{Start: 0, End: 4}},
		{label: "I-ORG", score: 0.5, offset: tokenOffset{Start: 4, End: 9}},
	}

	entities := groupEntities(preds, text)
	if len(entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(entities))
	}
	if entities[0].Word != "Lululemon" {
		t.Errorf("Word = %q, want %q", entities[0].Word, "Lululemon")
	}
}

func TestGroupEntities_AllOutside(t *testing.T) {
	preds := []tokenPrediction{
		{label: "O", score: 0.99, offset: tokenOffset{Start: 0, End: 3}},
		{label: "O", score: 0.98, offset: tokenOffset{Start: 4, End: 8}},
	}
	if got := groupEntities(preds, "the text"); len(got) != 0 {
		t.Errorf("got %d entities, want 0", len(got))
	}
}

func TestSplitTag(t *testing.T) {
	cases := []struct {
		label    string
		tag      string
		category string
	}{
		{"B-ORG", "B", "ORG"},
		{"I-PER", "I", "PER"},
		{"O", "", "O"},
		{"MISC", "", "MISC"},
	}
	for _, tc := range cases {
		tag, category := splitTag(tc.label)
		if tag != tc.tag || category != tc.category {
			t.Errorf("splitTag(%q) = (%q, %q), want (%q, %q)", tc.label, tag, category, tc.tag, tc.category)
		}
	}
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{1, 2, 3})
	if len(probs) != 3 {
		t.Fatalf("len = %d, want 3", len(probs))
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("softmax must preserve order, got %v", probs)
	}
}

func TestArgmax(t *testing.T) {
	if got := argmax([]float64{0.1, 0.7, 0.2}); got != 1 {
		t.Errorf("argmax = %d, want 1", got)
	}
	if got := argmax([]float64{0.5}); got != 0 {
		t.Errorf("argmax = %d, want 0", got)
	}
}
