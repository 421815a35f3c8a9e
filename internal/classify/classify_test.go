package classify

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
)

func TestSafeDefault(t *testing.T) {
	got := SafeDefault()
	if got.Label != database.LabelNeutral {
		t.Errorf("expected neutral label, got %q", got.Label)
	}
	if got.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", got.Confidence)
	}
}

func TestResultFromLogits(t *testing.T) {
	tests := []struct {
		name      string
		logits    []float32
		wantLabel string
	}{
		{"negative wins", []float32{4.0, 1.0, 0.5}, database.LabelNegative},
		{"neutral wins", []float32{0.1, 3.0, 0.2}, database.LabelNeutral},
		{"positive wins", []float32{-1.0, 0.0, 5.0}, database.LabelPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resultFromLogits(tt.logits)
			if got.Label != tt.wantLabel {
				t.Errorf("expected %q, got %q", tt.wantLabel, got.Label)
			}
			if got.Confidence <= 1.0/3.0 || got.Confidence > 1.0 {
				t.Errorf("winning confidence %f outside (1/3, 1]", got.Confidence)
			}
		})
	}
}

func TestResultFromLogitsWrongShape(t *testing.T) {
	got := resultFromLogits([]float32{1.0, 2.0})
	if got != SafeDefault() {
		t.Errorf("expected safe default for malformed logits, got %+v", got)
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{100.0, 101.0, 99.5})
	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %f out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}
}

func writeTestVocab(t *testing.T) string {
	t.Helper()
	tokens := []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]",
		"love", "it", "!", "great", "game",
		"un", "##play", "##able", "##s",
	}
	path := filepath.Join(t.TempDir(), "vocab.txt")
	data := ""
	for _, tok := range tokens {
		data += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenizerFramingAndLowercasing(t *testing.T) {
	tok, err := newTokenizer(writeTestVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, mask := tok.tokenize("Love IT!!")
	// [CLS] love it ! ! [SEP]
	want := []int64{2, 4, 5, 6, 6, 3}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("id[%d] = %d, want %d", i, id, want[i])
		}
	}
	if len(mask) != len(ids) {
		t.Fatalf("mask length %d != ids length %d", len(mask), len(ids))
	}
	for i, m := range mask {
		if m != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, m)
		}
	}
}

func TestTokenizerWordPieceContinuation(t *testing.T) {
	tok, err := newTokenizer(writeTestVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, _ := tok.tokenize("unplayable games")
	// [CLS] un ##play ##able game ##s [SEP]
	want := []int64{2, 9, 10, 11, 8, 12, 3}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("id[%d] = %d, want %d", i, id, want[i])
		}
	}
}

func TestTokenizerUnknownWord(t *testing.T) {
	tok, err := newTokenizer(writeTestVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, _ := tok.tokenize("zzzz")
	// [CLS] [UNK] [SEP]
	if len(ids) != 3 || ids[1] != 1 {
		t.Errorf("expected unknown word to map to [UNK], got %v", ids)
	}
}

func TestTokenizerTruncation(t *testing.T) {
	tok, err := newTokenizer(writeTestVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	long := ""
	for i := 0; i < 1000; i++ {
		long += "love it "
	}
	ids, mask := tok.tokenize(long)
	if len(ids) > maxSeqLen {
		t.Errorf("tokenized length %d exceeds limit %d", len(ids), maxSeqLen)
	}
	if ids[len(ids)-1] != 3 {
		t.Errorf("truncated sequence must still end with [SEP], got %d", ids[len(ids)-1])
	}
	if len(mask) != len(ids) {
		t.Errorf("mask length %d != ids length %d", len(mask), len(ids))
	}
}

func TestTokenizerMissingSpecialToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("hello\nworld\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := newTokenizer(path); err == nil {
		t.Error("expected error for vocabulary without special tokens")
	}
}
