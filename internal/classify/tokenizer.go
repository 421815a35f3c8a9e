package classify

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxSeqLen      = 512
	maxCharsPerTok = 100

	clsToken = "[CLS]"
	sepToken = "[SEP]"
	unkToken = "[UNK]"
)

// tokenizer implements WordPiece tokenization against a BERT-style
// vocabulary file (one token per line, line number = token id).
type tokenizer struct {
	vocab map[string]int64
	clsID int64
	sepID int64
	unkID int64
}

func newTokenizer(vocabPath string) (*tokenizer, error) {
	vocab, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	t := &tokenizer{vocab: vocab}
	for _, special := range []struct {
		name string
		id   *int64
	}{
		{clsToken, &t.clsID},
		{sepToken, &t.sepID},
		{unkToken, &t.unkID},
	} {
		id, ok := vocab[special.name]
		if !ok {
			return nil, fmt.Errorf("vocabulary missing %s token", special.name)
		}
		*special.id = id
	}
	return t, nil
}

func loadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		vocab[token] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary at %s is empty", path)
	}
	return vocab, nil
}

// tokenize converts text into model inputs. Output is [CLS] tokens... [SEP],
// truncated to the model's maximum span. The attention mask covers the real
// sequence; we run one text at a time so there is no padding.
func (t *tokenizer) tokenize(text string) (ids, mask []int64) {
	ids = make([]int64, 0, 64)
	ids = append(ids, t.clsID)

	for _, word := range basicTokenize(text) {
		for _, piece := range t.wordPiece(word) {
			if len(ids) >= maxSeqLen-1 {
				break
			}
			ids = append(ids, piece)
		}
		if len(ids) >= maxSeqLen-1 {
			break
		}
	}
	ids = append(ids, t.sepID)

	mask = make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return ids, mask
}

// basicTokenize lowercases, strips accents, and splits on whitespace and
// punctuation, with each punctuation rune becoming its own token.
func basicTokenize(text string) []string {
	text = strings.ToLower(norm.NFD.String(text))

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from NFD decomposition.
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// wordPiece splits a word into subword ids using greedy longest-match-first.
// Non-initial pieces carry the "##" continuation prefix. Words the
// vocabulary cannot represent map to a single [UNK].
func (t *tokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxCharsPerTok {
		return []int64{t.unkID}
	}

	var pieces []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		var match int64
		found := false
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = "##" + candidate
			}
			if id, ok := t.vocab[candidate]; ok {
				match = id
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.unkID}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}
