package tokenizer

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Reserved word vocabulary entries.
const (
	PadWord = "<pad>"
	UnkWord = "<unk>"
)

// WordVocab is a closed word-level vocabulary. Id 0 is <pad>, id 1 is <unk>.
type WordVocab struct {
	index map[string]int32
	words []string
}

// NewWordVocab creates a vocabulary from words in the given order.
// Words are normalised; duplicates after normalisation are dropped.
func NewWordVocab(words []string) *WordVocab {
	v := &WordVocab{
		index: map[string]int32{PadWord: 0, UnkWord: 1},
		words: []string{PadWord, UnkWord},
	}
	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		if _, ok := v.index[w]; ok {
			continue
		}
		v.index[w] = int32(len(v.words)) //nolint:gosec // G115: vocabulary is small.
		v.words = append(v.words, w)
	}
	return v
}

// BuildWordVocab collects every word occurring at least minCount times in
// texts, most frequent first and alphabetically within a count.
func BuildWordVocab(texts []string, minCount int) *WordVocab {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, w := range Split(text) {
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w, c := range counts {
		if c >= minCount {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	return NewWordVocab(words)
}

// Normalize applies NFKC normalisation and Unicode case folding.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// Split normalises text and breaks it into words. Letters, digits and
// apostrophes form words; everything else separates them.
func Split(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Encode maps each word to its id, or <unk>.
func (v *WordVocab) Encode(text string) ([]int32, error) {
	words := Split(text)
	ids := make([]int32, len(words))
	for i, w := range words {
		id, ok := v.index[w]
		if !ok {
			id = 1
		}
		ids[i] = id
	}
	return ids, nil
}

// Decode joins the words for ids with spaces, skipping padding.
func (v *WordVocab) Decode(tokens []int32) (string, error) {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id == 0 {
			continue
		}
		words = append(words, v.Word(id))
	}
	return strings.Join(words, " "), nil
}

// Word returns the word for id, or <unk> when id is out of range.
func (v *WordVocab) Word(id int32) string {
	if id < 0 || int(id) >= len(v.words) {
		return UnkWord
	}
	return v.words[id]
}

// Words returns the vocabulary in id order.
func (v *WordVocab) Words() []string {
	return append([]string(nil), v.words...)
}

// VocabSize returns the number of entries including <pad> and <unk>.
func (v *WordVocab) VocabSize() int { return len(v.words) }

// PadToken returns 0.
func (v *WordVocab) PadToken() int32 { return 0 }

// UnkToken returns 1.
func (v *WordVocab) UnkToken() int32 { return 1 }

// Name returns "words".
func (v *WordVocab) Name() string { return "words" }
