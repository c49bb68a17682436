package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	encodingCL100kBase = "cl100k_base"
	encodingP50kBase   = "p50k_base"
	encodingR50kBase   = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI tokenizers.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci-002, babbage-002
//
// The encoding tables are fetched by tiktoken-go on first use and cached in
// TIKTOKEN_CACHE_DIR.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a TikToken tokenizer with the named encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for a model name such as
// "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: vocab size < 2^31.
	}
	return result, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = int(tok)
	}
	return t.encoding.Decode(ids), nil
}

// VocabSize returns the vocabulary size including special tokens.
func (t *TikToken) VocabSize() int {
	switch t.name {
	case encodingCL100kBase:
		return 100277
	case encodingP50kBase:
		return 50281
	case encodingR50kBase:
		return 50257
	default:
		return 100277
	}
}

// PadToken returns <|endoftext|>, which tiktoken models use for padding.
func (t *TikToken) PadToken() int32 {
	switch t.name {
	case encodingCL100kBase:
		return 100257
	case encodingP50kBase, encodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// UnkToken returns -1: BPE has no unknown token.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// Name returns the encoding or model name.
func (t *TikToken) Name() string {
	return t.name
}
