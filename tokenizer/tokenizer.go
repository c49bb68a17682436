// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer turns text into token ids for embedding models.
//
// TikToken wraps OpenAI's BPE encodings; WordVocab is a closed vocabulary of
// normalised words suited to small classifiers.
package tokenizer

import (
	"github.com/born-ml/explain/internal/tokenizer"
)

// Tokenizer converts between text and token ids.
type Tokenizer = tokenizer.Tokenizer

// TikToken is a BPE tokenizer backed by tiktoken-go.
type TikToken = tokenizer.TikToken

// NewTikToken loads a tiktoken encoding such as "cl100k_base".
func NewTikToken(encoding string) (*TikToken, error) {
	return tokenizer.NewTikToken(encoding)
}

// NewTikTokenForModel loads the encoding used by an OpenAI model name.
func NewTikTokenForModel(model string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(model)
}

// WordVocab maps normalised words to ids.
type WordVocab = tokenizer.WordVocab

// Reserved words of a WordVocab.
const (
	PadWord = tokenizer.PadWord
	UnkWord = tokenizer.UnkWord
)

// NewWordVocab builds a vocabulary from words after the reserved entries.
func NewWordVocab(words []string) *WordVocab {
	return tokenizer.NewWordVocab(words)
}

// BuildWordVocab collects every word seen at least minCount times in texts.
func BuildWordVocab(texts []string, minCount int) *WordVocab {
	return tokenizer.BuildWordVocab(texts, minCount)
}

// Normalize applies NFKC and case folding.
func Normalize(text string) string { return tokenizer.Normalize(text) }

// Split normalises text and splits it into words.
func Split(text string) []string { return tokenizer.Split(text) }

// Batch is a padded id matrix.
type Batch = tokenizer.Batch

// ErrNoPadToken is returned by PadBatch for tokenizers without a pad id.
var ErrNoPadToken = tokenizer.ErrNoPadToken

// PadBatch encodes texts into a [len(texts), maxLen] id matrix.
func PadBatch(tok Tokenizer, texts []string, maxLen int) (*Batch, error) {
	return tokenizer.PadBatch(tok, texts, maxLen)
}
