package tokenizer

import (
	"errors"
	"fmt"
)

// ErrNoPadToken is returned by PadBatch for tokenizers without padding.
var ErrNoPadToken = errors.New("tokenizer has no pad token")

// Batch is a padded id matrix in row-major order.
type Batch struct {
	IDs     []float32  // Rows*Cols ids, stored as float32 for Embedding inputs
	Rows    int
	Cols    int
	Lengths []int      // unpadded length per row
	Tokens  [][]string // display strings per row, padding included
}

// PadBatch encodes texts and pads or truncates every row to maxLen. With
// maxLen <= 0 the longest row sets the width.
func PadBatch(tok Tokenizer, texts []string, maxLen int) (*Batch, error) {
	pad := tok.PadToken()
	if pad < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPadToken, tok.Name())
	}

	encoded := make([][]int32, len(texts))
	width := maxLen
	for i, text := range texts {
		ids, err := tok.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		encoded[i] = ids
		if maxLen <= 0 && len(ids) > width {
			width = len(ids)
		}
	}
	if width <= 0 {
		width = 1
	}

	padString, err := tokenString(tok, pad)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		IDs:     make([]float32, len(texts)*width),
		Rows:    len(texts),
		Cols:    width,
		Lengths: make([]int, len(texts)),
		Tokens:  make([][]string, len(texts)),
	}
	for i, ids := range encoded {
		n := min(len(ids), width)
		b.Lengths[i] = n
		row := b.IDs[i*width : (i+1)*width]
		b.Tokens[i] = make([]string, width)
		for j := range width {
			id := pad
			if j < n {
				id = ids[j]
			}
			row[j] = float32(id)
			if j >= n {
				b.Tokens[i][j] = padString
				continue
			}
			s, err := tokenString(tok, id)
			if err != nil {
				return nil, err
			}
			b.Tokens[i][j] = s
		}
	}
	return b, nil
}

func tokenString(tok Tokenizer, id int32) (string, error) {
	if v, ok := tok.(*WordVocab); ok {
		return v.Word(id), nil
	}
	s, err := tok.Decode([]int32{id})
	if err != nil {
		return "", fmt.Errorf("decode token %d: %w", id, err)
	}
	return s, nil
}
