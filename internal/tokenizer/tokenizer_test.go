package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAndSplit(t *testing.T) {
	assert.Equal(t, "strasse", Normalize("STRASSE"))
	assert.Equal(t, "fine", Normalize("ﬁne")) // NFKC expands the ligature
	assert.Equal(t, []string{"don't", "stop", "2", "me"}, Split("Don't STOP, 2 me!"))
	assert.Empty(t, Split("  ...  "))
}

func TestWordVocab(t *testing.T) {
	v := NewWordVocab([]string{"Good", "bad", "good", ""})
	assert.Equal(t, 4, v.VocabSize())
	assert.Equal(t, []string{PadWord, UnkWord, "good", "bad"}, v.Words())
	assert.Equal(t, int32(0), v.PadToken())
	assert.Equal(t, int32(1), v.UnkToken())

	ids, err := v.Encode("GOOD, not bad")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 1, 3}, ids)

	text, err := v.Decode([]int32{2, 0, 3, 99})
	require.NoError(t, err)
	assert.Equal(t, "good bad <unk>", text)
}

func TestBuildWordVocab(t *testing.T) {
	v := BuildWordVocab([]string{"b a b", "c b a", "d"}, 2)
	assert.Equal(t, []string{PadWord, UnkWord, "b", "a"}, v.Words())
}

func TestPadBatch(t *testing.T) {
	v := NewWordVocab([]string{"great", "film", "awful"})

	b, err := PadBatch(v, []string{"great film", "awful awful awful film"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Rows)
	assert.Equal(t, 3, b.Cols)
	assert.Equal(t, []float32{2, 3, 0, 4, 4, 4}, b.IDs)
	assert.Equal(t, []int{2, 3}, b.Lengths)
	assert.Equal(t, []string{"great", "film", PadWord}, b.Tokens[0])

	b, err = PadBatch(v, []string{"film", "great great"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Cols)
	assert.Equal(t, []float32{3, 0, 2, 2}, b.IDs)
}

type noPad struct{ *WordVocab }

func (noPad) PadToken() int32 { return -1 }

func TestPadBatchWithoutPad(t *testing.T) {
	_, err := PadBatch(noPad{NewWordVocab(nil)}, []string{"x"}, 2)
	assert.ErrorIs(t, err, ErrNoPadToken)
}

func TestTikToken_InvalidEncoding(t *testing.T) {
	tok, err := NewTikToken("invalid_encoding_xyz")
	assert.Error(t, err)
	assert.Nil(t, tok)
}

func TestTikToken_Roundtrip(t *testing.T) {
	tok, err := NewTikToken("cl100k_base")
	if err != nil {
		t.Skipf("cl100k_base unavailable: %v", err)
	}
	var _ Tokenizer = tok

	tests := []string{"Hello, world!", "Integrated gradients", "  spaces  "}
	for _, text := range tests {
		ids, err := tok.Encode(text)
		require.NoError(t, err)
		assert.NotEmpty(t, ids)
		out, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, out)
	}

	b, err := PadBatch(tok, []string{"hi", "hello there friend"}, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(tok.PadToken()), b.IDs[b.Cols-1])
	assert.Less(t, int(tok.PadToken()), tok.VocabSize())
}
