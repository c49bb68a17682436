package heatmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out := Render([]float64{0, 1, -1, 0.1}, 2, 2)
	assert.Equal(t, " @\n&.\n", out)

	assert.Equal(t, "  \n", Render([]float64{0, 0}, 1, 2))
	assert.Panics(t, func() { Render([]float64{1}, 2, 2) })
}

func TestIntensity(t *testing.T) {
	assert.Equal(t, "@@\n", Intensity([]float64{-2, 2}, 1, 2))
}

func TestSideBySide(t *testing.T) {
	out := SideBySide("ab\nc\n", "x\ny\nz\n", 1)
	assert.Equal(t, "ab x\nc  y\n   z\n", out)
}

func TestTopK(t *testing.T) {
	values := []float64{0.1, -3, 2, 3, 0}
	assert.Equal(t, []int{1, 3, 2}, TopK(values, 3))
	assert.Len(t, TopK(values, 10), 5)
	assert.Empty(t, TopK(values, -1))
}

func TestTokens(t *testing.T) {
	out := Tokens([]string{"great", "bad"}, []float64{0.5, -1}, 4)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, []string{
		"great +0.5000 ++",
		"bad   -1.0000 ----",
	}, lines)
}
