// Package heatmap renders attribution maps as text for terminals and logs.
package heatmap

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Shade ramps from weakest to strongest. Positive and negative attributions
// use different ramps so the sign stays visible without color.
var (
	positive = []rune{' ', '.', ':', '+', '#', '@'}
	negative = []rune{' ', '.', '-', '=', '%', '&'}
)

// Render draws values, a row-major h×w map, scaled by the largest magnitude.
// It panics if len(values) != h*w.
func Render(values []float64, h, w int) string {
	if len(values) != h*w {
		panic(fmt.Sprintf("heatmap: %d values for a %dx%d map", len(values), h, w))
	}
	scale := maxAbs(values)

	var sb strings.Builder
	sb.Grow(h * (w + 1))
	for r := range h {
		for c := range w {
			sb.WriteRune(shade(values[r*w+c], scale))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SideBySide joins two renderings of equal height column by column.
func SideBySide(left, right string, gap int) string {
	l := strings.Split(strings.TrimSuffix(left, "\n"), "\n")
	r := strings.Split(strings.TrimSuffix(right, "\n"), "\n")
	width := 0
	for _, line := range l {
		width = max(width, len([]rune(line)))
	}

	var sb strings.Builder
	for i := range max(len(l), len(r)) {
		var a, b string
		if i < len(l) {
			a = l[i]
		}
		if i < len(r) {
			b = r[i]
		}
		sb.WriteString(a)
		sb.WriteString(strings.Repeat(" ", width-len([]rune(a))+gap))
		sb.WriteString(b)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Intensity renders non-negative values such as pixel intensities.
func Intensity(values []float64, h, w int) string {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return Render(abs, h, w)
}

// TopK returns the indices of the k largest values by magnitude, largest
// first. Ties keep index order.
func TopK(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(values[idx[a]]) > math.Abs(values[idx[b]])
	})
	return idx[:min(max(k, 0), len(idx))]
}

// Tokens formats one line per token: the token, its score and a signed bar.
func Tokens(tokens []string, scores []float64, width int) string {
	scale := maxAbs(scores)
	pad := 0
	for _, t := range tokens {
		pad = max(pad, len([]rune(t)))
	}

	var sb strings.Builder
	for i, t := range tokens {
		s := scores[i]
		n := 0
		if scale > 0 {
			n = int(math.Round(math.Abs(s) / scale * float64(width)))
		}
		bar := "+"
		if s < 0 {
			bar = "-"
		}
		fmt.Fprintf(&sb, "%-*s %+.4f %s\n", pad, t, s, strings.Repeat(bar, n))
	}
	return sb.String()
}

func shade(v, scale float64) rune {
	if scale == 0 || v == 0 {
		return ' '
	}
	ramp := positive
	if v < 0 {
		ramp = negative
	}
	level := int(math.Ceil(math.Abs(v) / scale * float64(len(ramp)-1)))
	return ramp[min(level, len(ramp)-1)]
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = max(m, math.Abs(v))
	}
	return m
}
