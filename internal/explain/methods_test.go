package explain

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestApproximationParameters(t *testing.T) {
	tests := []struct {
		method  Method
		n       int
		alphas  []float64
		weights []float64
	}{
		{RiemannLeft, 4, []float64{0, 0.25, 0.5, 0.75}, []float64{0.25, 0.25, 0.25, 0.25}},
		{RiemannRight, 4, []float64{0.25, 0.5, 0.75, 1}, []float64{0.25, 0.25, 0.25, 0.25}},
		{RiemannMiddle, 4, []float64{0.125, 0.375, 0.625, 0.875}, []float64{0.25, 0.25, 0.25, 0.25}},
		{RiemannTrapezoid, 5, []float64{0, 0.25, 0.5, 0.75, 1}, []float64{0.125, 0.25, 0.25, 0.25, 0.125}},
		{GaussLegendre, 2, []float64{0.5 - 0.5/math.Sqrt(3), 0.5 + 0.5/math.Sqrt(3)}, []float64{0.5, 0.5}},
		{RiemannLeft, 1, []float64{0}, []float64{1}},
		{RiemannRight, 1, []float64{1}, []float64{1}},
		{RiemannMiddle, 1, []float64{0.5}, []float64{1}},
		{GaussLegendre, 1, []float64{0.5}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			alphas, weights, err := ApproximationParameters(tt.method, tt.n)
			require.NoError(t, err)
			sort.Float64s(alphas)
			assert.InDeltaSlice(t, tt.alphas, alphas, 1e-12)
			assert.InDeltaSlice(t, tt.weights, weights, 1e-12)
		})
	}
}

func TestApproximationParameters_WeightsSumToOne(t *testing.T) {
	for _, m := range Methods() {
		for _, n := range []int{2, 3, 10, 50, 128} {
			alphas, weights, err := ApproximationParameters(m, n)
			require.NoError(t, err)
			require.Len(t, alphas, n)
			assert.InDelta(t, 1.0, floats.Sum(weights), 1e-9, "%s n=%d", m, n)
			for _, a := range alphas {
				assert.True(t, a >= 0 && a <= 1, "%s n=%d alpha %v", m, n, a)
			}
		}
	}
}

func TestGaussLegendreIsExactForPolynomials(t *testing.T) {
	const n = 5
	alphas, weights, err := ApproximationParameters(GaussLegendre, n)
	require.NoError(t, err)
	for k := 0; k < 2*n; k++ {
		var got float64
		for i, a := range alphas {
			got += weights[i] * math.Pow(a, float64(k))
		}
		assert.InDelta(t, 1/float64(k+1), got, 1e-12, "degree %d", k)
	}
}

func TestApproximationParameters_Errors(t *testing.T) {
	_, _, err := ApproximationParameters(GaussLegendre, 0)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, _, err = ApproximationParameters(RiemannTrapezoid, 1)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, _, err = ApproximationParameters("simpson", 10)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, GaussLegendre, m)

	for _, want := range Methods() {
		got, err := ParseMethod(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseMethod("riemann")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.ErrorIs(t, Config{Method: "x"}.Validate(), ErrInvalidMethod)
	assert.ErrorIs(t, Config{NSteps: -1}.Validate(), ErrInvalidSteps)
	assert.ErrorIs(t, Config{Method: RiemannTrapezoid, NSteps: 1}.Validate(), ErrInvalidSteps)
	assert.ErrorIs(t, Config{InternalBatchSize: -5}.Validate(), ErrInvalidBatchSize)

	c := Config{}.withDefaults()
	assert.Equal(t, GaussLegendre, c.Method)
	assert.Equal(t, DefaultNSteps, c.NSteps)
	assert.Equal(t, DefaultInternalBatchSize, c.InternalBatchSize)
	assert.NotNil(t, c.Logger)
}

func TestArgmaxTarget(t *testing.T) {
	targets, err := ArgmaxTarget(Array{Shape: []int{2, 3}, Values: []float64{0, 5, 1, 9, 2, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, targets)

	targets, err = ArgmaxTarget(Array{Shape: []int{2}, Values: []float64{3, -1}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, targets)

	_, err = ArgmaxTarget(Array{Shape: []int{1, 2, 2}, Values: make([]float64, 4)})
	assert.ErrorIs(t, err, ErrUnsupportedOutput)
}
