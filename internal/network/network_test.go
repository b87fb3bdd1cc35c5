package network

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func paramsEqual(a, b Params) bool {
	return mat.Equal(a.Wh, b.Wh) && mat.Equal(a.Bh, b.Bh) &&
		mat.Equal(a.Wo, b.Wo) && mat.Equal(a.Bo, b.Bo)
}

func TestNewRejectsBadShape(t *testing.T) {
	for _, sizes := range [][3]int{{0, 2, 3}, {4, 0, 3}, {4, 2, -1}} {
		_, err := New(sizes[0], sizes[1], sizes[2], 1)
		require.ErrorIs(t, err, ErrBadShape)
	}
}

func TestInitialisationDeterministic(t *testing.T) {
	a, err := New(5, 3, 2, 42)
	require.NoError(t, err)
	b, err := New(5, 3, 2, 42)
	require.NoError(t, err)
	c, err := New(5, 3, 2, 43)
	require.NoError(t, err)

	assert.True(t, paramsEqual(a.Params(), b.Params()))
	assert.False(t, paramsEqual(a.Params(), c.Params()))

	nIn, nHidden, nOut := a.Sizes()
	assert.Equal(t, [3]int{5, 3, 2}, [3]int{nIn, nHidden, nOut})
}

func TestInitialWeightsAreSmall(t *testing.T) {
	e, err := New(64, 16, 8, 7)
	require.NoError(t, err)
	p := e.Params()

	var sum, sumSq float64
	n := 0
	r, c := p.Wh.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := p.Wh.At(i, j)
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	std := math.Sqrt(sumSq/float64(n) - mean*mean)
	assert.InDelta(t, 0, mean, 0.02)
	assert.InDelta(t, InitStdDev, std, 0.02)
}

func TestForwardOutputsInOpenUnitInterval(t *testing.T) {
	e, err := New(4, 3, 5, 1)
	require.NoError(t, err)

	for _, in := range [][]float64{
		{0, 0, 0, 0},
		{1, -1, 0.5, 2},
		{1e6, 1e6, 1e6, 1e6},
		{-1e6, -1e6, -1e6, -1e6},
		{math.MaxFloat64 / 8, 0, 0, -math.MaxFloat64 / 8},
	} {
		out, err := e.Forward(in)
		require.NoError(t, err)
		require.Len(t, out, 5)
		for _, v := range out {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestShapeMismatchLeavesStateUntouched(t *testing.T) {
	e, err := New(4, 2, 3, 9)
	require.NoError(t, err)
	before := e.Params()

	_, err = e.Forward([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = e.Error([]float64{1, 2, 3, 4}, []float64{1, 0})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = e.Train([]float64{1, 2, 3, 4, 5}, []float64{1, 0, 0}, 0.5)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = e.Train([]float64{1, 2, 3, 4}, []float64{1, 0, 0, 0}, 0.5)
	require.ErrorIs(t, err, ErrShapeMismatch)

	assert.True(t, paramsEqual(before, e.Params()))
}

func TestErrorDoesNotTrain(t *testing.T) {
	e, err := New(4, 2, 3, 3)
	require.NoError(t, err)
	before := e.Params()

	x := []float64{1, 0, 1, 0}
	d := []float64{0, 1, 0}
	first, err := e.Error(x, d)
	require.NoError(t, err)
	second, err := e.Error(x, d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, paramsEqual(before, e.Params()))
}

func TestTrainSingleStepMatchesHandComputation(t *testing.T) {
	e, err := FromParams(Params{
		Wh: mat.NewDense(1, 1, []float64{0.5}),
		Bh: mat.NewVecDense(1, []float64{0.1}),
		Wo: mat.NewDense(1, 1, []float64{-0.3}),
		Bo: mat.NewVecDense(1, []float64{0.2}),
	})
	require.NoError(t, err)

	const eta = 0.7
	x, d := 2.0, 1.0
	h := 1 / (1 + math.Exp(-(0.5*x + 0.1)))
	o := 1 / (1 + math.Exp(-(-0.3*h + 0.2)))
	deltaO := (d - o) * o * (1 - o)
	deltaH := deltaO * -0.3 * h * (1 - h)

	rmse, err := e.Train([]float64{x}, []float64{d}, eta)
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(d-o), rmse, 1e-12)

	p := e.Params()
	assert.InDelta(t, -0.3+eta*deltaO*h, p.Wo.At(0, 0), 1e-12)
	assert.InDelta(t, 0.2+eta*deltaO, p.Bo.AtVec(0), 1e-12)
	assert.InDelta(t, 0.5+eta*deltaH*x, p.Wh.At(0, 0), 1e-12)
	assert.InDelta(t, 0.1+eta*deltaH, p.Bh.AtVec(0), 1e-12)
}

func TestTrainConvergesOnSinglePair(t *testing.T) {
	e, err := New(4, 2, 3, 2024)
	require.NoError(t, err)

	x := []float64{1, 0, 1, 0.5}
	d := []float64{0, 1, 0}
	prev, err := e.Error(x, d)
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		_, err := e.Train(x, d, 0.2)
		require.NoError(t, err)
		cur, err := e.Error(x, d)
		require.NoError(t, err)
		require.LessOrEqual(t, cur, prev+1e-12, "iteration %d", i)
		prev = cur
	}
	assert.Less(t, prev, 0.05)
}

func TestTrainDeterministic(t *testing.T) {
	a, err := New(3, 4, 2, 11)
	require.NoError(t, err)
	b, err := New(3, 4, 2, 11)
	require.NoError(t, err)

	inputs := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	targets := [][]float64{{1, 0}, {0, 1}, {1, 0}}
	for i := 0; i < 50; i++ {
		k := i % len(inputs)
		ea, err := a.Train(inputs[k], targets[k], 0.7)
		require.NoError(t, err)
		eb, err := b.Train(inputs[k], targets[k], 0.7)
		require.NoError(t, err)
		require.Equal(t, ea, eb)
	}
	assert.True(t, paramsEqual(a.Params(), b.Params()))
}

func TestParamsRoundTrip(t *testing.T) {
	e, err := New(6, 4, 3, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = e.Params().WriteTo(&buf)
	require.NoError(t, err)

	p, err := ReadParams(&buf)
	require.NoError(t, err)
	restored, err := FromParams(p)
	require.NoError(t, err)
	assert.True(t, paramsEqual(e.Params(), restored.Params()))

	in := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	want, err := e.Forward(in)
	require.NoError(t, err)
	got, err := restored.Forward(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadParamsTruncated(t *testing.T) {
	e, err := New(2, 2, 2, 5)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = e.Params().WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadParams(bytes.NewReader(buf.Bytes()[:buf.Len()-4]))
	require.Error(t, err)
}

func TestFromParamsRejectsInconsistentShapes(t *testing.T) {
	_, err := FromParams(Params{
		Wh: mat.NewDense(2, 3, nil),
		Bh: mat.NewVecDense(3, nil),
		Wo: mat.NewDense(1, 2, nil),
		Bo: mat.NewVecDense(1, nil),
	})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FromParams(Params{})
	require.ErrorIs(t, err, ErrShapeMismatch)
}
