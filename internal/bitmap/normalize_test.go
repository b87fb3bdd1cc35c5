package bitmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(t *testing.T, rows, cols int) *Bitmap {
	t.Helper()
	b, err := New(rows, cols)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			require.NoError(t, b.Set(i, j, true))
		}
	}
	return b
}

func TestNormalizeZeroMass(t *testing.T) {
	b, err := New(4, 4)
	require.NoError(t, err)

	err = b.Normalize()
	require.ErrorIs(t, err, ErrDegenerateInput)
	assert.False(t, b.IsNormalized())
	assert.Equal(t, make([]float64, 16), b.Floats())

	empty, err := New(0, 0)
	require.NoError(t, err)
	require.ErrorIs(t, empty.Normalize(), ErrDegenerateInput)
}

func TestNormalizeSinglePixelIsDegenerate(t *testing.T) {
	b, err := New(5, 5)
	require.NoError(t, err)
	require.NoError(t, b.Set(2, 3, true))

	require.ErrorIs(t, b.Normalize(), ErrDegenerateInput)
	assert.True(t, b.Get(2, 3))
}

func TestNormalizeNearFixpoint(t *testing.T) {
	// centroid (5,5), radius of gyration 3 == 0.30*10
	b, err := New(10, 10)
	require.NoError(t, err)
	for _, p := range [][2]int{{5, 8}, {5, 2}, {8, 5}, {2, 5}} {
		require.NoError(t, b.Set(p[0], p[1], true))
	}
	before := b.Floats()

	require.NoError(t, b.Normalize())
	after := b.Floats()
	require.Len(t, after, len(before))
	for i := range before {
		assert.InDelta(t, before[i], after[i], 1e-9, "pixel %d", i)
	}
}

func TestNormalizeFilledSquare(t *testing.T) {
	b := filled(t, 3, 3)
	require.NoError(t, b.Normalize())
	require.True(t, b.IsNormalized())

	row, col, err := b.Moments().Centroid()
	require.NoError(t, err)
	// centre of the middle pixel
	assert.InDelta(t, float64(b.Rows()-1)/2, row, 0.5)
	assert.InDelta(t, float64(b.Cols()-1)/2, col, 0.5)
}

func TestNormalizeBorders(t *testing.T) {
	// scale < 1 on a filled 3x3 samples row/column 0 at -0.283 and
	// row/column 2 at 2.283; both borders must fade by the same amount
	b := filled(t, 3, 3)
	require.NoError(t, b.Normalize())

	edge := 2 - math.Sqrt(4.0/3.0)/0.9
	profile := []float64{edge, 1, edge}
	got := b.Floats()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, profile[i]*profile[j], got[i*3+j], 1e-9, "pixel (%d,%d)", i, j)
		}
	}
	assert.InDelta(t, got[0], got[8], 1e-12)
	assert.InDelta(t, got[2], got[6], 1e-12)
}

func TestSampleOutsideGrid(t *testing.T) {
	b := filled(t, 2, 2)
	assert.Equal(t, 0.0, b.sample(-1.5, 0))
	assert.Equal(t, 0.0, b.sample(0, 2.5))
	assert.InDelta(t, 0.5, b.sample(-0.5, 0), 1e-12)
	assert.InDelta(t, 0.5, b.sample(1.5, 1), 1e-12)
	assert.InDelta(t, 1.0, b.sample(0.5, 0.5), 1e-12)
}

func TestNormalizeKeepsShapeAndFinite(t *testing.T) {
	b, err := Parse("4 6 0 1 1 0 0 0 0 1 1 1 0 0 0 0 1 1 0 0 0 0 0 1 0 0")
	require.NoError(t, err)
	require.NoError(t, b.Normalize())
	assert.Equal(t, 4, b.Rows())
	assert.Equal(t, 6, b.Cols())
	for _, v := range b.Floats() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0+1e-12)
	}
}

func TestNormalizedCopyLeavesInput(t *testing.T) {
	b := filled(t, 3, 3)
	c, err := NormalizedCopy(b)
	require.NoError(t, err)
	assert.True(t, c.IsNormalized())
	assert.False(t, b.IsNormalized())
	assert.Equal(t, 9.0, b.Moments().Mass)

	again, err := NormalizedCopy(c)
	require.NoError(t, err)
	assert.Equal(t, c.Floats(), again.Floats())

	blank, err := New(2, 2)
	require.NoError(t, err)
	_, err = NormalizedCopy(blank)
	require.ErrorIs(t, err, ErrDegenerateInput)
}
