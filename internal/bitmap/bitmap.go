package bitmap

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrBadShape is returned when a bitmap is requested with negative dimensions.
	ErrBadShape = errors.New("bitmap: invalid shape")

	// ErrOutOfRange indicates a row or column outside the grid.
	ErrOutOfRange = errors.New("bitmap: index out of range")
)

// maxCells bounds rows*cols so the product fits an int.
const maxCells = math.MaxInt32

// Bitmap is a rows×cols grid of pixel intensities stored row-major.
type Bitmap struct {
	rows, cols int
	data       []float64
	normalized bool
}

// New returns an all-zero bitmap. Zero rows or columns are allowed.
func New(rows, cols int) (*Bitmap, error) {
	if rows < 0 || cols < 0 || (cols != 0 && rows > maxCells/cols) {
		return nil, errors.Wrapf(ErrBadShape, "%dx%d", rows, cols)
	}
	return &Bitmap{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromFloats builds a bitmap from a row-major slice, which is copied.
func FromFloats(rows, cols int, values []float64) (*Bitmap, error) {
	b, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(values) != rows*cols {
		return nil, errors.Wrapf(ErrBadShape, "%dx%d needs %d values, got %d", rows, cols, rows*cols, len(values))
	}
	copy(b.data, values)
	return b, nil
}

// Rows returns the number of rows.
func (b *Bitmap) Rows() int { return b.rows }

// Cols returns the number of columns.
func (b *Bitmap) Cols() int { return b.cols }

// IsNormalized reports whether Normalize has been applied since the last reset.
func (b *Bitmap) IsNormalized() bool { return b.normalized }

func (b *Bitmap) index(row, col int) (int, error) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return 0, errors.Wrapf(ErrOutOfRange, "(%d,%d) in %dx%d", row, col, b.rows, b.cols)
	}
	return row*b.cols + col, nil
}

// At returns the intensity at (row, col).
func (b *Bitmap) At(row, col int) (float64, error) {
	idx, err := b.index(row, col)
	if err != nil {
		return 0, err
	}
	return b.data[idx], nil
}

// SetValue stores an arbitrary intensity at (row, col) and clears the
// normalized flag.
func (b *Bitmap) SetValue(row, col int, v float64) error {
	idx, err := b.index(row, col)
	if err != nil {
		return err
	}
	b.data[idx] = v
	b.normalized = false
	return nil
}

// Set turns the cell at (row, col) on (1) or off (0).
func (b *Bitmap) Set(row, col int, on bool) error {
	v := 0.0
	if on {
		v = 1
	}
	return b.SetValue(row, col, v)
}

// Get reports whether the cell is on. Cells outside the grid are off.
func (b *Bitmap) Get(row, col int) bool {
	v, err := b.At(row, col)
	return err == nil && v > 0
}

// Blank zeroes every cell and clears the normalized flag.
func (b *Bitmap) Blank() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.normalized = false
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	data := make([]float64, len(b.data))
	copy(data, b.data)
	return &Bitmap{rows: b.rows, cols: b.cols, data: data, normalized: b.normalized}
}

// Floats flattens the grid row-major. A bitmap without rows yields nil.
func (b *Bitmap) Floats() []float64 {
	if b.rows == 0 {
		return nil
	}
	out := make([]float64, len(b.data))
	copy(out, b.data)
	return out
}

// Bools flattens the grid row-major into on/off flags.
func (b *Bitmap) Bools() []bool {
	if b.rows == 0 {
		return nil
	}
	out := make([]bool, len(b.data))
	for i, v := range b.data {
		out[i] = v > 0
	}
	return out
}

// String renders the bitmap in the same token format Parse accepts.
func (b *Bitmap) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(b.rows))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.cols))
	for _, v := range b.data {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
