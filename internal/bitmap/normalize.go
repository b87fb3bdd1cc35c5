package bitmap

import (
	"math"

	"github.com/pkg/errors"
)

// NormalizedRadius is the radius of gyration a normalized bitmap has, as a
// fraction of its height.
const NormalizedRadius = 0.30

// ErrDegenerateInput is returned when a bitmap has no mass (or no spread) to
// compute a centroid and radius of gyration from.
var ErrDegenerateInput = errors.New("bitmap: degenerate input")

// Moments holds the raw sums the normalizer works from.
type Moments struct {
	Mass    float64 // Σ v
	MX      float64 // Σ col·v
	MY      float64 // Σ row·v
	Inertia float64 // Σ (row²+col²)·v
}

// Moments sums the zeroth, first and unnormalized second moments over every cell.
func (b *Bitmap) Moments() Moments {
	var m Moments
	for i := 0; i < b.rows; i++ {
		fi := float64(i)
		for j := 0; j < b.cols; j++ {
			v := b.data[i*b.cols+j]
			fj := float64(j)
			m.Mass += v
			m.MY += fi * v
			m.MX += fj * v
			m.Inertia += (fi*fi + fj*fj) * v
		}
	}
	return m
}

// Centroid returns the mass-weighted mean position (row, col).
func (m Moments) Centroid() (row, col float64, err error) {
	if !(m.Mass > 0) {
		return 0, 0, ErrDegenerateInput
	}
	return m.MY / m.Mass, m.MX / m.Mass, nil
}

// Normalize shifts the bitmap so its centroid sits at (rows/2, cols/2) and
// scales it so its radius of gyration is NormalizedRadius·rows, resampling
// bilinearly. The grid is replaced in place. On error the bitmap is unchanged.
func (b *Bitmap) Normalize() error {
	mom := b.Moments()
	if !(mom.Mass > 0) {
		return errors.Wrapf(ErrDegenerateInput, "zero mass in %dx%d bitmap", b.rows, b.cols)
	}

	// the centroid is truncated to whole pixels
	cx := math.Trunc(mom.MX / mom.Mass)
	cy := math.Trunc(mom.MY / mom.Mass)
	shiftX := float64(b.cols/2) - cx
	shiftY := float64(b.rows/2) - cy

	r2 := mom.Inertia/mom.Mass - cx*cx - cy*cy
	if !(r2 > 0) || math.IsInf(r2, 0) {
		return errors.Wrapf(ErrDegenerateInput, "radius of gyration %g", r2)
	}
	scale := NormalizedRadius * float64(b.rows) / math.Sqrt(r2)

	out := make([]float64, len(b.data))
	for i := 0; i < b.rows; i++ {
		srcY := (float64(i)-shiftY-cy)/scale + cy
		for j := 0; j < b.cols; j++ {
			srcX := (float64(j)-shiftX-cx)/scale + cx
			out[i*b.cols+j] = b.sample(srcY, srcX)
		}
	}
	b.data = out
	b.normalized = true
	return nil
}

// sample blends the four source pixels around (y, x). Neighbours outside
// the grid read as blank on every side.
func (b *Bitmap) sample(y, x float64) float64 {
	fy, fx := math.Floor(y), math.Floor(x)
	y0, x0 := int(fy), int(fx)
	fracY, fracX := y-fy, x-fx

	c00 := b.cell(y0, x0)
	c01 := b.cell(y0, x0+1)
	c10 := b.cell(y0+1, x0)
	c11 := b.cell(y0+1, x0+1)
	return (1-fracY)*((1-fracX)*c00+fracX*c01) + fracY*((1-fracX)*c10+fracX*c11)
}

func (b *Bitmap) cell(row, col int) float64 {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return 0
	}
	return b.data[row*b.cols+col]
}

// NormalizedCopy returns a normalized clone, leaving b untouched. A bitmap
// that is already normalized is cloned as is.
func NormalizedCopy(b *Bitmap) (*Bitmap, error) {
	c := b.Clone()
	if c.normalized {
		return c, nil
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return c, nil
}
