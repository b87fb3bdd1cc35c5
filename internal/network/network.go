// Package network implements a single-hidden-layer sigmoid network trained by
// online error backpropagation.
package network

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrBadShape is returned when a layer size is not positive.
	ErrBadShape = errors.New("network: layer sizes must be > 0")

	// ErrShapeMismatch is returned when an input or target vector does not
	// match the configured layer sizes. No state is touched in that case.
	ErrShapeMismatch = errors.New("network: shape mismatch")
)

// InitStdDev is the standard deviation of the Gaussian used for initial weights.
const InitStdDev = 0.1

// saturation keeps sigmoid outputs strictly inside (0,1).
const saturation = 1e-12

// NewRand returns the seeded stream the engine and training loop draw from.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Engine holds the weights of an nIn→nHidden→nOut network and the
// activations of the last forward pass.
type Engine struct {
	nIn, nHidden, nOut int

	wh *mat.Dense    // nHidden × nIn
	bh *mat.VecDense // nHidden
	wo *mat.Dense    // nOut × nHidden
	bo *mat.VecDense // nOut

	hidden *mat.VecDense
	output *mat.VecDense
}

// New builds an engine initialised from a stream seeded with seed.
func New(nIn, nHidden, nOut int, seed int64) (*Engine, error) {
	return NewWithRand(nIn, nHidden, nOut, NewRand(seed))
}

// NewWithRand builds an engine drawing its initial weights from rng. Draws
// happen in a fixed order: for each hidden unit its input weights then its
// bias, then for each output unit its hidden weights then its bias.
func NewWithRand(nIn, nHidden, nOut int, rng *rand.Rand) (*Engine, error) {
	e, err := alloc(nIn, nHidden, nOut)
	if err != nil {
		return nil, err
	}
	normal := distuv.Normal{Mu: 0, Sigma: InitStdDev, Src: rng}
	for q := 0; q < nHidden; q++ {
		for j := 0; j < nIn; j++ {
			e.wh.Set(q, j, normal.Rand())
		}
		e.bh.SetVec(q, normal.Rand())
	}
	for k := 0; k < nOut; k++ {
		for q := 0; q < nHidden; q++ {
			e.wo.Set(k, q, normal.Rand())
		}
		e.bo.SetVec(k, normal.Rand())
	}
	return e, nil
}

func alloc(nIn, nHidden, nOut int) (*Engine, error) {
	if nIn <= 0 || nHidden <= 0 || nOut <= 0 {
		return nil, errors.Wrapf(ErrBadShape, "%d-%d-%d", nIn, nHidden, nOut)
	}
	return &Engine{
		nIn:     nIn,
		nHidden: nHidden,
		nOut:    nOut,
		wh:      mat.NewDense(nHidden, nIn, nil),
		bh:      mat.NewVecDense(nHidden, nil),
		wo:      mat.NewDense(nOut, nHidden, nil),
		bo:      mat.NewVecDense(nOut, nil),
		hidden:  mat.NewVecDense(nHidden, nil),
		output:  mat.NewVecDense(nOut, nil),
	}, nil
}

// Sizes returns the input, hidden and output layer sizes.
func (e *Engine) Sizes() (nIn, nHidden, nOut int) {
	return e.nIn, e.nHidden, e.nOut
}

func sigmoid(x float64) float64 {
	y := 1 / (1 + math.Exp(-x))
	return math.Min(math.Max(y, saturation), 1-saturation)
}

// sigmoidDeriv is σ' expressed through the unit's own output y.
func sigmoidDeriv(y float64) float64 {
	return y * (1 - y)
}

func activate(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, sigmoid(v.AtVec(i)))
	}
}

func (e *Engine) checkInput(input []float64) error {
	if len(input) != e.nIn {
		return errors.Wrapf(ErrShapeMismatch, "input has %d values, want %d", len(input), e.nIn)
	}
	return nil
}

func (e *Engine) checkTarget(target []float64) error {
	if len(target) != e.nOut {
		return errors.Wrapf(ErrShapeMismatch, "target has %d values, want %d", len(target), e.nOut)
	}
	return nil
}

func (e *Engine) forward(x *mat.VecDense) {
	e.hidden.MulVec(e.wh, x)
	e.hidden.AddVec(e.hidden, e.bh)
	activate(e.hidden)

	e.output.MulVec(e.wo, e.hidden)
	e.output.AddVec(e.output, e.bo)
	activate(e.output)
}

// Forward evaluates the network and returns a copy of the output activations.
// The hidden and output activations are kept for the next backprop step.
func (e *Engine) Forward(input []float64) ([]float64, error) {
	if err := e.checkInput(input); err != nil {
		return nil, err
	}
	e.forward(mat.NewVecDense(e.nIn, input))
	return mat.Col(nil, 0, e.output), nil
}

func (e *Engine) rmse(target []float64) float64 {
	return floats.Distance(target, e.output.RawVector().Data, 2) / math.Sqrt(float64(e.nOut))
}

// Error runs a forward pass and returns the RMS error against target
// without changing any weight.
func (e *Engine) Error(input, target []float64) (float64, error) {
	if err := e.checkInput(input); err != nil {
		return 0, err
	}
	if err := e.checkTarget(target); err != nil {
		return 0, err
	}
	e.forward(mat.NewVecDense(e.nIn, input))
	return e.rmse(target), nil
}

// Train presents one (input, target) pair, adjusts every weight and bias
// immediately by gradient descent with learning rate eta, and returns the RMS
// error measured before the update.
func (e *Engine) Train(input, target []float64, eta float64) (float64, error) {
	if err := e.checkInput(input); err != nil {
		return 0, err
	}
	if err := e.checkTarget(target); err != nil {
		return 0, err
	}
	x := mat.NewVecDense(e.nIn, input)
	e.forward(x)
	rmse := e.rmse(target)

	deltaO := mat.NewVecDense(e.nOut, nil)
	for k := 0; k < e.nOut; k++ {
		o := e.output.AtVec(k)
		deltaO.SetVec(k, (target[k]-o)*sigmoidDeriv(o))
	}

	// hidden deltas go through the output weights before they change
	deltaH := mat.NewVecDense(e.nHidden, nil)
	deltaH.MulVec(e.wo.T(), deltaO)
	for q := 0; q < e.nHidden; q++ {
		deltaH.SetVec(q, deltaH.AtVec(q)*sigmoidDeriv(e.hidden.AtVec(q)))
	}

	e.wo.RankOne(e.wo, eta, deltaO, e.hidden)
	e.bo.AddScaledVec(e.bo, eta, deltaO)
	e.wh.RankOne(e.wh, eta, deltaH, x)
	e.bh.AddScaledVec(e.bh, eta, deltaH)

	return rmse, nil
}
