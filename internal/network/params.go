package network

import (
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Params is a detached copy of an engine's weights and biases.
type Params struct {
	Wh *mat.Dense    // hidden × input
	Bh *mat.VecDense // hidden
	Wo *mat.Dense    // output × hidden
	Bo *mat.VecDense // output
}

// Params returns a deep copy of the current weights and biases.
func (e *Engine) Params() Params {
	return Params{
		Wh: mat.DenseCopyOf(e.wh),
		Bh: mat.VecDenseCopyOf(e.bh),
		Wo: mat.DenseCopyOf(e.wo),
		Bo: mat.VecDenseCopyOf(e.bo),
	}
}

// FromParams rebuilds an engine from p, which is copied.
func FromParams(p Params) (*Engine, error) {
	if p.Wh == nil || p.Bh == nil || p.Wo == nil || p.Bo == nil {
		return nil, errors.Wrap(ErrShapeMismatch, "incomplete parameters")
	}
	nHidden, nIn := p.Wh.Dims()
	nOut, woCols := p.Wo.Dims()
	switch {
	case p.Bh.Len() != nHidden:
		return nil, errors.Wrapf(ErrShapeMismatch, "hidden bias has %d values, want %d", p.Bh.Len(), nHidden)
	case woCols != nHidden:
		return nil, errors.Wrapf(ErrShapeMismatch, "output weights have %d columns, want %d", woCols, nHidden)
	case p.Bo.Len() != nOut:
		return nil, errors.Wrapf(ErrShapeMismatch, "output bias has %d values, want %d", p.Bo.Len(), nOut)
	}
	e, err := alloc(nIn, nHidden, nOut)
	if err != nil {
		return nil, err
	}
	e.wh.Copy(p.Wh)
	e.bh.CopyVec(p.Bh)
	e.wo.Copy(p.Wo)
	e.bo.CopyVec(p.Bo)
	return e, nil
}

// WriteTo writes Wh, Bh, Wo and Bo in gonum's binary encoding, in that order.
func (p Params) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, m := range []interface {
		MarshalBinaryTo(io.Writer) (int, error)
	}{p.Wh, p.Bh, p.Wo, p.Bo} {
		n, err := m.MarshalBinaryTo(w)
		total += int64(n)
		if err != nil {
			return total, errors.Wrap(err, "network: write parameters")
		}
	}
	return total, nil
}

// ReadParams reads parameters written by Params.WriteTo.
func ReadParams(r io.Reader) (Params, error) {
	p := Params{
		Wh: &mat.Dense{},
		Bh: &mat.VecDense{},
		Wo: &mat.Dense{},
		Bo: &mat.VecDense{},
	}
	for _, m := range []interface {
		UnmarshalBinaryFrom(io.Reader) (int, error)
	}{p.Wh, p.Bh, p.Wo, p.Bo} {
		if _, err := m.UnmarshalBinaryFrom(r); err != nil {
			return Params{}, errors.Wrap(err, "network: read parameters")
		}
	}
	return p, nil
}
