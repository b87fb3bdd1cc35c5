package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"letterforge/internal/bitmap"
	"letterforge/internal/dataset"
	"letterforge/internal/network"
)

// ErrLabelOutOfRange is returned for a sample whose label is not a class index.
var ErrLabelOutOfRange = errors.New("model: label out of range")

// DefaultName identifies a NeuralLetterClassifier built without a name.
const DefaultName = "NN Classifier 1"

// Options configures a NeuralLetterClassifier.
type Options struct {
	Name   string
	Rows   int
	Cols   int
	Hidden int
	Labels []string // class names; defaults to A..Z
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if len(o.Labels) == 0 {
		o.Labels = dataset.Letters()
	}
	return o
}

// NeuralLetterClassifier classifies normalized bitmaps with a single hidden
// layer network. One-hot target vectors are built once per class.
type NeuralLetterClassifier struct {
	name    string
	rows    int
	cols    int
	labels  []string
	engine  *network.Engine
	targets [][]float64

	trainedOn string // CPU brand from the model file header
}

var _ Classifier = (*NeuralLetterClassifier)(nil)

// NewNeuralLetterClassifier builds a classifier for rows×cols bitmaps. Initial
// weights are drawn from rng, which the caller may keep drawing from.
func NewNeuralLetterClassifier(opts Options, rng *rand.Rand) (*NeuralLetterClassifier, error) {
	opts = opts.withDefaults()
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, errors.Wrapf(network.ErrBadShape, "bitmap %dx%d", opts.Rows, opts.Cols)
	}
	engine, err := network.NewWithRand(opts.Rows*opts.Cols, opts.Hidden, len(opts.Labels), rng)
	if err != nil {
		return nil, err
	}
	return newNeural(opts, engine), nil
}

func newNeural(opts Options, engine *network.Engine) *NeuralLetterClassifier {
	labels := append([]string(nil), opts.Labels...)
	targets := make([][]float64, len(labels))
	for c := range targets {
		targets[c] = make([]float64, len(labels))
		targets[c][c] = 1
	}
	return &NeuralLetterClassifier{
		name:    opts.Name,
		rows:    opts.Rows,
		cols:    opts.Cols,
		labels:  labels,
		engine:  engine,
		targets: targets,
	}
}

func (c *NeuralLetterClassifier) Name() string    { return c.name }
func (c *NeuralLetterClassifier) ClassCount() int { return len(c.labels) }

// Label returns the class name for index, or "" when out of range.
func (c *NeuralLetterClassifier) Label(index int) string {
	if index < 0 || index >= len(c.labels) {
		return ""
	}
	return c.labels[index]
}

// TrainedOn returns the CPU brand recorded when the model was saved, or ""
// for a classifier that was not loaded from a file.
func (c *NeuralLetterClassifier) TrainedOn() string { return c.trainedOn }

// Labels returns a copy of the class names.
func (c *NeuralLetterClassifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Options reports the configuration the classifier was built with.
func (c *NeuralLetterClassifier) Options() Options {
	_, hidden, _ := c.engine.Sizes()
	return Options{Name: c.name, Rows: c.rows, Cols: c.cols, Hidden: hidden, Labels: c.Labels()}
}

// Params returns a copy of the network weights.
func (c *NeuralLetterClassifier) Params() network.Params {
	return c.engine.Params()
}

func (c *NeuralLetterClassifier) input(b *bitmap.Bitmap) ([]float64, error) {
	if n := b.Rows() * b.Cols(); n != c.rows*c.cols {
		return nil, errors.Wrapf(network.ErrShapeMismatch, "bitmap %dx%d has %d pixels, want %d",
			b.Rows(), b.Cols(), n, c.rows*c.cols)
	}
	if b.IsNormalized() {
		return b.Floats(), nil
	}
	nb, err := bitmap.NormalizedCopy(b)
	if err != nil {
		return nil, err
	}
	return nb.Floats(), nil
}

func (c *NeuralLetterClassifier) target(label int) ([]float64, error) {
	if label < 0 || label >= len(c.targets) {
		return nil, errors.Wrapf(ErrLabelOutOfRange, "%d not in [0,%d)", label, len(c.targets))
	}
	return c.targets[label], nil
}

// Classify normalizes b if needed and returns the network output, one value
// per class.
func (c *NeuralLetterClassifier) Classify(b *bitmap.Bitmap) ([]float64, error) {
	x, err := c.input(b)
	if err != nil {
		return nil, err
	}
	return c.engine.Forward(x)
}

// Predict returns the most likely class index.
func (c *NeuralLetterClassifier) Predict(b *bitmap.Bitmap) (int, error) {
	scores, err := c.Classify(b)
	if err != nil {
		return 0, err
	}
	return Argmax(scores), nil
}

// TrainSample runs one online backpropagation step on s.
func (c *NeuralLetterClassifier) TrainSample(s dataset.Sample, eta float64) (float64, error) {
	d, err := c.target(s.Label)
	if err != nil {
		return 0, err
	}
	x, err := c.input(s.Bitmap)
	if err != nil {
		return 0, err
	}
	return c.engine.Train(x, d, eta)
}

// SampleError returns the RMS error on s without changing any weight.
func (c *NeuralLetterClassifier) SampleError(s dataset.Sample) (float64, error) {
	d, err := c.target(s.Label)
	if err != nil {
		return 0, err
	}
	x, err := c.input(s.Bitmap)
	if err != nil {
		return 0, err
	}
	return c.engine.Error(x, d)
}

// Argmax returns the index of the largest score, the lowest index on ties,
// or -1 for an empty slice.
func Argmax(scores []float64) int {
	if len(scores) == 0 {
		return -1
	}
	return floats.MaxIdx(scores)
}
