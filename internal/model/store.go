package model

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"letterforge/internal/network"
)

// ErrModelFormat is returned when a model file is corrupt or was written for
// a different kind of classifier.
var ErrModelFormat = errors.New("model: unrecognised model file")

const modelFormat = "letterforge/nn1"

// header is the first line of a model file; the network parameters follow it
// in gonum's binary encoding.
type header struct {
	Format string   `json:"format"`
	Name   string   `json:"name"`
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Hidden int      `json:"hidden"`
	Labels []string `json:"labels"`
	CPU    string   `json:"cpu,omitempty"`
}

// Save writes c to w. The header records the CPU brand of the host that
// wrote it.
func Save(w io.Writer, c *NeuralLetterClassifier) error {
	opts := c.Options()
	bw := bufio.NewWriter(w)
	err := json.NewEncoder(bw).Encode(header{
		Format: modelFormat,
		Name:   opts.Name,
		Rows:   opts.Rows,
		Cols:   opts.Cols,
		Hidden: opts.Hidden,
		Labels: opts.Labels,
		CPU:    cpuid.CPU.BrandName,
	})
	if err != nil {
		return errors.Wrap(err, "write model header")
	}
	if _, err := c.engine.Params().WriteTo(bw); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "write model")
}

// Load reads a classifier written by Save.
func Load(r io.Reader) (*NeuralLetterClassifier, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, errors.Wrapf(ErrModelFormat, "header: %v", err)
	}
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, errors.Wrapf(ErrModelFormat, "header: %v", err)
	}
	if h.Format != modelFormat {
		return nil, errors.Wrapf(ErrModelFormat, "format %q", h.Format)
	}

	if h.Rows <= 0 || h.Cols <= 0 {
		return nil, errors.Wrapf(ErrModelFormat, "bitmap size %dx%d", h.Rows, h.Cols)
	}

	params, err := network.ReadParams(br)
	if err != nil {
		return nil, errors.Wrapf(ErrModelFormat, "%v", err)
	}
	engine, err := network.FromParams(params)
	if err != nil {
		return nil, errors.Wrapf(ErrModelFormat, "%v", err)
	}
	nIn, nHidden, nOut := engine.Sizes()
	if nIn != h.Rows*h.Cols || nHidden != h.Hidden || nOut != len(h.Labels) {
		return nil, errors.Wrapf(ErrModelFormat, "network %d-%d-%d does not match header %dx%d/%d/%d",
			nIn, nHidden, nOut, h.Rows, h.Cols, h.Hidden, len(h.Labels))
	}
	c := newNeural(Options{
		Name:   h.Name,
		Rows:   h.Rows,
		Cols:   h.Cols,
		Hidden: h.Hidden,
		Labels: h.Labels,
	}, engine)
	c.trainedOn = h.CPU
	return c, nil
}

// SaveFile writes c to path, replacing any existing file.
func SaveFile(path string, c *NeuralLetterClassifier) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create model file")
	}
	if err := Save(f, c); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close model file")
}

// LoadFile reads a classifier from path.
func LoadFile(path string) (*NeuralLetterClassifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model file")
	}
	defer f.Close()
	return Load(f)
}
