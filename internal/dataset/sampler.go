package dataset

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// ErrEmpty is returned when drawing from an empty sample set.
var ErrEmpty = errors.New("dataset: no samples")

// Sampler draws samples uniformly at random, with replacement, from a
// caller-owned stream. Draws are taken from rng in call order.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Draw picks one sample.
func (s *Sampler) Draw(samples []Sample) (Sample, error) {
	if len(samples) == 0 {
		return Sample{}, ErrEmpty
	}
	return samples[s.rng.IntN(len(samples))], nil
}
