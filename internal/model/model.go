package model

import (
	"letterforge/internal/bitmap"
	"letterforge/internal/dataset"
)

// Classifier is the capability set every letter classifier offers.
type Classifier interface {
	Name() string
	ClassCount() int
	Label(index int) string
	// Classify returns one score per class for b.
	Classify(b *bitmap.Bitmap) ([]float64, error)
	// Predict returns the index of the highest score, lowest index on ties.
	Predict(b *bitmap.Bitmap) (int, error)
	// TrainSample adapts the classifier to one sample and returns its error
	// before the update.
	TrainSample(s dataset.Sample, eta float64) (float64, error)
	// SampleError measures the error on one sample without training.
	SampleError(s dataset.Sample) (float64, error)
}
