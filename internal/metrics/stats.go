package metrics

import "time"

// Window accumulates training and validation error across iterations.
type Window struct {
	steps       int
	trainSum    float64
	validations int
	valSum      float64
	elapsed     time.Duration
	lastTrain   float64
}

// Record adds the error of one training step and the time it took.
func (w *Window) Record(trainErr float64, elapsed time.Duration) {
	w.steps++
	w.trainSum += trainErr
	w.elapsed += elapsed
	w.lastTrain = trainErr
}

// RecordValidation adds the error of one validation sample.
func (w *Window) RecordValidation(valErr float64) {
	w.validations++
	w.valSum += valErr
}

// Steps returns the number of training steps recorded since the last snapshot.
func (w *Window) Steps() int {
	return w.steps
}

// Snapshot returns the window averages and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Steps: w.steps, LastTrainRMSE: w.lastTrain}
	if w.steps > 0 {
		snap.TrainRMSE = w.trainSum / float64(w.steps)
	}
	if w.validations > 0 {
		snap.Validated = true
		snap.ValidationRMSE = w.valSum / float64(w.validations)
	}
	if w.elapsed > 0 {
		snap.SamplesPerSec = float64(w.steps) / w.elapsed.Seconds()
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps          int
	TrainRMSE      float64
	ValidationRMSE float64
	Validated      bool
	SamplesPerSec  float64
	LastTrainRMSE  float64
}
