package trainer

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"

	"letterforge/internal/dataset"
	"letterforge/internal/metrics"
	"letterforge/internal/model"
)

// DefaultReportEvery is the reporting window used when none is configured.
const DefaultReportEvery = 3000

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Train       []dataset.Sample
	Validation  []dataset.Sample // optional
	Iterations  int
	Eta         float64
	ReportEvery int
	Report      func(Report) // nil logs each report
}

// Report is the average error over the last reporting window.
type Report struct {
	Iteration int
	metrics.Snapshot
}

// Run presents Iterations samples drawn uniformly with replacement from Train,
// training on each. When Validation is set, every iteration also draws one
// validation sample and measures its error without training. Both draws come
// from rng, training first. The context is checked between iterations.
func Run(ctx context.Context, clf model.Classifier, rng *rand.Rand, cfg RunConfig) error {
	if cfg.Iterations <= 0 {
		return errors.New("trainer: iterations must be > 0")
	}
	if cfg.Eta <= 0 {
		return errors.New("trainer: eta must be > 0")
	}
	if len(cfg.Train) == 0 {
		return errors.Wrap(dataset.ErrEmpty, "trainer: training set")
	}
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = DefaultReportEvery
	}
	report := cfg.Report
	if report == nil {
		report = logReport
	}

	sampler := dataset.NewSampler(rng)
	var window metrics.Window

	for iter := 1; iter <= cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		sample, err := sampler.Draw(cfg.Train)
		if err != nil {
			return err
		}
		trainErr, err := clf.TrainSample(sample, cfg.Eta)
		if err != nil {
			return errors.Wrapf(err, "train on line %d", sample.Line)
		}
		window.Record(trainErr, time.Since(start))

		if len(cfg.Validation) > 0 {
			val, err := sampler.Draw(cfg.Validation)
			if err != nil {
				return err
			}
			valErr, err := clf.SampleError(val)
			if err != nil {
				return errors.Wrapf(err, "validate on line %d", val.Line)
			}
			window.RecordValidation(valErr)
		}

		if iter%cfg.ReportEvery == 0 {
			report(Report{Iteration: iter, Snapshot: window.Snapshot()})
		}
	}
	if window.Steps() > 0 {
		report(Report{Iteration: cfg.Iterations, Snapshot: window.Snapshot()})
	}
	return nil
}

func logReport(r Report) {
	if r.Validated {
		log.Printf("iter=%d train_rmse=%.4f val_rmse=%.4f samples_per_sec=%.1f",
			r.Iteration, r.TrainRMSE, r.ValidationRMSE, r.SamplesPerSec)
		return
	}
	log.Printf("iter=%d train_rmse=%.4f samples_per_sec=%.1f",
		r.Iteration, r.TrainRMSE, r.SamplesPerSec)
}
