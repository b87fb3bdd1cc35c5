package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"letterforge/internal/config"
	"letterforge/internal/dataset"
	"letterforge/internal/model"
	"letterforge/internal/network"
	"letterforge/internal/trainer"
)

const (
	exitUsage     = 1
	exitLoadModel = 2
	exitBadModel  = 3
)

const usage = `usage:
  letterforge train [-config run.yaml] [-train file|dir] [-validation file] [-model file]
                    [-iterations n] [-eta x] [-hidden n] [-seed n] [-report-every n]
  letterforge run -model file <bitmap-file>
  letterforge transform <bitmap-file>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitUsage)
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "train":
		trainCmd(args)
	case "run":
		runCmd(args)
	case "transform":
		transformCmd(args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitUsage)
	}
}

func fail(code int, format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(code)
}

func trainCmd(args []string) {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	trainFile := fs.String("train", "", "Override training corpus (file or directory)")
	validationFile := fs.String("validation", "", "Override validation corpus")
	modelFile := fs.String("model", "", "Override output model file")
	iterations := fs.Int("iterations", 0, "Number of training presentations")
	eta := fs.Float64("eta", 0, "Learning rate")
	hidden := fs.Int("hidden", 0, "Number of hidden units")
	seed := fs.Int64("seed", 0, "PRNG seed (0 picks one from the clock)")
	reportEvery := fs.Int("report-every", 0, "Report average error every N iterations")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitUsage)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fail(exitUsage, "failed to load config: %v", err)
		}
	}
	cfg.ApplyOverrides(config.Overrides{
		TrainFile:      *trainFile,
		ValidationFile: *validationFile,
		ModelFile:      *modelFile,
		Hidden:         *hidden,
		Iterations:     *iterations,
		Eta:            *eta,
		Seed:           *seed,
		ReportEvery:    *reportEvery,
	})
	if err := cfg.Validate(); err != nil {
		fail(exitUsage, "invalid config: %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	log.Printf("host cpu=%q physical_cores=%d logical_cores=%d avx2=%t",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.Supports(cpuid.AVX2))
	log.Printf("run name=%q rows=%d cols=%d hidden=%d iterations=%d eta=%g seed=%d",
		cfg.Name, cfg.Rows, cfg.Cols, cfg.Hidden, cfg.Iterations, cfg.Eta, cfg.Seed)

	labels := dataset.Letters()
	train, err := loadCorpus(cfg.TrainFile, labels, cfg.Rows, cfg.Cols)
	if err != nil {
		fail(exitUsage, "load training corpus: %v", err)
	}
	if len(train) == 0 {
		fail(exitUsage, "no usable samples in %s", cfg.TrainFile)
	}
	var validation []dataset.Sample
	if cfg.ValidationFile != "" {
		if validation, err = loadCorpus(cfg.ValidationFile, labels, cfg.Rows, cfg.Cols); err != nil {
			fail(exitUsage, "load validation corpus: %v", err)
		}
	}

	rng := network.NewRand(cfg.Seed)
	clf, err := model.NewNeuralLetterClassifier(model.Options{
		Name:   cfg.Name,
		Rows:   cfg.Rows,
		Cols:   cfg.Cols,
		Hidden: cfg.Hidden,
		Labels: labels,
	}, rng)
	if err != nil {
		fail(exitUsage, "build classifier: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = trainer.Run(ctx, clf, rng, trainer.RunConfig{
		Train:       train,
		Validation:  validation,
		Iterations:  cfg.Iterations,
		Eta:         cfg.Eta,
		ReportEvery: cfg.ReportEvery,
	})
	if err != nil {
		stop()
		fail(exitUsage, "training failed: %v", err)
	}

	if err := model.SaveFile(cfg.ModelFile, clf); err != nil {
		stop()
		fail(exitUsage, "failed to save model: %v", err)
	}
	fmt.Println("Done.")
}

// loadCorpus loads labeled samples and drops those whose size differs from
// the classifier's input.
func loadCorpus(path string, labels []string, rows, cols int) ([]dataset.Sample, error) {
	samples, stats, err := dataset.LoadFile(path, labels)
	if err != nil {
		return nil, err
	}
	kept := samples[:0]
	for _, s := range samples {
		if s.Bitmap.Rows() == rows && s.Bitmap.Cols() == cols {
			kept = append(kept, s)
		}
	}
	log.Printf("corpus=%s lines=%d loaded=%d skipped=%d wrong_size=%d",
		path, stats.Lines, stats.Loaded, stats.Skipped, len(samples)-len(kept))
	return kept, nil
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	modelFile := fs.String("model", "", "Trained model file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitUsage)
	}
	if *modelFile == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitUsage)
	}

	clf, err := model.LoadFile(*modelFile)
	if err != nil {
		if errors.Is(err, model.ErrModelFormat) {
			fail(exitBadModel, "loaded classifier does not match available classes: %v", err)
		}
		fail(exitLoadModel, "load of classifier failed: %v", err)
	}

	maps, stats, err := dataset.LoadUnlabeledFile(fs.Arg(0))
	if err != nil {
		fail(exitUsage, "error loading bitmap file: %v", err)
	}
	log.Printf("classifier=%q trained_on=%q bitmaps=%d skipped=%d",
		clf.Name(), clf.TrainedOn(), stats.Loaded, stats.Skipped)
	for _, m := range maps {
		idx, err := clf.Predict(m.Bitmap)
		if err != nil {
			log.Printf("line=%d err=%v", m.Line, err)
			continue
		}
		fmt.Printf("%d %d %s\n", m.Line, idx, clf.Label(idx))
	}
}

func transformCmd(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitUsage)
	}
	labels := dataset.Letters()
	samples, _, err := dataset.LoadFile(args[0], labels)
	if err != nil {
		fail(exitUsage, "error loading %s: %v", args[0], err)
	}
	for _, s := range samples {
		fmt.Printf("%s %s\n", s.Bitmap, labels[s.Label])
	}
}
