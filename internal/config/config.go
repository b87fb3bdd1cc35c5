package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults for a letter classification run.
const (
	DefaultRows        = 32
	DefaultCols        = 32
	DefaultHidden      = 32
	DefaultIterations  = 70000
	DefaultEta         = 0.70
	DefaultReportEvery = 3000
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Name           string  `yaml:"name"`
	TrainFile      string  `yaml:"train_file"`
	ValidationFile string  `yaml:"validation_file"`
	ModelFile      string  `yaml:"model_file"`
	Rows           int     `yaml:"rows"`
	Cols           int     `yaml:"cols"`
	Hidden         int     `yaml:"hidden"`
	Iterations     int     `yaml:"iterations"`
	Eta            float64 `yaml:"eta"`
	Seed           int64   `yaml:"seed"`
	ReportEvery    int     `yaml:"report_every"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	TrainFile      string
	ValidationFile string
	ModelFile      string
	Hidden         int
	Iterations     int
	Eta            float64
	Seed           int64
	ReportEvery    int
}

// Default returns a Config populated with the default run settings.
func Default() *Config {
	return &Config{
		Rows:        DefaultRows,
		Cols:        DefaultCols,
		Hidden:      DefaultHidden,
		Iterations:  DefaultIterations,
		Eta:         DefaultEta,
		ReportEvery: DefaultReportEvery,
	}
}

// Load reads a Config from YAML on top of the defaults. Validation is left to
// the caller so overrides can be applied first.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.TrainFile != "" {
		c.TrainFile = o.TrainFile
	}
	if o.ValidationFile != "" {
		c.ValidationFile = o.ValidationFile
	}
	if o.ModelFile != "" {
		c.ModelFile = o.ModelFile
	}
	if o.Hidden > 0 {
		c.Hidden = o.Hidden
	}
	if o.Iterations > 0 {
		c.Iterations = o.Iterations
	}
	if o.Eta > 0 {
		c.Eta = o.Eta
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.ReportEvery > 0 {
		c.ReportEvery = o.ReportEvery
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TrainFile == "" {
		return errors.New("train_file must be set")
	}
	if c.ModelFile == "" {
		return errors.New("model_file must be set")
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return errors.Errorf("rows and cols must be > 0 (got %dx%d)", c.Rows, c.Cols)
	}
	if c.Hidden <= 0 {
		return errors.Errorf("hidden must be > 0 (got %d)", c.Hidden)
	}
	if c.Iterations <= 0 {
		return errors.Errorf("iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.Eta <= 0 || c.Eta > 1 {
		return errors.Errorf("eta must be in (0, 1] (got %g)", c.Eta)
	}
	if c.ReportEvery <= 0 {
		c.ReportEvery = DefaultReportEvery
	}
	return nil
}
