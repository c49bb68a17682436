// Package config loads the YAML run configuration of the explain CLI.
//
// Example file:
//
//	model:
//	  arch: lenet
//	  rows: 28
//	  cols: 28
//	  classes: 10
//	data:
//	  source: synthetic
//	  samples: 2000
//	train:
//	  epochs: 3
//	explain:
//	  method: gausslegendre
//	  n_steps: 50
//	log:
//	  level: info
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/models"
)

// Data sources.
const (
	SourceSynthetic = "synthetic"
	SourceMNIST     = "mnist"
)

// Config captures the knobs of a train or attribute run.
type Config struct {
	Model   models.Spec   `yaml:"model"`
	Data    DataConfig    `yaml:"data"`
	Train   TrainConfig   `yaml:"train"`
	Explain ExplainConfig `yaml:"explain"`
	Log     LogConfig     `yaml:"log"`
}

// DataConfig selects the dataset.
type DataConfig struct {
	Source     string  `yaml:"source"`     // synthetic or mnist
	Dir        string  `yaml:"dir"`        // mnist directory
	Samples    int     `yaml:"samples"`    // 0 loads all mnist samples
	Validation float64 `yaml:"validation"` // held-out share
	Seed       uint64  `yaml:"seed"`
}

// TrainConfig configures training.
type TrainConfig struct {
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`
	Seed      uint64  `yaml:"seed"`
}

// ExplainConfig configures attribution.
type ExplainConfig struct {
	Method            string  `yaml:"method"`
	NSteps            int     `yaml:"n_steps"`
	InternalBatchSize int     `yaml:"internal_batch_size"`
	Baseline          float64 `yaml:"baseline"`  // constant baseline value
	Layer             int     `yaml:"layer"`     // split index, 0 attributes to the input
	Instances         int     `yaml:"instances"` // how many validation samples to explain
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataSource string
	DataDir    string
	Samples    int
	Epochs     int
	BatchSize  int
	LR         float64
	Method     string
	NSteps     int
	Layer      int
	Instances  int
	LogLevel   string
}

// Default returns a runnable configuration: LeNet on synthetic digits.
func Default() *Config {
	return &Config{
		Model: models.Spec{Arch: models.ArchLeNet, Rows: 28, Cols: 28, Hidden: 64, Classes: 10},
		Data:  DataConfig{Source: SourceSynthetic, Samples: 1000, Validation: 0.2, Seed: 1},
		Train: TrainConfig{Epochs: 3, BatchSize: 32, LR: 0.001, Seed: 1},
		Explain: ExplainConfig{
			Method:            string(explain.GaussLegendre),
			NSteps:            explain.DefaultNSteps,
			InternalBatchSize: explain.DefaultInternalBatchSize,
			Instances:         4,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over Default and validates the result. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataSource != "" {
		c.Data.Source = o.DataSource
	}
	if o.DataDir != "" {
		c.Data.Dir = o.DataDir
	}
	if o.Samples > 0 {
		c.Data.Samples = o.Samples
	}
	if o.Epochs > 0 {
		c.Train.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.Train.BatchSize = o.BatchSize
	}
	if o.LR > 0 {
		c.Train.LR = o.LR
	}
	if o.Method != "" {
		c.Explain.Method = o.Method
	}
	if o.NSteps > 0 {
		c.Explain.NSteps = o.NSteps
	}
	if o.Layer > 0 {
		c.Explain.Layer = o.Layer
	}
	if o.Instances > 0 {
		c.Explain.Instances = o.Instances
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Data.Source {
	case SourceSynthetic:
	case SourceMNIST:
		if c.Data.Dir == "" {
			return errors.New("data.dir must be set for the mnist source")
		}
	default:
		return fmt.Errorf("data.source must be %q or %q (got %q)", SourceSynthetic, SourceMNIST, c.Data.Source)
	}
	if c.Data.Validation < 0 || c.Data.Validation >= 1 {
		return fmt.Errorf("data.validation must be in [0, 1) (got %v)", c.Data.Validation)
	}
	if c.Model.Arch == models.ArchText {
		return errors.New("model.arch text is not trained from digit data")
	}
	if c.Train.Epochs <= 0 {
		return fmt.Errorf("train.epochs must be > 0 (got %d)", c.Train.Epochs)
	}
	if c.Train.BatchSize <= 0 {
		return fmt.Errorf("train.batch_size must be > 0 (got %d)", c.Train.BatchSize)
	}
	if c.Train.LR <= 0 {
		return fmt.Errorf("train.lr must be > 0 (got %v)", c.Train.LR)
	}
	if c.Explain.Layer < 0 {
		return fmt.Errorf("explain.layer must be >= 0 (got %d)", c.Explain.Layer)
	}
	if c.Explain.Instances <= 0 {
		return fmt.Errorf("explain.instances must be > 0 (got %d)", c.Explain.Instances)
	}
	return c.ExplainConfig().Validate()
}

// ExplainConfig converts the explain section into an explainer Config.
func (c *Config) ExplainConfig() explain.Config {
	return explain.Config{
		Method:            explain.Method(c.Explain.Method),
		NSteps:            c.Explain.NSteps,
		InternalBatchSize: c.Explain.InternalBatchSize,
	}
}
