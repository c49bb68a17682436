// Command explain trains digit classifiers and explains their predictions
// with Integrated Gradients.
//
// Usage:
//
//	explain version
//	explain info
//	explain train     [-config run.yaml] [-out model.born] [overrides]
//	explain attribute -model model.born [-config run.yaml] [-out exp.json|exp.born]
//	explain show      -in exp.json|exp.born
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/backend/cpu"
	"github.com/born-ml/explain/internal/config"
	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/logging"
)

type backendT = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() backendT { return autodiff.New(cpu.New()) }

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "explain:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "born explain %s\n", explain.Version)
		return nil
	case "info":
		return runInfo(stdout)
	case "train":
		return runTrain(args[1:], stdout)
	case "attribute":
		return runAttribute(args[1:], stdout)
	case "show":
		return runShow(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "born explain - Integrated Gradients for Go models")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  info       Show backend and CPU details")
	fmt.Fprintln(w, "  train      Train a digit classifier and save it")
	fmt.Fprintln(w, "  attribute  Explain predictions of a saved model")
	fmt.Fprintln(w, "  show       Print a saved explanation")
}

// commonFlags are shared by train and attribute.
type commonFlags struct {
	path      string
	overrides config.Overrides
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.path, "config", "", "YAML config file (default: built-in defaults)")
	fs.StringVar(&c.overrides.DataSource, "data", "", "data source: synthetic or mnist")
	fs.StringVar(&c.overrides.DataDir, "data-dir", "", "directory with MNIST IDX files")
	fs.IntVar(&c.overrides.Samples, "samples", 0, "number of samples to load")
	fs.IntVar(&c.overrides.Epochs, "epochs", 0, "training epochs")
	fs.IntVar(&c.overrides.BatchSize, "batch", 0, "training batch size")
	fs.Float64Var(&c.overrides.LR, "lr", 0, "Adam learning rate")
	fs.StringVar(&c.overrides.Method, "method", "", "integration method")
	fs.IntVar(&c.overrides.NSteps, "steps", 0, "integration steps")
	fs.IntVar(&c.overrides.Layer, "layer", 0, "attribute to the activation before module i (0: input)")
	fs.IntVar(&c.overrides.Instances, "instances", 0, "validation samples to explain")
	fs.StringVar(&c.overrides.LogLevel, "log-level", "", "debug, info, warn or error")
}

// load resolves the config and installs the logger it asks for.
func (c *commonFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if c.path != "" {
		var err error
		if cfg, err = config.Load(c.path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyOverrides(c.overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}
