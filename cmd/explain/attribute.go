package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/explain/internal/datasets/digits"
	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/models"
)

func runAttribute(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("attribute", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var common commonFlags
	common.register(fs)
	modelPath := fs.String("model", "", "model archive written by train (required)")
	out := fs.String("out", "", "write the explanation to a .json or .born file")
	target := fs.Int("target", -1, "class to explain (default: the predicted class)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" {
		return errors.New("attribute: -model is required")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	b := newBackend()
	model, spec, err := models.Load(*modelPath, b)
	if err != nil {
		return err
	}

	trainSet, valSet, err := loadDigits(cfg.Data)
	if err != nil {
		return err
	}
	source := valSet
	if source.NumSamples() == 0 {
		source = trainSet
	}
	if err := checkImageSize(spec, source); err != nil {
		return err
	}
	n := min(cfg.Explain.Instances, source.NumSamples())
	if n == 0 {
		return errors.New("no samples to explain")
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	samples := source.Subset(indices...)

	ecfg := cfg.ExplainConfig()
	opts := []explain.Option{explain.WithBaselineValue(cfg.Explain.Baseline)}
	if *target >= 0 {
		opts = append(opts, explain.WithTarget(*target))
	} else {
		ecfg.TargetFn = explain.ArgmaxTarget
	}

	var ig *explain.IntegratedGradients[backendT]
	if cfg.Explain.Layer > 0 {
		split, err := model.Split(cfg.Explain.Layer)
		if err != nil {
			return err
		}
		ig, err = explain.NewForLayer(split, b, ecfg)
		if err != nil {
			return err
		}
	} else {
		if ig, err = explain.New(model, b, ecfg); err != nil {
			return err
		}
	}

	exp, err := ig.Explain(digits.Tensor(samples, b), opts...)
	if err != nil {
		return err
	}
	printExplanation(stdout, exp, samples.Labels)

	if *out != "" {
		if err := writeExplanation(*out, exp); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "saved %s\n", *out)
	}
	return nil
}

func writeExplanation(path string, exp *explain.Explanation) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := exp.ToJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o600)
	}
	return exp.Save(path)
}

func readExplanation(path string) (*explain.Explanation, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		//nolint:gosec // G304: path comes from the command line
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return explain.FromJSON(data)
	}
	return explain.LoadExplanation(path)
}
