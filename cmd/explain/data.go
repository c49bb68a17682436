package main

import (
	"fmt"

	"github.com/born-ml/explain/internal/config"
	"github.com/born-ml/explain/internal/datasets/digits"
	"github.com/born-ml/explain/internal/models"
)

const defaultSyntheticSamples = 1000

// loadDigits loads the configured dataset and splits off the validation share.
func loadDigits(cfg config.DataConfig) (train, val *digits.Dataset, err error) {
	var all *digits.Dataset
	switch cfg.Source {
	case config.SourceMNIST:
		if all, err = digits.LoadMNIST(cfg.Dir, true, cfg.Samples); err != nil {
			return nil, nil, err
		}
	default:
		n := cfg.Samples
		if n <= 0 {
			n = defaultSyntheticSamples
		}
		all = digits.Synthetic(n, cfg.Seed)
	}
	train, val = all.Split(cfg.Validation)
	return train, val, nil
}

// checkImageSize reports whether the data fits the model's input.
func checkImageSize(spec models.Spec, d *digits.Dataset) error {
	if spec.Rows != d.Rows || spec.Cols != d.Cols {
		return fmt.Errorf("model expects %dx%d images, data has %dx%d", spec.Rows, spec.Cols, d.Rows, d.Cols)
	}
	return nil
}
