package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/explain/internal/models"
	"github.com/born-ml/explain/internal/nn"
)

func runTrain(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var common commonFlags
	common.register(fs)
	out := fs.String("out", "model.born", "output model archive")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	b := newBackend()
	nn.SetSeed(cfg.Train.Seed)
	model, err := models.Build(cfg.Model, b)
	if err != nil {
		return err
	}

	trainSet, valSet, err := loadDigits(cfg.Data)
	if err != nil {
		return err
	}
	if trainSet.NumSamples() == 0 {
		return errors.New("no training samples")
	}
	if err := checkImageSize(cfg.Model, trainSet); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(cfg.Train.Seed, 0x5eed))
	trainBatches, err := models.DigitBatches(trainSet, cfg.Train.BatchSize, rng, b)
	if err != nil {
		return err
	}
	valBatches, err := models.DigitBatches(valSet, cfg.Train.BatchSize, nil, b)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "model %s: %d parameters, %d train / %d val samples\n",
		cfg.Model.Arch, models.NumParameters(model), trainSet.NumSamples(), valSet.NumSamples())

	history, err := models.Train(model, trainBatches, valBatches, models.TrainConfig{
		Epochs: cfg.Train.Epochs,
		LR:     float32(cfg.Train.LR),
		Seed:   cfg.Train.Seed,
		Logger: slog.Default(),
	}, b)
	if err != nil {
		return err
	}

	last := history[len(history)-1]
	fmt.Fprintf(stdout, "epoch %d: loss %.4f accuracy %.3f val_accuracy %.3f\n",
		last.Epoch, last.Loss, last.Accuracy, last.ValAccuracy)

	if err := models.Save(*out, cfg.Model, model); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved %s\n", *out)
	return nil
}
