package models

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/datasets/digits"
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/optim"
	"github.com/born-ml/explain/internal/tensor"
)

// Batch is one labelled mini-batch.
type Batch[B tensor.Backend] struct {
	Inputs *tensor.Tensor[float32, B]
	Labels []int
}

// DigitBatches cuts a digits dataset into training batches.
func DigitBatches[B tensor.Backend](d *digits.Dataset, batchSize int, rng *rand.Rand, backend B) ([]Batch[B], error) {
	src, err := digits.Batches(d, batchSize, rng, backend)
	if err != nil {
		return nil, err
	}
	out := make([]Batch[B], len(src))
	for i, b := range src {
		out[i] = Batch[B]{Inputs: b.Images, Labels: b.Labels}
	}
	return out, nil
}

// TrainConfig configures Train. Zero values select the defaults.
type TrainConfig struct {
	Epochs int          // default: 5
	LR     float32      // Adam learning rate (default: 0.001)
	Seed   uint64       // batch order shuffling
	Logger *slog.Logger // default: slog.Default()
}

// EpochStats summarises one epoch.
type EpochStats struct {
	Epoch       int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
}

// Train fits model with Adam on softmax cross-entropy and logs one line per
// epoch. val may be empty.
func Train[B autodiff.BackwardCapable](model nn.Module[B], train, val []Batch[B], cfg TrainConfig, backend B) ([]EpochStats, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("no training batches")
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = 5
	}
	if cfg.LR == 0 {
		cfg.LR = 0.001
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	params := model.Parameters()
	opt := optim.NewAdam(params, optim.AdamConfig{LR: cfg.LR})
	criterion := nn.NewCrossEntropyLoss(backend)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	tape := backend.Tape()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	history := make([]EpochStats, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var totalLoss, correct float64
		samples := 0
		for _, idx := range order {
			batch := train[idx]
			opt.ZeroGrad()
			tape.Clear()
			tape.StartRecording()

			logits := model.Forward(batch.Inputs)
			loss := criterion.Forward(logits, batch.Labels)
			tape.StopRecording()

			grads := autodiff.Backward(loss, backend)
			nn.CollectGrads(params, grads)
			opt.Step(grads)

			totalLoss += float64(loss.Item())
			correct += nn.Accuracy(logits, batch.Labels) * float64(len(batch.Labels))
			samples += len(batch.Labels)
		}

		stats := EpochStats{
			Epoch:    epoch,
			Loss:     totalLoss / float64(len(train)),
			Accuracy: correct / float64(samples),
		}
		if len(val) > 0 {
			stats.ValLoss, stats.ValAccuracy = Evaluate(model, val, backend)
		}
		history = append(history, stats)

		cfg.Logger.Info("epoch",
			"epoch", epoch,
			"of", cfg.Epochs,
			"loss", stats.Loss,
			"accuracy", stats.Accuracy,
			"val_loss", stats.ValLoss,
			"val_accuracy", stats.ValAccuracy)
	}
	return history, nil
}

// Evaluate returns the mean loss and accuracy of model over batches without
// recording gradients.
func Evaluate[B autodiff.BackwardCapable](model nn.Module[B], batches []Batch[B], backend B) (loss, accuracy float64) {
	tape := backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	criterion := nn.NewCrossEntropyLoss(backend)
	samples := 0
	for _, b := range batches {
		logits := model.Forward(b.Inputs)
		loss += float64(criterion.Forward(logits, b.Labels).Item())
		accuracy += nn.Accuracy(logits, b.Labels) * float64(len(b.Labels))
		samples += len(b.Labels)
	}
	if len(batches) == 0 {
		return 0, 0
	}
	return loss / float64(len(batches)), accuracy / float64(samples)
}

// Predict returns the argmax class of every row of inputs.
func Predict[B autodiff.BackwardCapable](model nn.Module[B], inputs *tensor.Tensor[float32, B], backend B) []int {
	tape := backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()
	pred := model.Forward(inputs).Argmax(-1).Data()
	out := make([]int, len(pred))
	for i, p := range pred {
		out[i] = int(p)
	}
	return out
}
