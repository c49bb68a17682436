package explain

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/explain/internal/tensor"
)

// Defaults applied to zero Config fields.
const (
	DefaultNSteps            = 50
	DefaultInternalBatchSize = 100
)

// Model is anything with a float32 forward pass. Every nn.Module is a Model.
type Model[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// TargetFunc derives one target per instance from the model's predictions.
type TargetFunc func(predictions Array) ([]int, error)

// Config configures an IntegratedGradients explainer. Zero values select
// the defaults.
type Config struct {
	// Method is the quadrature rule (default: GaussLegendre).
	Method Method

	// NSteps is the number of points on the integration path (default: 50).
	NSteps int

	// InternalBatchSize caps how many path points go through the model at
	// once (default: 100).
	InternalBatchSize int

	// TargetFn picks targets when Explain is called without any.
	TargetFn TargetFunc

	// Logger receives per-batch debug logs (default: slog.Default()).
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Method == "" {
		c.Method = GaussLegendre
	}
	if c.NSteps == 0 {
		c.NSteps = DefaultNSteps
	}
	if c.InternalBatchSize == 0 {
		c.InternalBatchSize = DefaultInternalBatchSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Validate checks c after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.NSteps < 1 {
		return fmt.Errorf("%w: %d (need at least 1)", ErrInvalidSteps, c.NSteps)
	}
	if c.Method == RiemannTrapezoid && c.NSteps < 2 {
		return fmt.Errorf("%w: %s needs at least 2 steps, got %d", ErrInvalidSteps, c.Method, c.NSteps)
	}
	if c.InternalBatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, c.InternalBatchSize)
	}
	return nil
}
