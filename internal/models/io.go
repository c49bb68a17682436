package models

import (
	"fmt"

	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/serialization"
	"github.com/born-ml/explain/internal/tensor"
)

// Save writes model's parameters to a .born archive. The architecture is the
// archive's model type and the sizes go into its metadata.
func Save[B tensor.Backend](path string, spec Spec, model *nn.Sequential[B]) error {
	if err := serialization.WriteFile(path, model.StateDict(), spec.Arch, spec.metadata()); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load rebuilds the model stored at path on backend.
func Load[B tensor.Backend](path string, backend B) (*nn.Sequential[B], Spec, error) {
	r, err := serialization.ReadFile(path)
	if err != nil {
		return nil, Spec{}, fmt.Errorf("load model: %w", err)
	}
	spec, err := specFromMetadata(r.Header().ModelType, r.Metadata())
	if err != nil {
		return nil, Spec{}, fmt.Errorf("load model: %w", err)
	}
	model, err := Build(spec, backend)
	if err != nil {
		return nil, Spec{}, fmt.Errorf("load model: %w", err)
	}
	state, err := r.StateDict(backend.Device())
	if err != nil {
		return nil, Spec{}, fmt.Errorf("load model: %w", err)
	}
	if err := model.LoadStateDict(state); err != nil {
		return nil, Spec{}, fmt.Errorf("load model: %w", err)
	}
	return model, spec, nil
}
